package errcodes

import (
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Handle is the Echo error handler. Errors built by this package and
// echo.HTTPError keep their status. Anything else is logged and reported as
// a 500 without leaking its message.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)
	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}

	body := toBody(err)
	if body.StatusCode == http.StatusInternalServerError {
		log.Err(err).Error("server error")
	}

	if c.Response().Committed {
		return
	}
	if jerr := c.JSON(body.StatusCode, errorEnvelope{body}); jerr != nil {
		log.Err(errors.WithStack(jerr)).Error("error handler json error")
	}
}

func toBody(err error) errorBody {
	var e *Error
	if errors.As(err, &e) {
		return errorBody{Code: e.Code, Message: e.Message, StatusCode: e.HTTPCode}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code != http.StatusInternalServerError || msg != "" {
			return errorBody{Code: strcase.ToSnake(msg), Message: msg, StatusCode: he.Code}
		}
	}

	return errorBody{
		Code:       "internal_server_error",
		Message:    "Internal Server Error",
		StatusCode: http.StatusInternalServerError,
	}
}
