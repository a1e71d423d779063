package errcodes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)

	NewHandler().Handle(err, c)

	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	payload, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	return rr.Code, payload
}

func TestHandle_CustomError(t *testing.T) {
	t.Parallel()

	code, payload := handle(t, errors.WithStack(NotFound("Publication")))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", payload["code"])
	assert.Equal(t, "Publication not found.", payload["message"])
	assert.Equal(t, float64(http.StatusNotFound), payload["status_code"])
}

func TestHandle_EchoError(t *testing.T) {
	t.Parallel()

	code, payload := handle(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Equal(t, "method_not_allowed", payload["code"])
}

func TestHandle_GenericErrorIsInternal(t *testing.T) {
	t.Parallel()

	code, payload := handle(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal_server_error", payload["code"])
	assert.Equal(t, "Internal Server Error", payload["message"])
}
