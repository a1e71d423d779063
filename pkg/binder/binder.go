package binder

import (
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/newsstandhq/newsstand/pkg/errcodes"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
)

var unknownFieldRE = regexp.MustCompile(`^json: unknown field "(.*)"$`)

// Binder implements echo.Binder. A request fills the target from its JSON
// body, or from the query string for body-less GET and DELETE requests. The
// result is then conformed by mold, given its defaults and validated.
type Binder struct {
	query    *schema.Decoder
	conform  *mold.Transformer
	validate *validator.Validate
}

// fieldName reports a field by its json name, falling back to its query
// name, so error messages use the names clients send.
func fieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" {
		tag = fld.Tag.Get("query")
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func New() (*Binder, error) {
	query := schema.NewDecoder()
	query.SetAliasTag("query")

	validate := validator.New()
	validate.RegisterTagNameFunc(fieldName)
	if err := validate.RegisterValidation(urlTag, urlValidator); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Binder{
		query:    query,
		conform:  modifiers.New(),
		validate: validate,
	}, nil
}

func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	var err error
	switch {
	case req.ContentLength > 0:
		err = b.decodeBody(i, c)
	case req.Method == http.MethodGet || req.Method == http.MethodDelete:
		err = b.decodeQuery(i, c.QueryParams())
	default:
		err = errcodes.EmptyRequestBody()
	}
	if err != nil {
		return err
	}

	return b.finish(i, c)
}

func (b *Binder) decodeBody(i interface{}, c echo.Context) error {
	req := c.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return errcodes.UnsupportedMediaType()
	}
	defer req.Body.Close()

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(i)
	if err == nil {
		return nil
	}

	if m := unknownFieldRE.FindStringSubmatch(err.Error()); len(m) > 1 {
		return errcodes.UnknownParameter(m[1])
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return errcodes.ValidationTypeError(formatUnmarshalTypeError(typeErr))
	}

	logger.FromEchoContext(c).Err(err).Warn("undecodable json body")
	return errcodes.MalformedPayload()
}

func (b *Binder) decodeQuery(i interface{}, params url.Values) error {
	err := b.query.Decode(i, params)
	if err == nil {
		return nil
	}

	multi, ok := err.(schema.MultiError)
	if !ok {
		return errors.WithStack(err)
	}
	// Report one problem per request; which one is arbitrary.
	for _, first := range multi {
		switch e := first.(type) {
		case schema.ConversionError:
			return errcodes.ValidationTypeError(formatSchemaConversionError(e))
		case schema.UnknownKeyError:
			return errcodes.UnknownParameter(e.Key)
		default:
			return errors.WithStack(e)
		}
	}
	return errors.WithStack(err)
}

// finish trims and lowercases per the mod tags, applies defaults, then
// validates. Only the first validation failure is reported.
func (b *Binder) finish(i interface{}, c echo.Context) error {
	if err := b.conform.Struct(c.Request().Context(), i); err != nil {
		return errors.WithStack(err)
	}
	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	err := b.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WithStack(err)
	}
	return errcodes.ValidationError(formatValidationError(verrs[0]))
}
