package errcodes

import (
	"fmt"
	"net/http"
)

// Error is an API error carrying the status it maps to and a stable
// snake_case code clients can switch on.
type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func newError(status int, code, msg string) error {
	return &Error{HTTPCode: status, Message: msg, Code: code}
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	*te = *err
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && *te == *err
}

// Unauthorized returns a 401 error for requests without a usable credential.
func Unauthorized(msg string) error {
	return newError(http.StatusUnauthorized, "unauthorized", msg)
}

// Forbidden returns a 403 error explaining why the actor was rejected.
func Forbidden(reason string) error {
	return newError(http.StatusForbidden, "forbidden", reason)
}

// NotFound returns a 404 error with a message indicating the given resource.
// Callers use it for rows that are missing, deleted or hidden from the caller
// alike.
func NotFound(resource string) error {
	return newError(http.StatusNotFound, "not_found", resource+" not found.")
}

func UnsupportedMediaType() error {
	return newError(http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported Media Type")
}

func UnknownParameter(param string) error {
	return newError(http.StatusUnprocessableEntity, "unknown_parameter", fmt.Sprintf("Unknown Parameter %q", param))
}

func ValidationTypeError(msg string) error {
	return newError(http.StatusUnprocessableEntity, "validation_type_error", msg)
}

// ValidationError covers payloads that decode but break a business rule,
// such as a blank title after trimming or cancelling an expired subscription.
func ValidationError(msg string) error {
	return newError(http.StatusUnprocessableEntity, "validation_error", msg)
}

func MalformedPayload() error {
	return newError(http.StatusBadRequest, "malformed_payload", "Malformed Payload")
}

func EmptyRequestBody() error {
	return newError(http.StatusBadRequest, "empty_request_body", "Request body can't be empty.")
}
