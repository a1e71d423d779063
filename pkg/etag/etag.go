// Package etag writes JSON responses with a strong ETag and answers matching
// If-None-Match requests with 304 Not Modified.
package etag

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	HeaderETag        = "ETag"
	HeaderIfNoneMatch = "If-None-Match"
)

// JSON responds with payload as JSON, tagged with the hash of the encoded
// body.
func JSON(c echo.Context, status int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WithStack(err)
	}

	tag := Of(body)
	c.Response().Header().Set(HeaderETag, tag)

	if Matches(c.Request().Header.Get(HeaderIfNoneMatch), tag) {
		return c.NoContent(http.StatusNotModified)
	}

	return c.JSONBlob(status, body)
}

// Of returns the quoted strong ETag for body.
func Of(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Matches reports whether an If-None-Match header value matches tag. Weak
// validators compare equal to their strong form.
func Matches(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" || tag == "" {
		return false
	}
	if header == "*" {
		return true
	}

	current := normalize(tag)
	for _, part := range strings.Split(header, ",") {
		if normalize(part) == current {
			return true
		}
	}
	return false
}

func normalize(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "W/")
}
