package binder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
)

const (
	email    = "email"
	gt       = "gt"
	mx       = "max"
	mn       = "min"
	oneof    = "oneof"
	required = "required"
	urlTag   = "url"
)

// comparisons maps a bound tag to the phrase used in its message.
var comparisons = map[string]string{
	gt: "greater than",
	mx: "less than or equal to",
	mn: "greater than or equal to",
}

func formatUnmarshalTypeError(err *json.UnmarshalTypeError) string {
	return fmt.Sprintf("%q should be of type %s", strings.Trim(err.Field, "."), err.Type)
}

func formatSchemaConversionError(err schema.ConversionError) string {
	return fmt.Sprintf("%q should be of type %s", err.Key, err.Type)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case required:
		return fmt.Sprintf("%q is required", field)
	case email:
		return fmt.Sprintf("%q is not a valid email", field)
	case urlTag:
		return fmt.Sprintf("%q must be an http or https URL", field)
	case oneof:
		quoted := strings.Fields(err.Param())
		for i, p := range quoted {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		return fmt.Sprintf("%q must be one of the following: %s", field, strings.Join(quoted, ", "))
	case gt, mx, mn:
		return formatBound(field, comparisons[err.Tag()], err.Param(), err.Kind())
	default:
		return fmt.Sprintf("%q failed the %q check", field, err.Tag())
	}
}

// formatBound renders a numeric bound directly and a length bound with its
// unit, so "title" max=200 reads as a character count while "price" gt=0
// reads as a value.
func formatBound(field, comparison, param string, kind reflect.Kind) string {
	unit := lengthUnit(kind)
	if unit == "" {
		return fmt.Sprintf("%q must be %s %s", field, comparison, param)
	}
	if param != "1" {
		unit += "s"
	}
	return fmt.Sprintf("%q length must be %s %s %s", field, comparison, param, unit)
}

func lengthUnit(kind reflect.Kind) string {
	//exhaustive:ignore
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return "element"
	default:
		return "character"
	}
}
