package errors

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xeipuuv/gojsonschema"
)

// FromSchemaResult converts a failed gojsonschema validation into a
// ValidationError, one field entry per schema violation. The field is the
// dotted path reported by the validator.
func FromSchemaResult(result *gojsonschema.Result) *Error {
	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Type:    desc.Type(),
		})
	}
	return NewValidationError("Validation failed", fields)
}

// FromOzzoErrors converts ozzo-validation errors into a ValidationError,
// tagging the message with the supplied context (typically the tool or
// request being validated). Nested struct errors are flattened into dotted
// field paths.
func FromOzzoErrors(errs validation.Errors, context string) *Error {
	fields := flattenOzzo("", errs)
	message := "Validation failed"
	if context != "" {
		message = fmt.Sprintf("Validation failed for %s", context)
	}
	return NewValidationError(message, fields)
}

func flattenOzzo(prefix string, errs validation.Errors) []FieldError {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields []FieldError
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := errs[k].(validation.Errors); ok {
			fields = append(fields, flattenOzzo(path, nested)...)
			continue
		}
		typ := "invalid"
		if obj, ok := errs[k].(validation.Error); ok {
			typ = obj.Code()
		}
		fields = append(fields, FieldError{
			Field:   path,
			Message: errs[k].Error(),
			Type:    typ,
		})
	}
	return fields
}
