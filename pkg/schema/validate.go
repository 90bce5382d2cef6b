package schema

import (
	"errors"
	"sort"

	"github.com/aretw0/assetflow/pkg/domain"
)

var errRequired = errors.New("is required")

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "quantity": Positive(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Returns an error with all validation failures found, ordered by field name.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}
	return ValidateFields(schema, data, schema.Keys()...)
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error unless their type is Optional.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []*FieldError

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &FieldError{
				Key:    fieldName,
				Reason: "not defined in schema",
				Value:  nil,
			})
			continue
		}

		value, fieldExists := data[fieldName]
		if !fieldExists || value == nil {
			if _, optional := fieldType.(*OptionalType); optional {
				continue
			}
			errs = append(errs, &FieldError{
				Key:    fieldName,
				Reason: errRequired.Error(),
				Value:  nil,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &FieldError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// Check validates the given fields (all schema fields when none are given)
// and reports failures as inline field errors.
func Check(schema Schema, data map[string]any, fields ...string) domain.FieldErrors {
	if len(fields) == 0 {
		fields = schema.Keys()
	}
	var aggr *AggregateError
	if errors.As(ValidateFields(schema, data, fields...), &aggr) {
		return aggr.Fields()
	}
	return make(domain.FieldErrors)
}

// Validator adapts a schema into a step validate function over the given fields.
func Validator(schema Schema, fields ...string) func(domain.Values) domain.FieldErrors {
	return func(values domain.Values) domain.FieldErrors {
		return Check(schema, values, fields...)
	}
}

// Keys returns the schema field names in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
