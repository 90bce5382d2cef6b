package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/assetflow/pkg/domain"
)

// FieldError is the failure of one field.
type FieldError struct {
	Key    string
	Reason string
	Value  any // nil when the field is missing
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError collects the failures of one validation pass, in field order.
type AggregateError struct {
	Errors []*FieldError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes each field failure to errors.As.
func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// Fields converts the failures to inline field errors.
func (e *AggregateError) Fields() domain.FieldErrors {
	out := make(domain.FieldErrors, len(e.Errors))
	for _, err := range e.Errors {
		out[err.Key] = err.Reason
	}
	return out
}

// FieldErrors returns the failures carried by err, or nil when err is not
// an *AggregateError.
func FieldErrors(err error) []*FieldError {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}
