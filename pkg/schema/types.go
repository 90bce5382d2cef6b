package schema

import (
	"fmt"
	"net/mail"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/assetflow/pkg/domain"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates non-blank string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// SliceType validates non-empty slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	if rv.Len() == 0 {
		return fmt.Errorf("at least one entry is required")
	}

	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	return nil
}

// PositiveType validates numbers strictly greater than zero.
type PositiveType struct{}

func (t *PositiveType) Name() string { return "positive" }

func (t *PositiveType) Validate(value any) error {
	n, ok := ToFloat(value)
	if !ok {
		return fmt.Errorf("expected number, got %T", value)
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

// EmailType validates an e-mail address.
type EmailType struct{}

func (t *EmailType) Name() string { return "email" }

func (t *EmailType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// DateLayout is the calendar date format accepted by DateType.
const DateLayout = "2006-01-02"

// DateType validates a calendar date (YYYY-MM-DD).
type DateType struct{}

func (t *DateType) Name() string { return "date" }

func (t *DateType) Validate(value any) error {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return errRequired
		}
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			return errRequired
		}
		if _, err := time.Parse(DateLayout, v); err != nil {
			return fmt.Errorf("must be a date (YYYY-MM-DD)")
		}
		return nil
	default:
		return fmt.Errorf("expected date, got %T", value)
	}
}

// EnumType validates a string against a closed set of options.
type EnumType struct {
	options []string
}

func (t *EnumType) Name() string {
	return fmt.Sprintf("enum(%s)", strings.Join(t.options, "|"))
}

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" {
		return errRequired
	}
	for _, opt := range t.options {
		if opt == s {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(t.options, ", "))
}

// OptionalType accepts a missing or blank value and otherwise defers to its element type.
type OptionalType struct {
	elemType Type
}

func (t *OptionalType) Name() string { return "?" + t.elemType.Name() }

func (t *OptionalType) Validate(value any) error {
	if isBlank(value) {
		return nil
	}
	return t.elemType.Validate(value)
}

// RecordType validates an object against a nested schema.
type RecordType struct {
	fields Schema
}

func (t *RecordType) Name() string {
	parts := make([]string, 0, len(t.fields))
	for _, k := range t.fields.Keys() {
		parts = append(parts, k+":"+t.fields[k].Name())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (t *RecordType) Validate(value any) error {
	var m map[string]any
	switch v := value.(type) {
	case map[string]any:
		m = v
	case domain.Values:
		m = v
	default:
		return fmt.Errorf("expected object, got %T", value)
	}
	errs := FieldErrors(ValidateFields(t.fields, m, t.fields.Keys()...))
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s %s", errs[0].Key, errs[0].Reason)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a non-blank string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a non-empty slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Positive creates a validator for numbers greater than zero.
func Positive() Type { return &PositiveType{} }

// Email creates an e-mail address validator.
func Email() Type { return &EmailType{} }

// Date creates a calendar date validator.
func Date() Type { return &DateType{} }

// Enum creates a validator accepting only the given options.
func Enum(options ...string) Type {
	return &EnumType{options: append([]string(nil), options...)}
}

// Optional wraps a type so that missing or blank values pass.
func Optional(elemType Type) Type {
	return &OptionalType{elemType: elemType}
}

// Record creates an object type with the given field schema.
func Record(fields Schema) Type { return &RecordType{fields: fields} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "string", "int", "float", "bool", "positive", "email", "date",
// "enum(a|b)", records such as "{qty:positive,price:float}", slices such as
// "[string]" and the optional prefix "?".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	if strings.HasPrefix(typeStr, "?") {
		elemType, err := ParseType(typeStr[1:])
		if err != nil {
			return nil, err
		}
		return Optional(elemType), nil
	}

	// Handle slice types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemTypeStr := typeStr[1 : len(typeStr)-1]
		elemType, err := ParseType(elemTypeStr)
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	if len(typeStr) > 2 && typeStr[0] == '{' && typeStr[len(typeStr)-1] == '}' {
		fields := make(Schema)
		for _, part := range splitTopLevel(typeStr[1 : len(typeStr)-1]) {
			name, elem, ok := strings.Cut(part, ":")
			if !ok {
				return nil, fmt.Errorf("record field %q: missing type", part)
			}
			elemType, err := ParseType(elem)
			if err != nil {
				return nil, fmt.Errorf("record field %s: %w", strings.TrimSpace(name), err)
			}
			fields[strings.TrimSpace(name)] = elemType
		}
		return Record(fields), nil
	}

	if strings.HasPrefix(typeStr, "enum(") && strings.HasSuffix(typeStr, ")") {
		body := strings.TrimSuffix(strings.TrimPrefix(typeStr, "enum("), ")")
		var options []string
		for _, opt := range strings.Split(body, "|") {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("enum requires at least one option")
		}
		return Enum(options...), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "positive":
		return Positive(), nil
	case "email":
		return Email(), nil
	case "date":
		return Date(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// splitTopLevel splits on commas outside brackets and braces.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, s[start:])
	}
	return parts
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"name": "string", "quantity": "positive", "notes": "?string"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

// ToFloat converts any numeric value to float64.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
