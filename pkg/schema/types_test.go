package schema

import (
	"fmt"
	"testing"
	"time"
)

func TestStringType(t *testing.T) {
	typ := String()

	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "string")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"hello", false},
		{"", true},
		{"   ", true},
		{42, true},
		{true, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestIntType(t *testing.T) {
	typ := Int()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{42, false},
		{int64(42), false},
		{float64(42), false}, // whole number
		{float64(42.5), true},
		{"42", true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestPositiveType(t *testing.T) {
	typ := Positive()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{1, false},
		{0.5, false},
		{0, true},
		{-3, true},
		{"5", true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestEmailType(t *testing.T) {
	typ := Email()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"ops@example.com", false},
		{"Ops Team <ops@example.com>", true},
		{"not-an-email", true},
		{"", true},
		{7, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestDateType(t *testing.T) {
	typ := Date()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"2024-03-01", false},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{time.Time{}, true},
		{"01/03/2024", true},
		{"", true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestEnumType(t *testing.T) {
	typ := Enum("admin", "staff")

	if typ.Name() != "enum(admin|staff)" {
		t.Errorf("Name() = %q", typ.Name())
	}
	if err := typ.Validate("staff"); err != nil {
		t.Errorf("Validate(staff) error = %v", err)
	}
	if err := typ.Validate("guest"); err == nil {
		t.Error("Validate(guest) should fail")
	}
}

func TestSliceType(t *testing.T) {
	typ := Slice(Positive())

	if typ.Name() != "[positive]" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "[positive]")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{[]int{1, 2}, false},
		{[]any{1.5, 2}, false},
		{[]int{}, true},
		{[]int{1, 0}, true},
		{"nope", true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestOptionalType(t *testing.T) {
	typ := Optional(Email())

	if typ.Name() != "?email" {
		t.Errorf("Name() = %q", typ.Name())
	}
	if err := typ.Validate(""); err != nil {
		t.Errorf("blank optional value should pass: %v", err)
	}
	if err := typ.Validate(nil); err != nil {
		t.Errorf("nil optional value should pass: %v", err)
	}
	if err := typ.Validate("bad"); err == nil {
		t.Error("present optional value must still be validated")
	}
}

func TestCustomType(t *testing.T) {
	serial := Custom("serial", func(v any) error {
		s, ok := v.(string)
		if !ok || len(s) != 8 {
			return fmt.Errorf("must be 8 characters")
		}
		return nil
	})

	if serial.Name() != "serial" {
		t.Errorf("Name() = %q", serial.Name())
	}
	if err := serial.Validate("SN123456"); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := serial.Validate("SN1"); err == nil {
		t.Error("Validate() should fail for short serial")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantErr  bool
	}{
		{"string", "string", false},
		{"int", "int", false},
		{"positive", "positive", false},
		{"email", "email", false},
		{"date", "date", false},
		{"[string]", "[string]", false},
		{"?string", "?string", false},
		{"enum(a|b)", "enum(a|b)", false},
		{"enum()", "", true},
		{"uuid", "", true},
		{"[uuid]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			typ, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && typ.Name() != tt.wantName {
				t.Errorf("ParseType(%q).Name() = %q, want %q", tt.input, typ.Name(), tt.wantName)
			}
		})
	}
}

func TestParseTypeMap(t *testing.T) {
	s, err := ParseTypeMap(map[string]string{
		"email": "email",
		"notes": "?string",
	})
	if err != nil {
		t.Fatalf("ParseTypeMap() error = %v", err)
	}
	if len(s) != 2 {
		t.Errorf("ParseTypeMap() = %d fields, want 2", len(s))
	}

	if _, err := ParseTypeMap(map[string]string{"x": "nope"}); err == nil {
		t.Error("ParseTypeMap() should fail for unknown type")
	}
}

func TestRecordType(t *testing.T) {
	typ, err := ParseType("[{qty:positive, price:positive}]")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	if typ.Name() != "[{price:positive,qty:positive}]" {
		t.Errorf("Name() = %q", typ.Name())
	}

	tests := []struct {
		name    string
		value   any
		wantErr string
	}{
		{"valid", []any{map[string]any{"qty": 2, "price": 100}}, ""},
		{"missing price", []any{map[string]any{"qty": 2}}, "entry 1: price is required"},
		{"zero qty", []any{map[string]any{"qty": 1, "price": 5}, map[string]any{"qty": 0, "price": 5}}, "entry 2: qty must be greater than zero"},
		{"not an object", []any{"x"}, "entry 1: expected object, got string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := typ.Validate(tt.value)
			got := ""
			if err != nil {
				got = err.Error()
			}
			if got != tt.wantErr {
				t.Errorf("Validate() = %q, want %q", got, tt.wantErr)
			}
		})
	}

	if _, err := ParseType("{qty}"); err == nil {
		t.Error("expected error for record field without type")
	}
}
