package domain

import (
	"maps"
	"sort"
)

// Values holds the field values of a workflow, keyed by field name.
type Values map[string]any

// Clone returns a shallow copy of the values.
// Nil receivers produce an empty, writable map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

// String returns the value of a field as a string, or "" if absent or not a string.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Keys returns the field names in lexical order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FieldErrors maps a field name to a human-readable validation message.
type FieldErrors map[string]string

// Clone returns a copy of the errors.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	maps.Copy(out, e)
	return out
}

// Fields returns the names of the failing fields in lexical order.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
