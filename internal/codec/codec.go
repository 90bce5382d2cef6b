// Package codec converts between loosely typed JSON-shaped maps and entity
// structs, using the entities' json tags as field names.
package codec

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

func decoder(out any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
}

// Decode converts input (usually a map[string]any produced by encoding/json)
// into T. Numbers given as strings and vice versa are accepted.
func Decode[T any](input any) (T, error) {
	var out T
	dec, err := decoder(&out)
	if err != nil {
		return out, err
	}
	if err := dec.Decode(input); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}

// DecodeSlice decodes every element of a slice.
func DecodeSlice[T any](input []any) ([]T, error) {
	out := make([]T, 0, len(input))
	for i, raw := range input {
		v, err := Decode[T](raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ToMap converts a struct into a map keyed by its json field names.
func ToMap(v any) (map[string]any, error) {
	out := make(map[string]any)
	dec, err := decoder(&out)
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// Merge decodes base, overlays patch and decodes the result back into T.
func Merge[T any](base T, patch map[string]any) (T, error) {
	m, err := ToMap(base)
	if err != nil {
		return base, err
	}
	for k, v := range patch {
		m[k] = v
	}
	return Decode[T](m)
}
