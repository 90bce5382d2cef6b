package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON serializes the schema as a map of field names to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := s.names()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON parses a map of field names to type strings.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return s.parse(raw)
}

// MarshalYAML renders the schema in the same shape as JSON.
func (s Schema) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.names()
}

// UnmarshalYAML parses a mapping of field names to type strings, as written
// in workflow files: {qty: positive, email: "?email"}.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("schema: line %d: %w", value.Line, err)
	}
	return s.parse(raw)
}

func (s Schema) names() (map[string]string, error) {
	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}

func (s *Schema) parse(raw map[string]string) error {
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
