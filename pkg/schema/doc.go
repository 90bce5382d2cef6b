// Package schema provides the field constraints used by wizard step validators.
//
// It defines a small type system with built-in types (string, int, float, bool,
// positive, email, date, enum), slices, optional fields and custom validators.
// Schemas map field names to types and report failures either as an aggregate
// error or as inline field errors ready for a wizard step.
//
// Basic usage:
//
//	s := schema.Schema{
//	    "name":     schema.String(),
//	    "quantity": schema.Positive(),
//	    "notes":    schema.Optional(schema.String()),
//	}
//
//	step := domain.StepSpec{
//	    ID:       "details",
//	    Fields:   []string{"name", "quantity", "notes"},
//	    Validate: schema.Validator(s, "name", "quantity", "notes"),
//	}
//
// Schemas can be parsed from type strings, which is how declarative workflow
// definitions describe their fields:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "email":  "email",
//	    "role":   "enum(admin|manager|staff)",
//	    "serial": "?string",
//	})
//
// A Schema marshals to and from JSON and YAML in that same name-to-type form.
package schema
