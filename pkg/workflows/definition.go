// Package workflows holds the console's wizard definitions: a builder that
// turns field declarations into validated steps, named derived-field
// computations, and a YAML catalogue format with an embedded default.
package workflows

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aretw0/assetflow/pkg/derive"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/schema"
	"github.com/aretw0/assetflow/pkg/wizard"
)

// FieldSpec declares one wizard field.
type FieldSpec struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	// Type is a schema type expression such as "string", "?email" or
	// "[{qty:positive,price:positive}]".
	Type string `yaml:"type" json:"type"`
	Help string `yaml:"help,omitempty" json:"help,omitempty"`
	// Derived fields are computed by dependency rules; hosts render them read-only.
	Derived bool `yaml:"derived,omitempty" json:"derived,omitempty"`
}

// Title returns the label, or the name when no label is set.
func (f FieldSpec) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Field is a shorthand FieldSpec constructor.
func Field(name, typ, label string) FieldSpec {
	return FieldSpec{Name: name, Type: typ, Label: label}
}

// Definition is a complete, validated workflow.
type Definition struct {
	ID          string
	Title       string
	Description string
	// Collection is the resource the workflow creates on submit.
	Collection string
	Steps      []domain.StepSpec
	Rules      []domain.FieldDependencyRule
	Initial    domain.Values
	Fields     map[string]FieldSpec

	engine  *derive.Engine
	schemas map[string]schema.Schema
}

// Engine returns the dependency engine built from Rules.
func (d *Definition) Engine() *derive.Engine { return d.engine }

// StepSchema returns the typed fields of a step.
func (d *Definition) StepSchema(stepID string) schema.Schema { return d.schemas[stepID] }

// Field returns the declaration of a field.
func (d *Definition) Field(name string) (FieldSpec, bool) {
	f, ok := d.Fields[name]
	return f, ok
}

// NewController creates a wizard for the definition. initial overrides the
// definition's own initial values.
func (d *Definition) NewController(initial domain.Values, opts ...wizard.Option) (*wizard.Controller, error) {
	values := d.Initial.Clone()
	maps.Copy(values, initial)
	base := []wizard.Option{wizard.WithDependencies(d.engine), wizard.WithTitle(d.Title)}
	return wizard.New(d.ID, d.Steps, values, append(base, opts...)...)
}

// Builder assembles a Definition step by step. Errors are collected and
// reported by Build.
type Builder struct {
	def  Definition
	errs []error
}

// Define starts a workflow definition.
func Define(id, title string) *Builder {
	return &Builder{def: Definition{
		ID:      id,
		Title:   title,
		Initial: make(domain.Values),
		Fields:  make(map[string]FieldSpec),
		schemas: make(map[string]schema.Schema),
	}}
}

// Describe sets the description.
func (b *Builder) Describe(text string) *Builder {
	b.def.Description = text
	return b
}

// Collection sets the resource created on submit.
func (b *Builder) Collection(name string) *Builder {
	b.def.Collection = name
	return b
}

// Initial merges initial values.
func (b *Builder) Initial(values domain.Values) *Builder {
	maps.Copy(b.def.Initial, values)
	return b
}

// Step appends a step validated against the declared field types.
func (b *Builder) Step(id, title string, fields ...FieldSpec) *Builder {
	stepSchema := make(schema.Schema, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := b.def.Fields[f.Name]; dup {
			b.errs = append(b.errs, fmt.Errorf("step %s: field %s declared twice", id, f.Name))
			continue
		}
		typ, err := schema.ParseType(f.Type)
		if err != nil {
			b.errs = append(b.errs, fmt.Errorf("step %s: field %s: %w", id, f.Name, err))
			continue
		}
		stepSchema[f.Name] = typ
		names = append(names, f.Name)
		b.def.Fields[f.Name] = f
	}
	b.def.schemas[id] = stepSchema

	b.def.Steps = append(b.def.Steps, domain.StepSpec{
		ID:       id,
		Title:    title,
		Fields:   names,
		Validate: schema.Validator(stepSchema, names...),
	})
	return b
}

// StepDescription sets the description of the last step.
func (b *Builder) StepDescription(text string) *Builder {
	if n := len(b.def.Steps); n > 0 {
		b.def.Steps[n-1].Description = text
	}
	return b
}

// Check adds a cross-field validator to the last step. It only reports
// fields that passed their type check.
func (b *Builder) Check(check func(domain.Values) domain.FieldErrors) *Builder {
	n := len(b.def.Steps)
	if n == 0 {
		b.errs = append(b.errs, errors.New("check declared before any step"))
		return b
	}
	typed := b.def.Steps[n-1].Validate
	b.def.Steps[n-1].Validate = func(values domain.Values) domain.FieldErrors {
		errs := typed(values)
		for field, msg := range check(values) {
			if _, failed := errs[field]; !failed {
				errs[field] = msg
			}
		}
		return errs
	}
	return b
}

// Derive registers dependency rules.
func (b *Builder) Derive(rules ...domain.FieldDependencyRule) *Builder {
	b.def.Rules = append(b.def.Rules, rules...)
	return b
}

// Build validates the definition. Cyclic rules fail with a
// *domain.ConfigurationError.
func (b *Builder) Build() (*Definition, error) {
	if b.def.ID == "" {
		return nil, errors.New("workflow id is required")
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("workflow %s: %w", b.def.ID, b.errs[0])
	}
	if len(b.def.Steps) == 0 {
		return nil, fmt.Errorf("workflow %s: at least one step is required", b.def.ID)
	}
	if b.def.Title == "" {
		b.def.Title = b.def.ID
	}
	engine, err := derive.New(b.def.Rules...)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", b.def.ID, err)
	}
	def := b.def
	def.engine = engine
	return &def, nil
}

// DiffersFrom builds a check requiring field to differ from other.
func DiffersFrom(field, other string) func(domain.Values) domain.FieldErrors {
	return func(values domain.Values) domain.FieldErrors {
		a, b := values[field], values[other]
		if a != nil && b != nil && fmt.Sprint(a) == fmt.Sprint(b) {
			return domain.FieldErrors{field: "must differ from " + other}
		}
		return nil
	}
}
