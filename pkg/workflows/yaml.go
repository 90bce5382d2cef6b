package workflows

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/schema"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDefinitions []byte

// File is the YAML document format.
type File struct {
	Workflows []WorkflowDoc `yaml:"workflows"`
}

// WorkflowDoc declares one workflow.
type WorkflowDoc struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Collection  string         `yaml:"collection"`
	Initial     map[string]any `yaml:"initial"`
	Steps       []StepDoc      `yaml:"steps"`
	Rules       []RuleDoc      `yaml:"rules"`
}

// StepDoc declares one step.
type StepDoc struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Fields      []FieldSpec `yaml:"fields"`
	// Schema declares plain fields as name: type pairs. They follow Fields
	// in lexical order.
	Schema schema.Schema `yaml:"schema"`
	// DiffersFrom maps a field to another field it must not equal.
	DiffersFrom map[string]string `yaml:"differs_from"`
}

// RuleDoc declares one dependency rule backed by a named computation.
type RuleDoc struct {
	Name    string   `yaml:"name"`
	Trigger string   `yaml:"trigger"`
	Targets []string `yaml:"targets"`
	Compute string   `yaml:"compute"`
	Params  Params   `yaml:"params"`
}

func (doc StepDoc) fields() []FieldSpec {
	fields := append([]FieldSpec(nil), doc.Fields...)
	for _, name := range doc.Schema.Keys() {
		fields = append(fields, FieldSpec{Name: name, Type: doc.Schema[name].Name()})
	}
	return fields
}

// LoadDefinitions parses a YAML catalogue.
func LoadDefinitions(r io.Reader, env Env) ([]*Definition, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse workflows: %w", err)
	}
	if len(file.Workflows) == 0 {
		return nil, fmt.Errorf("parse workflows: no workflow declared")
	}

	defs := make([]*Definition, 0, len(file.Workflows))
	for _, doc := range file.Workflows {
		def, err := doc.Build(env)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadFile parses the catalogue at path.
func LoadFile(path string, env Env) ([]*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDefinitions(f, env)
}

// Build turns the document into a Definition.
func (doc WorkflowDoc) Build(env Env) (*Definition, error) {
	b := Define(doc.ID, doc.Title).
		Describe(doc.Description).
		Collection(doc.Collection).
		Initial(domain.Values(doc.Initial))

	for _, step := range doc.Steps {
		b.Step(step.ID, step.Title, step.fields()...).StepDescription(step.Description)
		for field, other := range step.DiffersFrom {
			b.Check(DiffersFrom(field, other))
		}
	}

	for i, r := range doc.Rules {
		factory, ok := Computations[r.Compute]
		if !ok {
			return nil, fmt.Errorf("workflow %s: rule %d: unknown computation %q", doc.ID, i+1, r.Compute)
		}
		compute, err := factory(env, r.Targets, r.Params)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: rule %d (%s): %w", doc.ID, i+1, r.Compute, err)
		}
		b.Derive(domain.FieldDependencyRule{
			Name:    r.Name,
			Trigger: r.Trigger,
			Targets: r.Targets,
			Compute: compute,
		})
	}
	return b.Build()
}
