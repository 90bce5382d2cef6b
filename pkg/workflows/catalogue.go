package workflows

import (
	"bytes"
	"fmt"

	"github.com/aretw0/assetflow/pkg/domain"
)

// Catalogue indexes definitions by id, keeping declaration order.
type Catalogue struct {
	defs  map[string]*Definition
	order []string
}

// NewCatalogue indexes defs. Duplicate ids are rejected.
func NewCatalogue(defs ...*Definition) (*Catalogue, error) {
	c := &Catalogue{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("workflow %s declared twice", d.ID)
		}
		c.defs[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// Default loads the embedded catalogue.
func Default(env Env) (*Catalogue, error) {
	defs, err := LoadDefinitions(bytes.NewReader(defaultDefinitions), env)
	if err != nil {
		return nil, err
	}
	return NewCatalogue(defs...)
}

// Load reads the catalogue at path, or the embedded one when path is empty.
func Load(path string, env Env) (*Catalogue, error) {
	if path == "" {
		return Default(env)
	}
	defs, err := LoadFile(path, env)
	if err != nil {
		return nil, err
	}
	return NewCatalogue(defs...)
}

// Get returns a definition or domain.ErrUnknownWorkflow.
func (c *Catalogue) Get(id string) (*Definition, error) {
	d, ok := c.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkflow, id)
	}
	return d, nil
}

// IDs returns the workflow ids in declaration order.
func (c *Catalogue) IDs() []string {
	return append([]string(nil), c.order...)
}

// All returns the definitions in declaration order.
func (c *Catalogue) All() []*Definition {
	out := make([]*Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}
