// Package derive implements the field-dependency engine used by wizards to
// keep derived field values consistent with their sources.
package derive

import (
	"fmt"
	"sync"

	"github.com/aretw0/assetflow/pkg/domain"
)

// Engine maintains an acyclic graph of field-dependency rules.
// Rules are registered at setup time; Recompute is safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	rules []domain.FieldDependencyRule
	// byTrigger indexes rule positions by trigger field.
	byTrigger map[string][]int
}

// New creates an engine and registers the given rules in order.
// It fails with a *domain.ConfigurationError on the first rule that would
// introduce a cycle.
func New(rules ...domain.FieldDependencyRule) (*Engine, error) {
	e := &Engine{byTrigger: make(map[string][]int)}
	for _, r := range rules {
		if err := e.Register(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// MustNew is like New but panics on an invalid rule set.
func MustNew(rules ...domain.FieldDependencyRule) *Engine {
	e, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return e
}

// Register adds a rule to the graph.
// Registration is rejected when the rule is malformed or when any of its
// targets can already reach its trigger (including a target equal to the trigger).
func (e *Engine) Register(rule domain.FieldDependencyRule) error {
	name := rule.Name
	if name == "" {
		name = rule.Trigger
	}
	switch {
	case rule.Trigger == "":
		return &domain.ConfigurationError{Rule: name, Msg: "trigger field is required"}
	case len(rule.Targets) == 0:
		return &domain.ConfigurationError{Rule: name, Msg: "at least one target field is required"}
	case rule.Compute == nil:
		return &domain.ConfigurationError{Rule: name, Msg: "compute function is required"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, target := range rule.Targets {
		if path := e.pathLocked(target, rule.Trigger); path != nil {
			cycle := append([]string{rule.Trigger}, path...)
			return &domain.ConfigurationError{Rule: name, Cycle: cycle}
		}
	}

	rule.Name = name
	rule.Targets = append([]string(nil), rule.Targets...)
	e.rules = append(e.rules, rule)
	e.byTrigger[rule.Trigger] = append(e.byTrigger[rule.Trigger], len(e.rules)-1)
	return nil
}

// MustRegister is like Register but panics on configuration errors.
// Intended for package-level workflow definitions.
func (e *Engine) MustRegister(rule domain.FieldDependencyRule) {
	if err := e.Register(rule); err != nil {
		panic(fmt.Sprintf("derive: %v", err))
	}
}

// pathLocked returns the field path from -> ... -> to following rule edges,
// or nil when to is unreachable.
func (e *Engine) pathLocked(from, to string) []string {
	if from == to {
		return []string{from}
	}
	visited := map[string]bool{from: true}
	parent := make(map[string]string)
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, idx := range e.byTrigger[current] {
			for _, next := range e.rules[idx].Targets {
				if visited[next] {
					continue
				}
				visited[next] = true
				parent[next] = current
				if next == to {
					path := []string{to}
					for p := current; ; p = parent[p] {
						path = append([]string{p}, path...)
						if p == from {
							return path
						}
					}
				}
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// Recompute runs every rule transitively reachable from trigger in topological
// order and returns the merged mapping of all updated target fields.
//
// A rule only runs after every reachable rule producing its trigger, so a
// derived value is never computed against a stale intermediate. Each compute
// sees the values as updated by the rules before it. The input map is not
// modified. Ties are broken by registration order, which keeps the result
// deterministic.
func (e *Engine) Recompute(trigger string, values domain.Values) domain.Values {
	e.mu.RLock()
	defer e.mu.RUnlock()

	order := e.planLocked(trigger)
	if len(order) == 0 {
		return domain.Values{}
	}

	working := values.Clone()
	updates := make(domain.Values)
	for _, idx := range order {
		rule := e.rules[idx]
		computed := rule.Compute(working.Clone())
		for _, target := range rule.Targets {
			// Full replacement: a declared target absent from the result is cleared.
			v := computed[target]
			working[target] = v
			updates[target] = v
		}
	}
	return updates
}

// planLocked collects the rules reachable from trigger and sorts them
// topologically (Kahn's algorithm, lowest registration index first).
func (e *Engine) planLocked(trigger string) []int {
	reachable := make(map[int]bool)
	seenFields := map[string]bool{trigger: true}
	queue := []string{trigger}
	for len(queue) > 0 {
		field := queue[0]
		queue = queue[1:]
		for _, idx := range e.byTrigger[field] {
			if reachable[idx] {
				continue
			}
			reachable[idx] = true
			for _, target := range e.rules[idx].Targets {
				if !seenFields[target] {
					seenFields[target] = true
					queue = append(queue, target)
				}
			}
		}
	}
	if len(reachable) == 0 {
		return nil
	}

	// Rule b depends on rule a when a produces b's trigger.
	indegree := make(map[int]int, len(reachable))
	dependents := make(map[int][]int, len(reachable))
	for a := range reachable {
		for _, target := range e.rules[a].Targets {
			for _, b := range e.byTrigger[target] {
				if reachable[b] {
					dependents[a] = append(dependents[a], b)
					indegree[b]++
				}
			}
		}
	}

	order := make([]int, 0, len(reachable))
	ready := make([]int, 0, len(reachable))
	for idx := range e.rules {
		if reachable[idx] && indegree[idx] == 0 {
			ready = append(ready, idx)
		}
	}
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, b := range dependents[next] {
			indegree[b]--
			if indegree[b] == 0 {
				ready = insertSorted(ready, b)
			}
		}
	}
	return order
}

func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Rules returns a copy of the registered rules in registration order.
func (e *Engine) Rules() []domain.FieldDependencyRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]domain.FieldDependencyRule(nil), e.rules...)
}

// Edge is a trigger -> target dependency, labelled with its rule name.
type Edge struct {
	From string
	To   string
	Rule string
}

// Edges lists every trigger -> target dependency in registration order.
func (e *Engine) Edges() []Edge {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var edges []Edge
	for _, r := range e.rules {
		for _, t := range r.Targets {
			edges = append(edges, Edge{From: r.Trigger, To: t, Rule: r.Name})
		}
	}
	return edges
}
