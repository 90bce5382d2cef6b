package domain

import (
	"reflect"
)

// InstanceDiff represents the changes between two workflow instance snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type InstanceDiff struct {
	Workflow string `json:"workflow"`

	StepIndex *int    `json:"step_index,omitempty"`
	Phase     *Phase  `json:"phase,omitempty"`
	LastError *string `json:"last_error,omitempty"`

	// Values contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Values map[string]any `json:"values,omitempty"`

	// Errors is the full error mapping whenever it changed.
	// A pointer to an empty map means every error was cleared.
	Errors *FieldErrors `json:"errors,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new instance (initial load).
// It returns nil when nothing changed.
func Diff(old, new *WorkflowInstance) *InstanceDiff {
	if new == nil {
		return nil
	}

	diff := &InstanceDiff{
		Workflow: new.Workflow,
	}

	if old == nil || old.StepIndex != new.StepIndex {
		diff.StepIndex = &new.StepIndex
	}
	if old == nil || old.Phase != new.Phase {
		diff.Phase = &new.Phase
	}
	if (old == nil && new.LastError != "") || (old != nil && old.LastError != new.LastError) {
		diff.LastError = &new.LastError
	}

	diff.Values = diffValues(old, new)

	if old == nil {
		if len(new.Errors) > 0 {
			errs := new.Errors.Clone()
			diff.Errors = &errs
		}
	} else if !reflect.DeepEqual(normalizeErrors(old.Errors), normalizeErrors(new.Errors)) {
		errs := new.Errors.Clone()
		diff.Errors = &errs
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffValues(old, new *WorkflowInstance) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Values {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Values {
		oldVal, exists := old.Values[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Values {
		if _, exists := new.Values[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func normalizeErrors(e FieldErrors) FieldErrors {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *InstanceDiff) IsEmpty() bool {
	return d.StepIndex == nil &&
		d.Phase == nil &&
		d.LastError == nil &&
		len(d.Values) == 0 &&
		d.Errors == nil
}
