package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	editing := PhaseEditing
	failed := PhaseFailed

	tests := []struct {
		name     string
		old      *WorkflowInstance
		new      *WorkflowInstance
		wantDiff *InstanceDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &WorkflowInstance{
				Workflow: "asset_intake",
				Phase:    PhaseEditing,
				Values:   Values{"name": "Laptop"},
			},
			wantDiff: &InstanceDiff{
				Workflow:  "asset_intake",
				StepIndex: &[]int{0}[0],
				Phase:     &editing,
				Values:    map[string]any{"name": "Laptop"},
			},
		},
		{
			name: "No Changes",
			old: &WorkflowInstance{
				Workflow: "asset_intake",
				Phase:    PhaseEditing,
				Values:   Values{"name": "Laptop"},
			},
			new: &WorkflowInstance{
				Workflow: "asset_intake",
				Phase:    PhaseEditing,
				Values:   Values{"name": "Laptop"},
				Errors:   FieldErrors{},
			},
			wantDiff: nil,
		},
		{
			name: "Step Advance",
			old:  &WorkflowInstance{Workflow: "po", StepIndex: 0, Phase: PhaseEditing},
			new:  &WorkflowInstance{Workflow: "po", StepIndex: 1, Phase: PhaseEditing},
			wantDiff: &InstanceDiff{
				Workflow:  "po",
				StepIndex: &[]int{1}[0],
			},
		},
		{
			name: "Commit Failure",
			old:  &WorkflowInstance{Workflow: "po", StepIndex: 2, Phase: PhaseSubmitting},
			new:  &WorkflowInstance{Workflow: "po", StepIndex: 2, Phase: PhaseFailed, LastError: "boom"},
			wantDiff: &InstanceDiff{
				Workflow:  "po",
				Phase:     &failed,
				LastError: &[]string{"boom"}[0],
			},
		},
		{
			name: "Values Added, Modified and Deleted",
			old: &WorkflowInstance{
				Values: Values{"a": 1, "b": "old", "gone": true},
			},
			new: &WorkflowInstance{
				Values: Values{"a": 1, "b": "new", "c": true},
			},
			wantDiff: &InstanceDiff{
				Values: map[string]any{"b": "new", "c": true, "gone": nil},
			},
		},
		{
			name: "Errors Cleared",
			old: &WorkflowInstance{
				Errors: FieldErrors{"name": "required"},
			},
			new: &WorkflowInstance{
				Errors: FieldErrors{},
			},
			wantDiff: &InstanceDiff{
				Errors: &FieldErrors{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}

			if got.Workflow != tt.wantDiff.Workflow {
				t.Errorf("Diff().Workflow = %v, want %v", got.Workflow, tt.wantDiff.Workflow)
			}
			if !reflect.DeepEqual(got.Values, tt.wantDiff.Values) {
				t.Errorf("Diff().Values = %v, want %v", got.Values, tt.wantDiff.Values)
			}
			if !reflect.DeepEqual(got.Errors, tt.wantDiff.Errors) {
				t.Errorf("Diff().Errors = %v, want %v", got.Errors, tt.wantDiff.Errors)
			}
			if !equalPtr(got.StepIndex, tt.wantDiff.StepIndex) {
				t.Errorf("Diff().StepIndex = %v, want %v", got.StepIndex, tt.wantDiff.StepIndex)
			}
			if !equalPtr(got.Phase, tt.wantDiff.Phase) {
				t.Errorf("Diff().Phase = %v, want %v", got.Phase, tt.wantDiff.Phase)
			}
			if !equalPtr(got.LastError, tt.wantDiff.LastError) {
				t.Errorf("Diff().LastError = %v, want %v", got.LastError, tt.wantDiff.LastError)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Unchanged Values Omitted", func(t *testing.T) {
		s1 := &WorkflowInstance{Values: Values{"a": 1}, Phase: PhaseEditing}
		s2 := &WorkflowInstance{Values: Values{"a": 1}, Phase: PhaseSubmitting}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"values"`) {
			t.Errorf("JSON should not contain 'values' when unchanged, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &WorkflowInstance{Values: Values{"a": 1, "b": 2}}
		s2 := &WorkflowInstance{Values: Values{"a": 1}}
		diff := Diff(s1, s2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})

	t.Run("Cleared Errors Serialized", func(t *testing.T) {
		s1 := &WorkflowInstance{Errors: FieldErrors{"a": "required"}}
		s2 := &WorkflowInstance{Errors: FieldErrors{}}
		bytes, _ := json.Marshal(Diff(s1, s2))
		if !strings.Contains(string(bytes), `"errors":{}`) {
			t.Errorf("JSON should contain empty errors, got: %s", string(bytes))
		}
	})
}

func TestWorkflowInstance_Snapshot(t *testing.T) {
	inst := NewWorkflowInstance("w", 2, Values{"a": 1})
	inst.Errors["a"] = "bad"

	snap := inst.Snapshot()
	snap.Values["a"] = 2
	snap.Errors["a"] = "worse"

	if inst.Values["a"] != 1 || inst.Errors["a"] != "bad" {
		t.Errorf("Snapshot shares maps with the source: %+v", inst)
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
