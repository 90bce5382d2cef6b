package domain

// Phase is the lifecycle stage of a WorkflowInstance.
type Phase string

const (
	PhaseEditing    Phase = "editing"    // User is filling in steps
	PhaseSubmitting Phase = "submitting" // Commit is in flight
	PhaseSubmitted  Phase = "submitted"  // Commit succeeded, instance is discarded by the host
	PhaseFailed     Phase = "failed"     // Commit failed, values kept for retry
)

// StepSpec describes one wizard step.
// The Validate function must be pure: it receives all values of the workflow
// and returns the errors of this step's fields (empty when the step passes).
type StepSpec struct {
	ID          string                          `json:"id" yaml:"id"`
	Title       string                          `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                          `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []string                        `json:"fields" yaml:"fields"`
	Validate    func(values Values) FieldErrors `json:"-" yaml:"-"`
}

// Check runs the step validator. A step without a validator always passes.
func (s StepSpec) Check(values Values) FieldErrors {
	if s.Validate == nil {
		return nil
	}
	return s.Validate(values)
}

// WorkflowInstance is the runtime snapshot of a wizard.
type WorkflowInstance struct {
	Workflow  string      `json:"workflow"`
	StepIndex int         `json:"step_index"`
	StepCount int         `json:"step_count"`
	Values    Values      `json:"values"`
	Errors    FieldErrors `json:"errors,omitempty"`
	Phase     Phase       `json:"phase"`

	// LastError carries the message of the last failed commit (Phase == PhaseFailed).
	LastError string `json:"last_error,omitempty"`
}

// NewWorkflowInstance creates an instance at the first step in the editing phase.
func NewWorkflowInstance(workflow string, stepCount int, initial Values) *WorkflowInstance {
	return &WorkflowInstance{
		Workflow:  workflow,
		StepCount: stepCount,
		Values:    initial.Clone(),
		Errors:    make(FieldErrors),
		Phase:     PhaseEditing,
	}
}

// Snapshot returns a copy of the instance that shares no maps with the receiver.
func (w *WorkflowInstance) Snapshot() *WorkflowInstance {
	if w == nil {
		return nil
	}
	next := *w
	next.Values = w.Values.Clone()
	next.Errors = w.Errors.Clone()
	return &next
}

// AtLastStep reports whether the instance sits on its final step.
func (w *WorkflowInstance) AtLastStep() bool {
	return w.StepIndex == w.StepCount-1
}
