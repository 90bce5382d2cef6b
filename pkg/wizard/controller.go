package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/derive"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
)

// Controller is the step state machine of one workflow instance.
// It is safe for concurrent use; the lock is released while a commit is awaited.
type Controller struct {
	mu sync.Mutex

	workflow string
	title    string
	steps    []domain.StepSpec
	initial  domain.Values
	inst     *domain.WorkflowInstance
	active   bool

	deps     *derive.Engine
	notifier ports.NotificationSink
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithDependencies attaches the field-dependency engine used by UpdateField.
func WithDependencies(engine *derive.Engine) Option {
	return func(c *Controller) {
		c.deps = engine
	}
}

// WithNotifier sets the sink receiving commit outcomes.
func WithNotifier(sink ports.NotificationSink) Option {
	return func(c *Controller) {
		c.notifier = sink
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTitle sets the human-readable workflow name used in notifications.
func WithTitle(title string) Option {
	return func(c *Controller) {
		c.title = title
	}
}

// New creates a controller positioned on the first step in the editing phase.
// The step list is copied and never changes afterwards.
func New(workflow string, steps []domain.StepSpec, initial domain.Values, opts ...Option) (*Controller, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("workflow %s: at least one step is required", workflow)
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("workflow %s: step id is required", workflow)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("workflow %s: duplicate step id %q", workflow, s.ID)
		}
		seen[s.ID] = true
	}

	c := &Controller{
		workflow: workflow,
		title:    workflow,
		steps:    append([]domain.StepSpec(nil), steps...),
		initial:  initial.Clone(),
		active:   true,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("workflow", workflow)
	c.inst = domain.NewWorkflowInstance(workflow, len(c.steps), c.initial)
	return c, nil
}

// Workflow returns the workflow identifier.
func (c *Controller) Workflow() string { return c.workflow }

// Steps returns a copy of the step list.
func (c *Controller) Steps() []domain.StepSpec {
	return append([]domain.StepSpec(nil), c.steps...)
}

// Snapshot returns a deep copy of the current workflow instance.
func (c *Controller) Snapshot() *domain.WorkflowInstance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inst.Snapshot()
}

// CurrentStep returns the spec of the step being edited.
func (c *Controller) CurrentStep() domain.StepSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.inst.StepIndex]
}

// Active reports whether the controller still accepts results.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// editableLocked checks that the instance can be edited and leaves the
// failed phase, which is not terminal.
func (c *Controller) editableLocked() error {
	if !c.active {
		return domain.ErrClosed
	}
	switch c.inst.Phase {
	case domain.PhaseSubmitting:
		return domain.ErrSubmitting
	case domain.PhaseSubmitted:
		return domain.ErrClosed
	case domain.PhaseFailed:
		c.inst.Phase = domain.PhaseEditing
		c.inst.LastError = ""
	}
	return nil
}

// UpdateField sets a value, clears its error and recomputes dependent fields.
// Derived targets always overwrite earlier (even manual) values and have their
// errors cleared. It returns every field written by the call.
func (c *Controller) UpdateField(name string, value any) (domain.Values, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.inst.Values[name] = value
	delete(c.inst.Errors, name)
	applied := domain.Values{name: value}

	var derived []string
	if c.deps != nil {
		updates := c.deps.Recompute(name, c.inst.Values)
		for target, v := range updates {
			c.inst.Values[target] = v
			delete(c.inst.Errors, target)
			applied[target] = v
			derived = append(derived, target)
		}
		sort.Strings(derived)
	}
	c.mu.Unlock()

	if len(derived) > 0 {
		c.logger.Debug("derived fields recomputed", "field", name, "targets", derived)
	}
	c.emitFieldChange(name, derived)
	return applied, nil
}

// Next validates the current step and advances when it passes.
// On failure the errors are replaced by exactly the validator's result, the
// step index is unchanged and a *domain.ValidationError is returned.
// At the last step a passing validation leaves the index unchanged.
func (c *Controller) Next() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	from := c.inst.StepIndex
	step := c.steps[from]
	errs := step.Check(c.inst.Values.Clone())
	if len(errs) > 0 {
		c.inst.Errors = errs.Clone()
		c.mu.Unlock()

		c.logger.Debug("step blocked by validation", "step", step.ID, "fields", errs.Fields())
		c.emitStep(domain.EventValidationFailed, from, from, errs)
		return &domain.ValidationError{Step: step.ID, Fields: errs}
	}

	c.inst.Errors = make(domain.FieldErrors)
	if from < len(c.steps)-1 {
		c.inst.StepIndex++
	}
	to := c.inst.StepIndex
	c.mu.Unlock()

	if to != from {
		c.logger.Debug("step advanced", "from", c.steps[from].ID, "to", c.steps[to].ID)
		c.emitStep(domain.EventStepAdvance, from, to, nil)
	}
	return nil
}

// Back returns to the previous step (floored at the first one) without
// validating and without clearing values.
func (c *Controller) Back() error {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	from := c.inst.StepIndex
	if from > 0 {
		c.inst.StepIndex--
	}
	to := c.inst.StepIndex
	c.mu.Unlock()

	if to != from {
		c.emitStep(domain.EventStepBack, from, to, nil)
	}
	return nil
}

// Submit commits the workflow values.
//
// It is only valid on the last step. The last step is validated first; a
// failing validation blocks the commit like Next does. A Submit issued while
// another one is in flight returns domain.ErrReentrant without calling commit.
// On failure the instance enters the failed phase with step and values intact,
// the error is notified and returned as a *domain.CommitError; retrying is a
// new Submit. If the controller is cancelled while the commit is in flight,
// the outcome is dropped and domain.ErrDisposed is returned.
func (c *Controller) Submit(ctx context.Context, commit ports.CommitFunc) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	switch c.inst.Phase {
	case domain.PhaseSubmitting:
		c.mu.Unlock()
		c.logger.Debug("submit ignored, commit already in flight")
		return domain.ErrReentrant
	case domain.PhaseSubmitted:
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if !c.inst.AtLastStep() {
		c.mu.Unlock()
		return domain.ErrNotAtLastStep
	}

	step := c.steps[c.inst.StepIndex]
	if errs := step.Check(c.inst.Values.Clone()); len(errs) > 0 {
		c.inst.Errors = errs.Clone()
		c.inst.Phase = domain.PhaseEditing
		c.inst.LastError = ""
		idx := c.inst.StepIndex
		c.mu.Unlock()

		c.emitStep(domain.EventValidationFailed, idx, idx, errs)
		return &domain.ValidationError{Step: step.ID, Fields: errs}
	}

	c.inst.Phase = domain.PhaseSubmitting
	c.inst.LastError = ""
	values := c.inst.Values.Clone()
	// Reset and Restore swap the instance; the result belongs to this one only.
	owner := c.inst
	c.mu.Unlock()

	c.logger.Info("submitting workflow")
	c.emitSubmit(domain.EventSubmitStart, domain.PhaseSubmitting, 0, nil)

	start := time.Now()
	err := commit(ctx, values)
	elapsed := time.Since(start)

	c.mu.Lock()
	if !c.active || c.inst != owner {
		c.mu.Unlock()
		c.logger.Debug("commit resolved after cancel or reset, result dropped", "err", err)
		return domain.ErrDisposed
	}

	if err != nil {
		c.inst.Phase = domain.PhaseFailed
		c.inst.LastError = err.Error()
		c.mu.Unlock()

		c.logger.Warn("commit failed", "err", err, "duration", elapsed)
		c.notify(domain.NotifyError, fmt.Sprintf("%s failed: %v", c.title, err))
		c.emitSubmit(domain.EventSubmitResult, domain.PhaseFailed, elapsed, err)
		return &domain.CommitError{Workflow: c.workflow, Err: err}
	}

	c.inst.Phase = domain.PhaseSubmitted
	c.inst.Errors = make(domain.FieldErrors)
	c.mu.Unlock()

	c.logger.Info("workflow submitted", "duration", elapsed)
	c.notify(domain.NotifySuccess, fmt.Sprintf("%s completed", c.title))
	c.emitSubmit(domain.EventSubmitResult, domain.PhaseSubmitted, elapsed, nil)
	return nil
}

// Cancel closes the wizard. In-flight commits are not interrupted; their
// results are discarded on arrival.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// Reset discards the instance and starts over from the first step with the
// initial values. It also reopens a cancelled controller.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inst = domain.NewWorkflowInstance(c.workflow, len(c.steps), c.initial)
	c.active = true
}

// Restore replaces the instance with a stored snapshot of the same workflow.
// A snapshot captured mid-commit is restored as failed, since its commit can
// no longer be observed.
func (c *Controller) Restore(inst *domain.WorkflowInstance) error {
	if inst == nil {
		return errors.New("restore: nil instance")
	}
	if inst.Workflow != c.workflow {
		return fmt.Errorf("restore: snapshot belongs to %q, not %q", inst.Workflow, c.workflow)
	}
	if inst.StepIndex < 0 || inst.StepIndex >= len(c.steps) {
		return fmt.Errorf("restore: step index %d out of range", inst.StepIndex)
	}

	next := inst.Snapshot()
	next.StepCount = len(c.steps)
	if next.Values == nil {
		next.Values = make(domain.Values)
	}
	if next.Errors == nil {
		next.Errors = make(domain.FieldErrors)
	}
	if next.Phase == "" {
		next.Phase = domain.PhaseEditing
	}
	if next.Phase == domain.PhaseSubmitting {
		next.Phase = domain.PhaseFailed
		next.LastError = "submission interrupted"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inst = next
	return nil
}

func (c *Controller) notify(kind domain.NotificationKind, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(kind, msg)
	}
}
