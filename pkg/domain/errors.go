package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReentrant is returned when a submit or bulk action is issued while one is pending.
// Callers ignore it: it is neither user-visible nor a failure.
var ErrReentrant = errors.New("operation already in flight")

// ErrDisposed is returned when a result arrives after its owner was closed.
var ErrDisposed = errors.New("owner disposed, result dropped")

// ErrSubmitting is returned when a wizard is edited while its commit is in flight.
var ErrSubmitting = errors.New("workflow is submitting")

// ErrClosed is returned when a wizard is used after a successful submit or cancel.
var ErrClosed = errors.New("workflow closed")

// ErrNotAtLastStep is returned when Submit is called before the final step.
var ErrNotAtLastStep = errors.New("submit is only allowed on the last step")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownAction is returned when a bulk action id is not registered.
var ErrUnknownAction = errors.New("unknown bulk action")

// ErrUnknownWorkflow is returned when a workflow id is not defined.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// ValidationError blocks a step advance. It is rendered inline next to the
// fields and never surfaced as a notification.
type ValidationError struct {
	Step   string
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("step '%s' is invalid: %s", e.Step, strings.Join(parts, "; "))
}

// CommitError wraps a rejected commit function.
type CommitError struct {
	Workflow string
	Err      error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of '%s' failed: %v", e.Workflow, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// FetchError wraps a rejected fetch. The previous snapshot is kept.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch of '%s' failed: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError wraps a rejected mutation (single or bulk) on a collection.
type MutationError struct {
	Collection string
	Action     string
	Err        error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on '%s' failed: %v", e.Action, e.Collection, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ConfigurationError is a programming error in a workflow definition,
// such as a cyclic field-dependency graph. It is raised at setup time.
type ConfigurationError struct {
	Rule  string
	Cycle []string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("rule '%s' introduces a dependency cycle: %s", e.Rule, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("rule '%s' is invalid: %s", e.Rule, e.Msg)
}
