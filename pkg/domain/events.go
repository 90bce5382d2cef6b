package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepAdvance      EventType = "step_advance"
	EventStepBack         EventType = "step_back"
	EventValidationFailed EventType = "validation_failed"
	EventFieldChange      EventType = "field_change"
	EventSubmitStart      EventType = "submit_start"
	EventSubmitResult     EventType = "submit_result"
	EventFetch            EventType = "fetch"
	EventMutation         EventType = "mutation"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StepEvent reports navigation between steps and blocked advances.
type StepEvent struct {
	EventBase
	Workflow string      `json:"workflow"`
	From     int         `json:"from"`
	To       int         `json:"to"`
	Errors   FieldErrors `json:"errors,omitempty"`
}

// FieldEvent reports an edited field and the derived targets it recomputed.
type FieldEvent struct {
	EventBase
	Workflow string   `json:"workflow"`
	Field    string   `json:"field"`
	Derived  []string `json:"derived,omitempty"`
}

// SubmitEvent reports the start and the outcome of a commit.
type SubmitEvent struct {
	EventBase
	Workflow string        `json:"workflow"`
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// FetchEvent reports a resolved fetch. Stale results were discarded.
type FetchEvent struct {
	EventBase
	Collection string        `json:"collection"`
	Generation uint64        `json:"generation"`
	Stale      bool          `json:"stale,omitempty"`
	Dropped    bool          `json:"dropped,omitempty"`
	Count      int           `json:"count"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// MutationEvent reports a resolved single or bulk mutation.
type MutationEvent struct {
	EventBase
	Collection string        `json:"collection"`
	Action     string        `json:"action"`
	Count      int           `json:"count"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnStep         func(*StepEvent)
	OnFieldChange  func(*FieldEvent)
	OnSubmitStart  func(*SubmitEvent)
	OnSubmitResult func(*SubmitEvent)
	OnFetch        func(*FetchEvent)
	OnMutation     func(*MutationEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStep:         chain(h.OnStep, other.OnStep),
		OnFieldChange:  chain(h.OnFieldChange, other.OnFieldChange),
		OnSubmitStart:  chain(h.OnSubmitStart, other.OnSubmitStart),
		OnSubmitResult: chain(h.OnSubmitResult, other.OnSubmitResult),
		OnFetch:        chain(h.OnFetch, other.OnFetch),
		OnMutation:     chain(h.OnMutation, other.OnMutation),
	}
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
