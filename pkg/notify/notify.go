// Package notify provides NotificationSink implementations: a structured-log
// sink for servers, a recorder for tests and session hosting, and fan-out.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
)

// Func adapts an ordinary function to ports.NotificationSink.
type Func func(kind domain.NotificationKind, message string)

// Notify calls f.
func (f Func) Notify(kind domain.NotificationKind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard ports.NotificationSink = Func(func(domain.NotificationKind, string) {})

// LogSink writes notifications to a slog logger.
// Errors are logged at warn level, everything else at info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements ports.NotificationSink.
func (s *LogSink) Notify(kind domain.NotificationKind, message string) {
	level := slog.LevelInfo
	if kind == domain.NotifyError {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, message, "kind", string(kind))
}

// Notification is one recorded notification.
type Notification struct {
	Kind    domain.NotificationKind `json:"kind"`
	Message string                  `json:"message"`
}

// Recorder keeps notifications in memory until drained.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements ports.NotificationSink.
func (r *Recorder) Notify(kind domain.NotificationKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Notification{Kind: kind, Message: message})
}

// Entries returns a copy of all recorded notifications.
func (r *Recorder) Entries() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.entries...)
}

// Drain returns the recorded notifications and forgets them.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// Count returns how many notifications of kind were recorded.
func (r *Recorder) Count(kind domain.NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type multi []ports.NotificationSink

func (m multi) Notify(kind domain.NotificationKind, message string) {
	for _, s := range m {
		s.Notify(kind, message)
	}
}

// Multi fans a notification out to every non-nil sink.
func Multi(sinks ...ports.NotificationSink) ports.NotificationSink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
