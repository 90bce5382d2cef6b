package observability

import (
	"log/slog"

	"github.com/aretw0/assetflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failures at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			logger.Debug(string(e.Type), "workflow", e.Workflow, "from", e.From, "to", e.To, "errors", len(e.Errors))
		},
		OnFieldChange: func(e *domain.FieldEvent) {
			logger.Debug(string(e.Type), "workflow", e.Workflow, "field", e.Field, "derived", e.Derived)
		},
		OnSubmitStart: func(e *domain.SubmitEvent) {
			logger.Debug(string(e.Type), "workflow", e.Workflow)
		},
		OnSubmitResult: func(e *domain.SubmitEvent) {
			if e.Err != nil {
				logger.Warn(string(e.Type), "workflow", e.Workflow, "phase", e.Phase, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.Debug(string(e.Type), "workflow", e.Workflow, "phase", e.Phase, "duration", e.Duration)
		},
		OnFetch: func(e *domain.FetchEvent) {
			if e.Err != nil && !e.Stale && !e.Dropped {
				logger.Warn(string(e.Type), "collection", e.Collection, "generation", e.Generation, "err", e.Err)
				return
			}
			logger.Debug(string(e.Type), "collection", e.Collection, "generation", e.Generation,
				"count", e.Count, "stale", e.Stale, "dropped", e.Dropped)
		},
		OnMutation: func(e *domain.MutationEvent) {
			if e.Err != nil {
				logger.Warn(string(e.Type), "collection", e.Collection, "action", e.Action, "err", e.Err)
				return
			}
			logger.Debug(string(e.Type), "collection", e.Collection, "action", e.Action, "count", e.Count)
		},
	}
}
