package observability

import (
	"net/http"
	"strconv"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assetflow"

// Metrics holds the console collectors.
type Metrics struct {
	StepTransitions    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	FieldChanges       *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmitDuration     *prometheus.HistogramVec
	Fetches            *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	Mutations          *prometheus.CounterVec
	MutatedEntities    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_step_transitions_total",
			Help:      "Wizard step transitions by direction.",
		}, []string{"workflow", "direction"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_validation_failures_total",
			Help:      "Step validations that blocked navigation or submission.",
		}, []string{"workflow", "step"}),
		FieldChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_field_changes_total",
			Help:      "Field edits, labelled by whether they triggered derived fields.",
		}, []string{"workflow", "derived"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_submissions_total",
			Help:      "Workflow commits by outcome.",
		}, []string{"workflow", "outcome"}),
		SubmitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wizard_submit_duration_seconds",
			Help:      "Duration of workflow commits.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"workflow"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_fetches_total",
			Help:      "Collection fetches by outcome (ok, error, stale, dropped).",
		}, []string{"collection", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_fetch_duration_seconds",
			Help:      "Duration of collection fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_mutations_total",
			Help:      "Mutations by action and outcome.",
		}, []string{"collection", "action", "outcome"}),
		MutatedEntities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_mutated_entities_total",
			Help:      "Entities touched by successful mutations.",
		}, []string{"collection", "action"}),
	}
	reg.MustRegister(
		m.StepTransitions, m.ValidationFailures, m.FieldChanges,
		m.Submissions, m.SubmitDuration,
		m.Fetches, m.FetchDuration,
		m.Mutations, m.MutatedEntities,
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(e *domain.StepEvent) {
			switch e.Type {
			case domain.EventValidationFailed:
				m.ValidationFailures.WithLabelValues(e.Workflow, strconv.Itoa(e.From)).Inc()
			case domain.EventStepAdvance:
				m.StepTransitions.WithLabelValues(e.Workflow, "forward").Inc()
			case domain.EventStepBack:
				m.StepTransitions.WithLabelValues(e.Workflow, "back").Inc()
			}
		},
		OnFieldChange: func(e *domain.FieldEvent) {
			m.FieldChanges.WithLabelValues(e.Workflow, strconv.FormatBool(len(e.Derived) > 0)).Inc()
		},
		OnSubmitResult: func(e *domain.SubmitEvent) {
			m.Submissions.WithLabelValues(e.Workflow, outcome(e.Err)).Inc()
			m.SubmitDuration.WithLabelValues(e.Workflow).Observe(e.Duration.Seconds())
		},
		OnFetch: func(e *domain.FetchEvent) {
			result := outcome(e.Err)
			switch {
			case e.Dropped:
				result = "dropped"
			case e.Stale:
				result = "stale"
			}
			m.Fetches.WithLabelValues(e.Collection, result).Inc()
			m.FetchDuration.WithLabelValues(e.Collection).Observe(e.Duration.Seconds())
		},
		OnMutation: func(e *domain.MutationEvent) {
			m.Mutations.WithLabelValues(e.Collection, e.Action, outcome(e.Err)).Inc()
			if e.Err == nil {
				m.MutatedEntities.WithLabelValues(e.Collection, e.Action).Add(float64(e.Count))
			}
		},
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
