/*
Package observability turns controller lifecycle events into Prometheus metrics
and structured log lines.

Both are exposed as domain.LifecycleHooks, so hosts combine them with Merge
and pass the result to the wizard, list and reconcile constructors:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
