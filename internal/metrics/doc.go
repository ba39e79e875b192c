// Package metrics provides build and plugin observability.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default, so callers never need nil checks:
//
//	recorder := metrics.NoopRecorder{}
//	if cfg.Daemon.MetricsAddr != "" {
//	    recorder = metrics.NewPrometheusRecorder(registry)
//	}
//
// The Prometheus implementation is served by HTTPHandler in serve mode.
package metrics
