package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultWarning ResultLabel = "warning"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for builds and plugin hooks.
type Recorder interface {
	ObserveHookDuration(hook, plugin string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	AddTokensResolved(kind string, n int)
	IncWarning(kind string)
	IncWebmention(direction string, result ResultLabel)
	SetArticles(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHookDuration(string, string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) AddTokensResolved(string, int)                     {}
func (NoopRecorder) IncWarning(string)                                 {}
func (NoopRecorder) IncWebmention(string, ResultLabel)                 {}
func (NoopRecorder) SetArticles(int)                                   {}
