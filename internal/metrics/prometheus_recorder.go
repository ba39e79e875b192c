package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	hookDuration   *prom.HistogramVec
	buildDuration  prom.Histogram
	tokensResolved *prom.CounterVec
	warnings       *prom.CounterVec
	webmentions    *prom.CounterVec
	articles       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		hookDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "blogplugins",
			Name:      "hook_duration_seconds",
			Help:      "Duration of plugin hook executions",
			Buckets:   prom.DefBuckets,
		}, []string{"hook", "plugin"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogplugins",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		tokensResolved: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogplugins",
			Name:      "tokens_resolved_total",
			Help:      "Placeholder tokens resolved by kind",
		}, []string{"kind"}),
		warnings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogplugins",
			Name:      "warnings_total",
			Help:      "Non-fatal warnings by kind",
		}, []string{"kind"}),
		webmentions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogplugins",
			Name:      "webmentions_total",
			Help:      "Webmentions sent or received by result",
		}, []string{"direction", "result"}),
		articles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogplugins",
			Name:      "articles",
			Help:      "Articles processed in the last build",
		}),
	}
	reg.MustRegister(pr.hookDuration, pr.buildDuration, pr.tokensResolved, pr.warnings, pr.webmentions, pr.articles)
	return pr
}

func (p *PrometheusRecorder) ObserveHookDuration(hook, plugin string, d time.Duration) {
	if p == nil {
		return
	}
	p.hookDuration.WithLabelValues(hook, plugin).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) AddTokensResolved(kind string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.tokensResolved.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) IncWarning(kind string) {
	if p == nil {
		return
	}
	p.warnings.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncWebmention(direction string, result ResultLabel) {
	if p == nil {
		return
	}
	p.webmentions.WithLabelValues(direction, string(result)).Inc()
}

func (p *PrometheusRecorder) SetArticles(n int) {
	if p == nil {
		return
	}
	p.articles.Set(float64(n))
}
