package daemon

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/blogplugins/internal/metrics"
)

var registeredRegistries sync.Map

// registerCollectors adds the daemon counters, plus the Go and process
// collectors once per registry.
func registerCollectors(reg *prom.Registry, cs ...prom.Collector) {
	if _, loaded := registeredRegistries.LoadOrStore(reg, struct{}{}); !loaded {
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	for _, c := range cs {
		// A second daemon on the same registry keeps the first one's counters.
		_ = reg.Register(c)
	}
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Builds            int64      `json:"builds"`
	Failures          int64      `json:"failures"`
	MentionsReceived  int64      `json:"mentions_received"`
	LastBuildAt       *time.Time `json:"last_build_at,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	ReceiveConfigured bool       `json:"receive_configured"`
}

// Handler serves /metrics, /healthz and /status.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(d.opts.Registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /status", d.handleStatus)
	return mux
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Builds:            d.status.builds.Load(),
		Failures:          d.status.failures.Load(),
		MentionsReceived:  d.status.received.Load(),
		LastError:         d.status.lastError.Load().(string),
		ReceiveConfigured: d.receive != nil,
	}
	if ns := d.status.lastBuildAt.Load(); ns > 0 {
		t := time.Unix(0, ns).UTC()
		resp.LastBuildAt = &t
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
