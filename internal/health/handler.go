// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auratrack/auratrack-api/internal/core"
)

const checkTimeout = 5 * time.Second

type Status string

const (
	StatusOK           Status = "ok"
	StatusDegraded     Status = "degraded"
	StatusNotReady     Status = "not_ready"
	StatusShuttingDown Status = "shutting_down"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependency is a backing store /readyz waits on.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// Handler answers orchestrator probes. Liveness never touches the stores;
// readiness fails while starting, while draining, or when any store is down.
type Handler struct {
	deps     []Dependency
	starting atomic.Bool
	draining atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) SetReady(ready bool)       { h.starting.Store(!ready) }
func (h *Handler) SetShutdown(shutdown bool) { h.draining.Store(shutdown) }

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.draining.Load() {
		respond(w, Report{Status: StatusShuttingDown})
		return
	}
	respond(w, Report{Status: StatusOK})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.draining.Load():
		respond(w, Report{Status: StatusShuttingDown})
	case h.starting.Load():
		respond(w, Report{Status: StatusNotReady})
	default:
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()
		respond(w, h.Check(ctx))
	}
}

// Check pings every dependency at once and reports them in registration
// order.
func (h *Handler) Check(ctx context.Context) Report {
	report := Report{Status: StatusOK, Checks: make([]Check, len(h.deps))}

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Checks[i] = ping(ctx, dep)
		}()
	}
	wg.Wait()

	for _, c := range report.Checks {
		if !c.Healthy {
			report.Status = StatusDegraded
			break
		}
	}

	return report
}

func ping(ctx context.Context, dep Dependency) Check {
	c := Check{Name: dep.Name}

	if dep.Pinger == nil {
		c.Message = "no probe configured"
		return c
	}

	start := time.Now()
	err := dep.Pinger.Ping(ctx)
	c.LatencyMS = float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		c.Message = "unreachable"
		return c
	}

	c.Healthy = true
	return c
}

func respond(w http.ResponseWriter, report Report) {
	code := http.StatusOK
	if report.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-store")
	core.JSON(w, code, report)
}

type Report struct {
	Status Status  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

type Check struct {
	Name      string  `json:"name"`
	Healthy   bool    `json:"healthy"`
	LatencyMS float64 `json:"latency_ms"`
	Message   string  `json:"message,omitempty"`
}
