// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
)

const probeTimeout = 3 * time.Second

type AuditCounter interface {
	Count(
		ctx context.Context,
		id *authz.Identity,
		filter audit.Filter,
	) (int, error)
}

type UserCounter interface {
	CountUsers(ctx context.Context, id *authz.Identity) (int, error)
}

// Dependency is a backing store shown on the ops overview. Pool returns a
// JSON-ready snapshot of its connection pool and may be nil.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
	Pool func() any
}

// Handler serves the admin ops overview over plain REST, next to the
// GraphQL API. Identity resolution happens upstream; every count below is
// still authorized against the caller.
type Handler struct {
	deps  []Dependency
	users UserCounter
	audit AuditCounter
}

func NewHandler(users UserCounter, auditLog AuditCounter, deps ...Dependency) *Handler {
	return &Handler{deps: deps, users: users, audit: auditLog}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(adminOnly)

		r.Get("/", h.Overview)
		r.Get("/runtime", h.Runtime)
	})
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := h.totals(ctx, authz.FromContext(ctx))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, Overview{
		Totals:       totals,
		Dependencies: h.probe(ctx),
		Runtime:      readRuntime(),
	})
}

func (h *Handler) Runtime(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntime())
}

func (h *Handler) totals(ctx context.Context, id *authz.Identity) (Totals, error) {
	t := Totals{AuditByAction: make(map[audit.Action]int, len(audit.Actions))}

	users, err := h.users.CountUsers(ctx, id)
	if err != nil {
		return t, err
	}
	t.Users = users

	if t.AuditEntries, err = h.audit.Count(ctx, id, audit.Filter{}); err != nil {
		return t, err
	}

	for _, action := range audit.Actions {
		n, err := h.audit.Count(ctx, id, audit.Filter{Action: &action})
		if err != nil {
			return t, err
		}
		t.AuditByAction[action] = n
	}

	return t, nil
}

func (h *Handler) probe(ctx context.Context) []DependencyStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out := make([]DependencyStatus, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status := DependencyStatus{Name: dep.Name, Healthy: dep.Ping != nil}
			if dep.Ping != nil {
				status.Healthy = dep.Ping(ctx) == nil
			}
			if dep.Pool != nil {
				status.Pool = dep.Pool()
			}
			out[i] = status
		}()
	}
	wg.Wait()

	return out
}

func readRuntime() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapAlloc:  mem.HeapAlloc,
		Sys:        mem.Sys,
		NumGC:      mem.NumGC,
	}
}

// PostgresPool adapts sql.DBStats for the overview.
func PostgresPool(stats func() sql.DBStats) func() any {
	return func() any {
		s := stats()
		return map[string]any{
			"max_open":      s.MaxOpenConnections,
			"open":          s.OpenConnections,
			"in_use":        s.InUse,
			"idle":          s.Idle,
			"wait_count":    s.WaitCount,
			"wait_duration": s.WaitDuration.String(),
		}
	}
}

func RedisPool(stats func() *redis.PoolStats) func() any {
	return func() any {
		s := stats()
		return map[string]any{
			"hits":        s.Hits,
			"misses":      s.Misses,
			"timeouts":    s.Timeouts,
			"total_conns": s.TotalConns,
			"idle_conns":  s.IdleConns,
			"stale_conns": s.StaleConns,
		}
	}
}

type Overview struct {
	Totals       Totals             `json:"totals"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Runtime      RuntimeStats       `json:"runtime"`
}

type Totals struct {
	Users         int                  `json:"users"`
	AuditEntries  int                  `json:"audit_entries"`
	AuditByAction map[audit.Action]int `json:"audit_by_action"`
}

type DependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Pool    any    `json:"pool,omitempty"`
}

type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	Sys        uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
}
