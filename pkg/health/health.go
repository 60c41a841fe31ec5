// Package health exposes Kubernetes-style liveness and readiness probe
// endpoints. Checks are evaluated on demand when a probe endpoint is hit,
// each under its own timeout, so a stuck dependency surfaces as a slow 503
// rather than wedging the whole probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes a single component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

func (c check) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.fn(ctx)
}

// Probes holds the registered liveness and readiness checks. The service
// starts not-ready; call SetReady(true) once initialization completes and
// SetReady(false) at the start of graceful shutdown to drain traffic.
type Probes struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates an empty, not-ready probe set.
func New() *Probes {
	return &Probes{}
}

// AddLiveness registers a liveness check. Liveness failures mean the process
// itself is broken (leaked goroutines, deadlock) and should be restarted.
func (p *Probes) AddLiveness(name string, timeout time.Duration, fn CheckFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liveness = append(p.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadiness registers a readiness check. Readiness failures mean the
// service should not receive traffic right now (database unreachable,
// dependency down) but may recover without a restart.
func (p *Probes) AddReadiness(name string, timeout time.Duration, fn CheckFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readiness = append(p.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate.
func (p *Probes) SetReady(ready bool) {
	p.ready.Store(ready)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness check passes,
// 503 with per-check failure detail otherwise.
func (p *Probes) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	checks := make([]check, len(p.liveness))
	copy(checks, p.liveness)
	p.mu.RUnlock()

	writeStatus(w, runChecks(r.Context(), checks))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness check passes.
func (p *Probes) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	checks := make([]check, len(p.readiness))
	copy(checks, p.readiness)
	p.mu.RUnlock()

	failures := runChecks(r.Context(), checks)
	if !p.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func runChecks(ctx context.Context, checks []check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if err := c.run(ctx); err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	// The status line is already out; a failed encode means the client went away.
	_ = json.NewEncoder(w).Encode(resp)
}
