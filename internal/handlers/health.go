package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a downstream dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	started time.Time
	pingers map[string]Pinger
}

// NewHealthHandlers builds the probe handlers. Named pingers gate readiness.
func NewHealthHandlers(pingers map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{
		started: time.Now(),
		pingers: pingers,
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports readiness by pinging each dependency.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.pingers))
	ready := true
	for name, ping := range h.pingers {
		if ping == nil {
			continue
		}
		if err := ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}
	writeJSON(w, status, map[string]any{
		"status": state,
		"checks": checks,
	})
}
