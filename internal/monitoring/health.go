package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// staleCycle is how long the loop can go without a completed cycle before
// the endpoint reports degraded.
const staleCycle = 5 * time.Minute

var startTime = time.Now()

// HealthChecker reports liveness of the guardian loop. It is shared between
// account goroutines and the HTTP server, so it carries its own lock.
type HealthChecker struct {
	mu        sync.RWMutex
	lastCycle time.Time
	connected bool
	errors    []string
}

// HealthStatus is the JSON body served on /health.
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastCycle   time.Time `json:"last_cycle"`
	IsConnected bool      `json:"is_connected"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status, code := "healthy", http.StatusOK
	switch {
	case len(h.errors) > 0:
		status, code = "unhealthy", http.StatusInternalServerError
	case !h.connected || time.Since(h.lastCycle) > staleCycle:
		status, code = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastCycle:   h.lastCycle,
		IsConnected: h.connected,
		Uptime:      time.Since(startTime).String(),
		Errors:      h.errors,
	})
}

// MarkCycle records a completed evaluation cycle.
func (h *HealthChecker) MarkCycle() {
	h.mu.Lock()
	h.lastCycle = time.Now()
	h.mu.Unlock()
}

// SetConnected records exchange connectivity state.
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	h.connected = connected
	h.mu.Unlock()
}

// AddError appends an error to the health report, keeping the last ten.
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
	h.mu.Unlock()
}

// ClearErrors resets the error list after recovery.
func (h *HealthChecker) ClearErrors() {
	h.mu.Lock()
	h.errors = nil
	h.mu.Unlock()
}
