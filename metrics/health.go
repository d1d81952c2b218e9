package metrics

import (
	"sync"
	"time"
)

// Status is a component health state.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Component names reported by the proxy.
const (
	ComponentDictionary  = "dictionary"
	ComponentTokenizer   = "tokenizer"
	ComponentIndexEngine = "index_engine"
	ComponentConfig      = "config"
	ComponentService     = "service"
)

// ComponentHealth is one component's reported state.
type ComponentHealth struct {
	Status    Status    `json:"status"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthTracker aggregates per-component states. The overall state is
// the worst among components, except that a single degraded component
// only degrades the service instead of failing it.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{components: make(map[string]ComponentHealth)}
}

// Set records a component's state.
func (t *HealthTracker) Set(component string, status Status, lastError string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.components[component] = ComponentHealth{
		Status:    status,
		LastError: lastError,
		CheckedAt: time.Now(),
	}
}

// Components returns a copy of the current states.
func (t *HealthTracker) Components() map[string]ComponentHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]ComponentHealth, len(t.components))
	for k, v := range t.components {
		out[k] = v
	}
	return out
}

// Overall computes the aggregate state.
func (t *HealthTracker) Overall() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	degraded := 0
	for _, c := range t.components {
		switch c.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			degraded++
		}
	}
	switch {
	case degraded == 0:
		return StatusHealthy
	case degraded == 1:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}
