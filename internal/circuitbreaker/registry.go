package circuitbreaker

import (
	"sync"
	"time"
)

// Registry holds one breaker per Cloud Run service id.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// Get returns the breaker for a service id, creating it on first use.
func (r *Registry) Get(serviceID string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[serviceID]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[serviceID]; exists {
		return cb
	}

	cb = New(r.threshold, r.timeout)
	r.breakers[serviceID] = cb
	return cb
}

// Reset drops all breakers, e.g. after a preview config reload.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}

// States returns the current state of every known breaker.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for serviceID, cb := range r.breakers {
		states[serviceID] = cb.State()
	}
	return states
}
