package proxy

import (
	"net/http/httputil"
	"net/url"
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// Target is a locally emulated rewrite backend the preview server forwards
// to, keyed by the Cloud Run service id it stands in for. It tracks health,
// active connections and an EWMA of response times.
type Target struct {
	serviceID string
	url       *url.URL
	proxy     *httputil.ReverseProxy

	mutex             sync.Mutex
	healthy           bool
	activeConnections int
	ewmaResponseTime  time.Duration
	hasEWMA           bool
}

// New creates a preview target for the given service id and base URL.
// Targets start healthy; the health checker downgrades them.
func New(serviceID string, u *url.URL) *Target {
	return &Target{
		serviceID: serviceID,
		url:       u,
		proxy:     httputil.NewSingleHostReverseProxy(u),
		healthy:   true,
	}
}

// ServiceID returns the Cloud Run service id this target emulates.
func (t *Target) ServiceID() string {
	return t.serviceID
}

// URL returns the target's base URL.
func (t *Target) URL() *url.URL {
	return t.url
}

// ReverseProxy returns the HTTP reverse proxy for this target.
func (t *Target) ReverseProxy() *httputil.ReverseProxy {
	return t.proxy
}

// IncrementConn increments the active connection count.
func (t *Target) IncrementConn() {
	t.mutex.Lock()
	t.activeConnections++
	t.mutex.Unlock()
}

// DecrementConn decrements the active connection count.
func (t *Target) DecrementConn() {
	t.mutex.Lock()
	if t.activeConnections > 0 {
		t.activeConnections--
	}
	t.mutex.Unlock()
}

// ActiveConnections returns the current number of in-flight requests.
func (t *Target) ActiveConnections() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.activeConnections
}

// IsHealthy returns true if the target is currently reachable.
func (t *Target) IsHealthy() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.healthy
}

// SetHealthy updates the target's health status. Returns true if the status
// changed, false if it was already in that state.
func (t *Target) SetHealthy(healthy bool) (changed bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.healthy == healthy {
		return false
	}

	t.healthy = healthy
	return true
}

// RecordResponse folds the latest request duration into the EWMA.
func (t *Target) RecordResponse(duration time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		t.ewmaResponseTime = duration
		t.hasEWMA = true
		return
	}
	// ewma = (1 - α) * ewma + α * latest
	t.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(t.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the exponentially weighted moving average response time,
// or 0 before any response has been recorded.
func (t *Target) EWMATime() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		return 0
	}

	return t.ewmaResponseTime
}
