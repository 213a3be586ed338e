// Package circuitbreaker implements the circuit breaker pattern for the
// preview server's rewrite targets.
//
// A breaker prevents hammering an emulated service that keeps failing. It
// has three states:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Target failing, requests blocked
//   - HALF-OPEN: Testing if the target recovered
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.Get("ssr")
//	if cb.Allow() {
//	    // Forward request...
//	    if err != nil {
//	        cb.Failure()
//	    } else {
//	        cb.Success()
//	    }
//	}
package circuitbreaker
