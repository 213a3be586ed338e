// Package metrics provides real-time metrics collection for the preview
// server.
//
// It uses a channel-based event pipeline to asynchronously collect metrics
// about:
//   - Total requests and unmatched rewrites
//   - Redirect hits per rule
//   - Proxied rewrites per emulated target
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//   - Target health tracking
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via a buffered channel with
// non-blocking semantics; under pressure events are shed rather than slowing
// requests down.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:       metrics.EventResponseCompleted,
//		Target:     "ssr",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
//
// Shutdown drains buffered events so short-lived runs do not lose counts.
package metrics
