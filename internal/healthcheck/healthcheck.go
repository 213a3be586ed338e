package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/himanshu810e/firebase-tools/internal/metrics"
	"github.com/himanshu810e/firebase-tools/internal/proxy"
)

// Watch periodically checks whether a preview target is reachable by sending
// HTTP GET requests to its /health endpoint. Health changes are logged and,
// when a collector is given, reported as metric events.
func Watch(
	ctx context.Context,
	target *proxy.Target,
	interval time.Duration,
	logger *slog.Logger,
	collector *metrics.Collector,
) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("target", target.ServiceID()))
			return

		case <-ticker.C:
			healthURL := target.URL().ResolveReference(&url.URL{Path: "/health"})

			req, err := http.NewRequestWithContext(
				ctx, http.MethodGet, healthURL.String(), nil)
			if err != nil {
				continue
			}

			res, err := client.Do(req)
			if err != nil {
				report(target, false, logger, collector)
				continue
			}
			res.Body.Close()

			report(target, res.StatusCode == http.StatusOK, logger, collector)
		}
	}
}

func report(target *proxy.Target, healthy bool, logger *slog.Logger, collector *metrics.Collector) {
	if !target.SetHealthy(healthy) {
		return
	}

	if healthy {
		logger.Info("Preview target is back up",
			slog.String("target", target.ServiceID()))
	} else {
		logger.Warn("Preview target is down",
			slog.String("target", target.ServiceID()))
	}

	if collector != nil {
		collector.Emit(metrics.Event{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Target:    target.ServiceID(),
			Healthy:   healthy,
		})
	}
}
