package handler

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/himanshu810e/firebase-tools/internal/circuitbreaker"
	"github.com/himanshu810e/firebase-tools/internal/metrics"
)

// PreviewHandler serves HTTP requests according to a converted serving
// configuration: redirects first, then header injection, URL normalization
// and rewrites, falling back to the static handler.
type PreviewHandler struct {
	logger    *slog.Logger
	site      atomic.Pointer[Site]
	static    http.Handler
	breakers  *circuitbreaker.Registry
	collector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func New(logger *slog.Logger, site *Site, static http.Handler, breakers *circuitbreaker.Registry, collector *metrics.Collector) *PreviewHandler {
	if static == nil {
		static = http.NotFoundHandler()
	}

	h := &PreviewHandler{
		logger:    logger,
		static:    static,
		breakers:  breakers,
		collector: collector,
	}
	h.site.Store(site)
	return h
}

// Swap replaces the served site, e.g. after a config reload. Circuit
// breakers are reset because rule/target bindings may have changed.
func (h *PreviewHandler) Swap(site *Site) {
	h.site.Store(site)
	if h.breakers != nil {
		h.breakers.Reset()
	}
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)
	reqPath := r.URL.Path

	h.logger.Info("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", reqPath))

	h.emit(metrics.Event{Type: metrics.EventRequestReceived, Timestamp: time.Now()})

	site := h.site.Load()

	for _, rd := range site.redirects {
		if !rd.matcher.Matches(reqPath) {
			continue
		}

		h.applyHeaders(w, site, reqPath)
		code := rd.statusCode
		if code == 0 {
			code = http.StatusMovedPermanently
		}
		http.Redirect(w, r, rd.location, code)

		h.emit(metrics.Event{Type: metrics.EventRedirectServed, Timestamp: time.Now(), Rule: rd.pattern})
		h.emit(metrics.Event{Type: metrics.EventResponseCompleted, Timestamp: time.Now(), StatusCode: code})
		return
	}

	if normalized, ok := normalizePath(site, reqPath); ok {
		location := normalized
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, location, http.StatusMovedPermanently)
		h.emit(metrics.Event{Type: metrics.EventResponseCompleted, Timestamp: time.Now(), StatusCode: http.StatusMovedPermanently})
		return
	}

	h.applyHeaders(w, site, reqPath)

	for i := range site.rewrites {
		rw := &site.rewrites[i]
		if !rw.matcher.Matches(reqPath) {
			continue
		}

		switch rw.kind {
		case rewritePath:
			clone := r.Clone(r.Context())
			clone.URL.Path = rw.path
			h.static.ServeHTTP(w, clone)

		case rewriteDynamicLinks:
			http.Error(w, "dynamic links are not emulated by the local preview", http.StatusNotImplemented)

		case rewriteService:
			h.proxyTo(w, r, rw)
		}
		return
	}

	h.emit(metrics.Event{Type: metrics.EventRewriteUnmatched, Timestamp: time.Now()})
	h.static.ServeHTTP(w, r)
}

func (h *PreviewHandler) proxyTo(w http.ResponseWriter, r *http.Request, rw *rewriteRule) {
	if rw.target == nil {
		h.logger.Warn("No local emulator for rewrite target",
			slog.String("service", rw.serviceID))
		http.Error(w, "no local emulator configured for service", http.StatusBadGateway)
		return
	}

	if !rw.target.IsHealthy() {
		http.Error(w, "emulated service is unavailable", http.StatusServiceUnavailable)
		return
	}

	cb := h.breakers.Get(rw.serviceID)
	if !cb.Allow() {
		http.Error(w, "emulated service is failing, requests are paused", http.StatusServiceUnavailable)
		return
	}

	rw.target.IncrementConn()
	defer rw.target.DecrementConn()

	h.logger.Info("Forwarding rewrite to emulated service",
		slog.String("service", rw.serviceID),
		slog.String("url", rw.target.URL().String()))

	w.Header().Set("X-Preview-Target", rw.serviceID)

	start := time.Now()
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
	rw.target.ReverseProxy().ServeHTTP(wrapped, r)
	duration := time.Since(start)

	if wrapped.statusCode >= http.StatusInternalServerError {
		cb.Failure()
	} else {
		cb.Success()
	}

	rw.target.RecordResponse(duration)
	h.emit(metrics.Event{Type: metrics.EventRewriteProxied, Timestamp: time.Now(), Target: rw.serviceID})
	h.emit(metrics.Event{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Target:     rw.serviceID,
		Duration:   duration,
		StatusCode: wrapped.statusCode,
	})
}

func (h *PreviewHandler) applyHeaders(w http.ResponseWriter, site *Site, reqPath string) {
	for _, rule := range site.headers {
		if !rule.matcher.Matches(reqPath) {
			continue
		}
		for key, value := range rule.headers {
			w.Header().Set(key, value)
		}
	}
}

func (h *PreviewHandler) emit(event metrics.Event) {
	if h.collector == nil {
		return
	}

	h.collector.Emit(event)
}

// normalizePath applies clean-URL and trailing-slash rules, returning the
// redirect location and true when the request path needs normalizing.
func normalizePath(site *Site, reqPath string) (string, bool) {
	normalized := reqPath

	if site.cleanURLs && strings.HasSuffix(normalized, ".html") {
		normalized = strings.TrimSuffix(normalized, ".html")
		if normalized == "" || strings.HasSuffix(normalized, "/index") {
			normalized = strings.TrimSuffix(normalized, "index")
		}
	}

	switch site.trailing {
	case trailingAdd:
		if !strings.HasSuffix(normalized, "/") && path.Ext(normalized) == "" {
			normalized += "/"
		}
	case trailingRemove:
		if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
			normalized = strings.TrimSuffix(normalized, "/")
		}
	}

	return normalized, normalized != reqPath
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}
