package main

import (
	"net/http"

	"github.com/himanshu810e/firebase-tools/internal/handler"
	"github.com/himanshu810e/firebase-tools/internal/metrics"
)

func setupRouter(previewHandler *handler.PreviewHandler, metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", previewHandler.ServeHTTP)
	mux.HandleFunc("/__/metrics", metricsCollector.Handler())
	mux.HandleFunc("/__/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
