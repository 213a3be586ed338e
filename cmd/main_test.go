package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/himanshu810e/firebase-tools/config"
	"github.com/himanshu810e/firebase-tools/internal/circuitbreaker"
	"github.com/himanshu810e/firebase-tools/internal/handler"
	"github.com/himanshu810e/firebase-tools/internal/metrics"
	"github.com/himanshu810e/firebase-tools/internal/serving"
)

func TestCommands(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Commands Suite")
}

var _ = Describe("loadDeployState", func() {
	var (
		cfg *config.Config
		dir string
	)

	writeSnapshot := func(contents string) string {
		path := filepath.Join(dir, "backends.json")
		Expect(os.WriteFile(path, []byte(contents), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = &config.Config{}
	})

	It("should load the project id from the snapshot", func() {
		cfg.Deploy.Snapshot = writeSnapshot(`{
			"projectId": "demo-project",
			"targets": {
				"api": {
					"wantBackend": {"endpoints": [
						{"id": "api", "region": "us-central1", "platform": "gcfv2", "trigger": "https"}
					]}
				}
			}
		}`)

		dctx, lookup, err := loadDeployState(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(dctx.ProjectID).To(Equal("demo-project"))
		Expect(lookup).To(HaveKey("api"))
	})

	It("should prefer the configured project id over the snapshot", func() {
		cfg.Deploy.Snapshot = writeSnapshot(`{"projectId": "demo-project"}`)
		cfg.Deploy.ProjectID = "override-project"

		dctx, _, err := loadDeployState(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(dctx.ProjectID).To(Equal("override-project"))
	})

	It("should return error for a missing snapshot file", func() {
		cfg.Deploy.Snapshot = filepath.Join(dir, "missing.json")

		_, _, err := loadDeployState(cfg)
		Expect(err).To(HaveOccurred())
	})

	It("should return error for malformed snapshot JSON", func() {
		cfg.Deploy.Snapshot = writeSnapshot(`{"projectId": `)

		_, _, err := loadDeployState(cfg)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("buildTargets", func() {
	var (
		log    *slog.Logger
		ctx    context.Context
		cancel context.CancelFunc
		cfg    *config.Config
	)

	BeforeEach(func() {
		log = slog.Default()
		ctx, cancel = context.WithCancel(context.Background())
		cfg = &config.Config{
			Preview: config.PreviewConfig{
				HealthCheckInterval: "5s",
				Targets:             map[string]string{},
			},
		}
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
		}
	})

	Context("valid target URLs", func() {
		It("should build a single target", func() {
			cfg.Preview.Targets = map[string]string{"api": "http://localhost:8080"}

			targets, err := buildTargets(ctx, cfg, log, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(HaveLen(1))
			Expect(targets["api"].ServiceID()).To(Equal("api"))
		})

		It("should build multiple targets", func() {
			cfg.Preview.Targets = map[string]string{
				"api":    "http://localhost:8080",
				"images": "http://localhost:8081",
			}

			targets, err := buildTargets(ctx, cfg, log, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(HaveLen(2))
		})

		It("should return an empty map when no targets are configured", func() {
			targets, err := buildTargets(ctx, cfg, log, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(targets).To(BeEmpty())
		})
	})

	Context("invalid configurations", func() {
		It("should return error for an invalid health check interval", func() {
			cfg.Preview.HealthCheckInterval = "invalid"
			cfg.Preview.Targets = map[string]string{"api": "http://localhost:8080"}

			targets, err := buildTargets(ctx, cfg, log, nil)
			Expect(err).To(HaveOccurred())
			Expect(targets).To(BeNil())
		})

		It("should return error for an unparsable target URL", func() {
			cfg.Preview.Targets = map[string]string{"api": "://invalid"}

			targets, err := buildTargets(ctx, cfg, log, nil)
			Expect(err).To(HaveOccurred())
			Expect(targets).To(BeNil())
		})
	})
})

var _ = Describe("setupRouter", func() {
	var mux *http.ServeMux

	BeforeEach(func() {
		log := slog.Default()
		collector := metrics.NewCollector(10, log)
		site, err := handler.BuildSite(&serving.Config{}, nil)
		Expect(err).NotTo(HaveOccurred())
		preview := handler.New(log, site, http.NotFoundHandler(), circuitbreaker.NewRegistry(3, 0), collector)
		mux = setupRouter(preview, collector)
	})

	It("should serve the health endpoint", func() {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/__/health", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("OK"))
	})

	It("should serve metrics as JSON", func() {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/__/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})

	It("should route everything else through the preview handler", func() {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
