package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/himanshu810e/firebase-tools/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":5000"
  environment: "dev"

logging:
  level: "info"

deploy:
  project_id: "demo-project"
  snapshot: "backends.json"

preview:
  health_check_interval: "2s"
  targets:
    ssr: "http://localhost:8081"

hosting:
  clean_urls: true
  trailing_slash: false
  app_association: "AUTO"
  rewrites:
    - glob: "/api/**"
      function:
        id: "api"
    - glob: "**"
      destination: "/index.html"
  redirects:
    - glob: "/old"
      destination: "/new"
      type: 301
  headers:
    - glob: "**/*.js"
      headers:
        - key: "Cache-Control"
          value: "max-age=3600"
`
				configPath := filepath.Join(tempDir, "hosting.yaml")
				err := os.WriteFile(configPath, []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())

				err = os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse hosting rewrites in order", func() {
				cfg, _ := config.Load()
				Expect(cfg.Hosting.Rewrites).To(HaveLen(2))
				Expect(cfg.Hosting.Rewrites[0].Function.ID).To(Equal("api"))
				Expect(cfg.Hosting.Rewrites[1].Destination).To(Equal("/index.html"))
			})

			It("should parse optional booleans as pointers", func() {
				cfg, _ := config.Load()
				Expect(cfg.Hosting.CleanURLs).NotTo(BeNil())
				Expect(*cfg.Hosting.CleanURLs).To(BeTrue())
				Expect(cfg.Hosting.TrailingSlash).NotTo(BeNil())
				Expect(*cfg.Hosting.TrailingSlash).To(BeFalse())
			})

			It("should parse preview targets", func() {
				cfg, _ := config.Load()
				Expect(cfg.Preview.Targets).To(HaveKeyWithValue("ssr", "http://localhost:8081"))
			})

			It("should record the source file", func() {
				cfg, _ := config.Load()
				Expect(cfg.SourceFile).NotTo(BeEmpty())
			})
		})

		Context("without a config file", func() {
			BeforeEach(func() {
				err := os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should fall back to defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":5000"))
				Expect(cfg.Preview.HealthCheckInterval).To(Equal("2s"))
			})
		})
	})

	Describe("HostingConfig Validate", func() {
		It("should accept an empty hosting config", func() {
			hc := &config.HostingConfig{}
			Expect(hc.Validate()).To(Succeed())
		})

		It("should reject a rewrite with both glob and regex", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{Glob: "/a", Regex: "^/a$", Destination: "/index.html"}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject a rewrite without a matcher", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{Destination: "/index.html"}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject a rewrite without a target", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{Glob: "**"}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject a rewrite with two targets", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{
					Glob:        "**",
					Destination: "/index.html",
					Function:    &config.FunctionRef{ID: "api"},
				}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject a regex that does not compile", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{Regex: "([", Destination: "/index.html"}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject a non-3xx redirect type", func() {
			hc := &config.HostingConfig{
				Redirects: []config.Redirect{{Glob: "/old", Destination: "/new", Type: 200}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should accept a redirect without an explicit type", func() {
			hc := &config.HostingConfig{
				Redirects: []config.Redirect{{Glob: "/old", Destination: "/new"}},
			}
			Expect(hc.Validate()).To(Succeed())
		})

		It("should reject a header rule with an empty key", func() {
			hc := &config.HostingConfig{
				Headers: []config.HeaderRule{{
					Glob:    "**",
					Headers: []config.Header{{Key: "", Value: "x"}},
				}},
			}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should reject an unknown app association", func() {
			hc := &config.HostingConfig{AppAssociation: "MAYBE"}
			Expect(hc.Validate()).NotTo(Succeed())
		})

		It("should accept dynamic links as the only target", func() {
			hc := &config.HostingConfig{
				Rewrites: []config.Rewrite{{Glob: "/links/**", DynamicLinks: true}},
			}
			Expect(hc.Validate()).To(Succeed())
		})
	})
})
