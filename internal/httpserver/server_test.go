package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/himanshu810e/firebase-tools/internal/httpserver"
)

func TestHTTPServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "HTTPServer Suite")
}

var _ = Describe("Server", func() {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	Describe("New", func() {
		It("should accept a port-only address", func() {
			srv, err := httpserver.New(":0", noop)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("should accept a host:port address", func() {
			srv, err := httpserver.New("localhost:0", noop)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("should reject an address without a port separator", func() {
			_, err := httpserver.New("localhost", noop)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an empty port", func() {
			_, err := httpserver.New("localhost:", noop)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Start and Shutdown", func() {
		It("should return nil after a clean shutdown", func() {
			srv, err := httpserver.New("127.0.0.1:0", noop)
			Expect(err).NotTo(HaveOccurred())

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			time.Sleep(50 * time.Millisecond)
			Expect(srv.Shutdown(context.Background())).To(Succeed())
			Eventually(errCh).Should(Receive(BeNil()))
		})
	})
})
