package circuitbreaker_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/himanshu810e/firebase-tools/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(3, 30*time.Second)
	})

	Describe("Get", func() {
		It("should create a breaker on first use", func() {
			cb := registry.Get("ssr")
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same service", func() {
			Expect(registry.Get("ssr")).To(BeIdenticalTo(registry.Get("ssr")))
		})

		It("should keep breakers independent per service", func() {
			ssr := registry.Get("ssr")
			ssr.Failure()
			ssr.Failure()
			ssr.Failure()
			Expect(ssr.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(registry.Get("api").State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should be safe under concurrent access", func() {
			var wg sync.WaitGroup
			breakers := make([]*circuitbreaker.CircuitBreaker, 20)
			for i := range breakers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					breakers[i] = registry.Get("shared")
				}(i)
			}
			wg.Wait()
			for _, cb := range breakers {
				Expect(cb).To(BeIdenticalTo(breakers[0]))
			}
		})
	})

	Describe("Reset", func() {
		It("should drop existing breakers", func() {
			cb := registry.Get("ssr")
			cb.Failure()
			cb.Failure()
			cb.Failure()
			registry.Reset()
			Expect(registry.Get("ssr").State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("States", func() {
		It("should report the state of every breaker", func() {
			registry.Get("ssr")
			api := registry.Get("api")
			api.Failure()
			api.Failure()
			api.Failure()

			states := registry.States()
			Expect(states).To(HaveKeyWithValue("ssr", circuitbreaker.StateClosed))
			Expect(states).To(HaveKeyWithValue("api", circuitbreaker.StateOpen))
		})
	})
})
