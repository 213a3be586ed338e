package circuitbreaker_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/himanshu810e/firebase-tools/internal/circuitbreaker"
)

func TestCircuitBreaker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CircuitBreaker Suite")
}

var _ = Describe("CircuitBreaker", func() {
	var cb *circuitbreaker.CircuitBreaker

	Describe("New", func() {
		It("should create a circuit breaker in closed state", func() {
			cb = circuitbreaker.New(5, 30*time.Second)
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State transitions", func() {
		BeforeEach(func() {
			cb = circuitbreaker.New(3, 50*time.Millisecond)
		})

		Context("when in CLOSED state", func() {
			It("should allow requests", func() {
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should remain closed below the failure threshold", func() {
				cb.Failure()
				cb.Failure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should open after reaching the failure threshold", func() {
				cb.Failure()
				cb.Failure()
				cb.Failure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should clear the failure count on success", func() {
				cb.Failure()
				cb.Failure()
				cb.Success()
				cb.Failure()
				cb.Failure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})
		})

		Context("when in OPEN state", func() {
			BeforeEach(func() {
				cb.Failure()
				cb.Failure()
				cb.Failure()
			})

			It("should block requests before the reset timeout", func() {
				Expect(cb.Allow()).To(BeFalse())
			})

			It("should transition to half-open after the reset timeout", func() {
				time.Sleep(60 * time.Millisecond)
				Expect(cb.Allow()).To(BeTrue())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})
		})

		Context("when in HALF-OPEN state", func() {
			BeforeEach(func() {
				cb.Failure()
				cb.Failure()
				cb.Failure()
				time.Sleep(60 * time.Millisecond)
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should close on a successful probe", func() {
				cb.Success()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			})

			It("should reopen immediately on a failed probe", func() {
				cb.Failure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
				Expect(cb.Allow()).To(BeFalse())
			})
		})
	})

	Describe("State String", func() {
		It("should name every state", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF_OPEN"))
		})
	})
})
