package distance

import (
	"log"

	"go.uber.org/atomic"
)

// Breaker is a one-way latch that disables external routing calls after the
// first network-level failure. It never resets on its own; Reset exists so
// tests and operators can simulate recovery. Instances are injectable so
// independent gateways can latch independently.
type Breaker struct {
	tripped atomic.Bool
}

func NewBreaker() *Breaker {
	return &Breaker{}
}

// Available reports whether external calls may still be attempted.
func (b *Breaker) Available() bool {
	return !b.tripped.Load()
}

// Trip latches the breaker. The first trip logs a one-time warning; every
// subsequent call goes straight to the local estimator.
func (b *Breaker) Trip(reason string) {
	if b.tripped.CompareAndSwap(false, true) {
		log.Printf("routing provider unavailable, switching to local estimates: %s", reason)
	}
}

// Reset re-enables external calls.
func (b *Breaker) Reset() {
	b.tripped.Store(false)
}
