package onboard

import "sync/atomic"

// AbortFlag is a cooperative cancellation signal polled between motion steps.
// Adapters without a native abort line embed it to satisfy Actuator.
type AbortFlag struct {
	abort atomic.Bool
}

// RequestAbort is idempotent and safe from any goroutine.
func (f *AbortFlag) RequestAbort() {
	f.abort.Store(true)
}

func (f *AbortFlag) ClearAbort() {
	f.abort.Store(false)
}

// ShouldAbort never blocks; it is polled once per step.
func (f *AbortFlag) ShouldAbort() bool {
	return f.abort.Load()
}
