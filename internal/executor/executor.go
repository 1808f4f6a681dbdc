// Package executor defines the pluggable update-executor contract (spec
// §4.2) and a deterministic fault-injecting implementation for tests.
package executor

import (
	"context"
	"sync"
)

// Executor applies one update attempt to a single instance and reports a
// per-attempt delay to simulate before the attempt is evaluated. The
// orchestrator's retry wrapper owns backoff between attempts; DelaySeconds
// is the executor's own per-call latency (e.g. network round trip, or an
// injected fault delay in tests).
type Executor interface {
	// Update applies one attempt of the code/configuration update to
	// instanceID. ok indicates whether the attempt succeeded; when it
	// did not, reason carries a short explanation for the history event.
	Update(ctx context.Context, instanceID, codeVersion, configurationVersion string) (ok bool, reason string, err error)

	// DelaySeconds is the latency this executor introduces before an
	// attempt settles, independent of the caller's retry backoff.
	DelaySeconds() float64
}

// FaultInjector is a deterministic, in-process Executor for tests: it
// fails an instance's first N attempts (configured per instance ID) and
// succeeds thereafter, mirroring the Python reference's FailureInjector.
type FaultInjector struct {
	// FailMap maps instance ID to the number of attempts that must fail
	// before that instance succeeds. Instances absent from the map
	// always succeed on the first attempt.
	FailMap map[string]int
	// Delay is the constant value returned by DelaySeconds.
	Delay float64

	mu       sync.Mutex
	attempts map[string]int
}

// NewFaultInjector builds a FaultInjector with the given fail map.
func NewFaultInjector(failMap map[string]int, delaySeconds float64) *FaultInjector {
	if failMap == nil {
		failMap = map[string]int{}
	}
	return &FaultInjector{
		FailMap:  failMap,
		Delay:    delaySeconds,
		attempts: make(map[string]int),
	}
}

// Update records one attempt against instanceID and fails it while the
// per-instance attempt counter has not yet exceeded FailMap[instanceID].
// The orchestrator calls Update concurrently for every instance in a
// batch, so the shared attempts map is guarded by a mutex.
func (f *FaultInjector) Update(_ context.Context, instanceID, codeVersion, configurationVersion string) (bool, string, error) {
	f.mu.Lock()
	if f.attempts == nil {
		f.attempts = make(map[string]int)
	}
	f.attempts[instanceID]++
	attempt := f.attempts[instanceID]
	f.mu.Unlock()

	if attempt <= f.FailMap[instanceID] {
		return false, "injected failure", nil
	}
	return true, "", nil
}

// DelaySeconds returns the configured constant delay.
func (f *FaultInjector) DelaySeconds() float64 {
	return f.Delay
}
