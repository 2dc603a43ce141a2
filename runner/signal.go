package runner

import "sync/atomic"

// Flag is a process-wide monotonic boolean: writers only ever transition it
// from false to true, and setting it again is idempotent. Flags are passed
// explicitly into the orchestrator and suite runner rather than living as
// ambient globals, keeping cancellation and failure propagation testable.
//
// The cancellation flag is read cooperatively: it never interrupts an
// in-flight engine call, it only prevents new suites from starting and stops
// aggregators from accepting further per-case results.
type Flag struct {
	v atomic.Bool
}

// Set transitions the flag to true. Idempotent.
func (f *Flag) Set() { f.v.Store(true) }

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool { return f.v.Load() }
