package scheduler

import "time"

// Diagnostics is the scheduler's internal observation hook: a start/end pair
// bracketing each system's execution, plus a hook for a run's first error,
// so a host can wire in logging or metrics without the scheduler depending
// on any particular logging library.
type Diagnostics interface {
	SystemStart(handle string)
	SystemEnd(handle string, err error, duration time.Duration)
	RunRejected(err error)
}

// NopDiagnostics discards every event. It is the default.
type NopDiagnostics struct{}

func (NopDiagnostics) SystemStart(string)                    {}
func (NopDiagnostics) SystemEnd(string, error, time.Duration) {}
func (NopDiagnostics) RunRejected(error)                      {}
