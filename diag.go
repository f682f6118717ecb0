package ecsched

import (
	"time"

	"github.com/oriumgames/ecsched/internal/scheduler"
	"github.com/rs/zerolog"
)

// Diagnostics observes system execution: when a system starts, when it
// finishes (and with what error, if any), and when a run is rejected
// outright (the first error a parallel dispatch sees).
type Diagnostics = scheduler.Diagnostics

// NopDiagnostics discards every event. It is the default.
type NopDiagnostics = scheduler.NopDiagnostics

// ZerologDiagnostics logs every event through a zerolog.Logger, one line per
// system start/end and one for a rejected run.
type ZerologDiagnostics struct {
	log zerolog.Logger
}

// NewZerologDiagnostics wraps log as a Diagnostics implementation.
func NewZerologDiagnostics(log zerolog.Logger) *ZerologDiagnostics {
	return &ZerologDiagnostics{log: log}
}

func (d *ZerologDiagnostics) SystemStart(handle string) {
	d.log.Debug().Str("system", handle).Msg("system started")
}

func (d *ZerologDiagnostics) SystemEnd(handle string, err error, duration time.Duration) {
	ev := d.log.Debug()
	if err != nil {
		ev = d.log.Error().Err(err)
	}
	ev.Str("system", handle).Dur("duration", duration).Msg("system finished")
}

func (d *ZerologDiagnostics) RunRejected(err error) {
	d.log.Error().Err(err).Msg("run rejected")
}
