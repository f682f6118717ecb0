package ecsched

import "reflect"

// config collects NewExecutor's functional options. There is deliberately no
// file, flag, or environment-variable configuration surface: an Executor's
// only inputs are the systems inserted into it and the collaborators handed
// to Run/RunWithScope.
type config struct {
	diagnostics    Diagnostics
	typeIndexHints []reflect.Type
}

func newConfig() *config {
	return &config{diagnostics: NopDiagnostics{}}
}

// Option configures a newly constructed Executor.
type Option func(*config)

// WithDiagnostics sets the Diagnostics implementation a new Executor
// reports system execution through. The default is NopDiagnostics.
func WithDiagnostics(d Diagnostics) Option {
	return func(c *config) { c.diagnostics = d }
}

// WithTypeIndexHint pre-allocates stable bit positions for the given types
// in the new Executor's type index, in the order given. This only matters
// if a caller wants the same types to land on the same bit positions across
// independently constructed Executors (for example, to compare two
// Executors' conflict matrices directly in a test); ordinary use needs no
// hint, since types are indexed lazily as systems declare access to them.
func WithTypeIndexHint(types ...reflect.Type) Option {
	return func(c *config) { c.typeIndexHints = append(c.typeIndexHints, types...) }
}
