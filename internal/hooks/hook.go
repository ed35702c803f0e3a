package hooks

import "context"

// Done signals that a hook invocation has finished. A nil error lets the run
// advance to the next hook; a non-nil error aborts the run.
//
// Every invocation must call its Done exactly once. A hook that never calls
// Done stalls the run permanently. Further calls are ignored.
type Done func(err error)

// Hook is a settings hook: it receives the configuration value of the key it
// was registered for and the directory it should write its artifacts into.
//
// Returning a non-nil error aborts the run immediately; done need not be
// called in that case. Otherwise the hook reports completion through done,
// either before returning or later from any goroutine.
type Hook func(ctx context.Context, value any, destination string, done Done) error

// Sync adapts a blocking function into a Hook that completes before returning.
func Sync(fn func(ctx context.Context, value any, destination string) error) Hook {
	return func(ctx context.Context, value any, destination string, done Done) error {
		if err := fn(ctx, value, destination); err != nil {
			return err
		}
		done(nil)
		return nil
	}
}
