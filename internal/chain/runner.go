// Package chain runs settings hooks in configuration key order.
//
// For every configuration key, in the order the configuration enumerates its
// keys, the runner invokes each hook registered for that key in registration
// order. Exactly one hook is in flight at a time: a hook must report
// completion through its Done before the next one starts, and it may do so
// synchronously or later from any goroutine.
//
// A hook that never calls Done stalls the run forever. The runner imposes no
// timeout; callers that need one bound Run with their context.
package chain

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/metrics"
)

// ErrAlreadyStarted is returned by Start on a runner that was started before.
var ErrAlreadyStarted = stderrors.New("chain: runner already started")

// Options is the ordered configuration the runner walks.
type Options = orderedmap.OrderedMap[string, any]

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder. Defaults to metrics.NoopRecorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// Runner executes one pass over a configuration's settings hooks.
type Runner struct {
	keys        []string
	values      []any
	registry    *hooks.Registry
	destination string
	logger      *slog.Logger
	recorder    metrics.Recorder
	duplicates  atomic.Int64

	mu          sync.Mutex
	state       State
	driving     bool
	optionIndex int
	chainIndex  int
	current     []hooks.Hook
	inflight    *invocation
	err         error
	ctx         context.Context
	onComplete  func(error)
}

type invocation struct {
	key     string
	index   int
	started time.Time
	fired   atomic.Bool
}

// New creates a runner over options. Keys are read once, here; later changes
// to options do not affect the run.
func New(options *Options, registry *hooks.Registry, destination string, opts ...Option) *Runner {
	r := &Runner{
		registry:    registry,
		destination: destination,
		logger:      slog.Default(),
		recorder:    metrics.NoopRecorder{},
		optionIndex: -1,
		chainIndex:  -1,
	}
	if options != nil {
		for pair := options.Oldest(); pair != nil; pair = pair.Next() {
			r.keys = append(r.keys, pair.Key)
			r.values = append(r.values, pair.Value)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// DuplicateSignals returns how many Done calls arrived for invocations that
// had already completed.
func (r *Runner) DuplicateSignals() int64 {
	return r.duplicates.Load()
}

// Start begins the run without blocking. onComplete, when non-nil, is called
// exactly once when the run terminates, with nil on success or the error that
// aborted it. It may be called on the calling goroutine before Start returns.
func (r *Runner) Start(ctx context.Context, onComplete func(error)) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.ctx = ctx
	r.onComplete = onComplete
	r.state = StateAdvancingOption
	r.mu.Unlock()

	r.drive()
	return nil
}

// Run starts the runner and waits for it to terminate. If ctx ends first Run
// returns ctx.Err(); an in-flight hook is not interrupted and no further hook
// is started.
func (r *Runner) Run(ctx context.Context) error {
	result := make(chan error, 1)
	if err := r.Start(ctx, func(err error) { result <- err }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drive is the trampoline. Whoever holds the driving flag loops until the run
// suspends on an asynchronous hook or terminates; completions arriving while
// another goroutine drives only update state and leave the looping to it.
func (r *Runner) drive() {
	r.mu.Lock()
	if r.driving {
		r.mu.Unlock()
		return
	}
	r.driving = true

	for {
		switch {
		case r.state == StateDone:
			r.driving = false
			r.mu.Unlock()
			return
		case r.err != nil:
			r.finishLocked()
			return
		case r.state == StateAwaitingHook:
			r.driving = false
			r.mu.Unlock()
			return
		}
		if err := r.ctx.Err(); err != nil {
			r.err = err
			r.finishLocked()
			return
		}

		inv, hook, value, ok := r.advanceLocked()
		if !ok {
			r.finishLocked()
			return
		}

		r.mu.Unlock()
		r.logger.Debug("Invoking settings hook", logfields.Key(inv.key), logfields.HookIndex(inv.index))
		err := hook(r.ctx, value, r.destination, r.doneFor(inv))
		r.mu.Lock()

		if err != nil && r.err == nil {
			r.recorder.ObserveHookDuration(inv.key, time.Since(inv.started), false)
			r.err = hookError(inv, err)
			r.inflight = nil
		}
	}
}

// advanceLocked moves to the next hook, crossing key boundaries as needed.
// It reports false once every key has been visited.
func (r *Runner) advanceLocked() (*invocation, hooks.Hook, any, bool) {
	for {
		r.chainIndex++
		if r.chainIndex < len(r.current) {
			inv := &invocation{
				key:     r.keys[r.optionIndex],
				index:   r.chainIndex,
				started: time.Now(),
			}
			r.inflight = inv
			r.state = StateAwaitingHook
			return inv, r.current[r.chainIndex], r.values[r.optionIndex], true
		}

		r.optionIndex++
		if r.optionIndex >= len(r.keys) {
			return nil, nil, nil, false
		}
		r.current = r.registry.SettingsHooks(r.keys[r.optionIndex])
		r.chainIndex = -1
	}
}

// finishLocked terminates the run and releases the lock.
func (r *Runner) finishLocked() {
	r.state = StateDone
	r.driving = false
	r.inflight = nil
	err := r.err
	onComplete := r.onComplete
	r.mu.Unlock()

	if err != nil {
		r.logger.Debug("Settings hook chain aborted", logfields.Error(err))
	} else {
		r.logger.Debug("Settings hook chain completed", logfields.Count(len(r.keys)))
	}
	if onComplete != nil {
		onComplete(err)
	}
}

func (r *Runner) doneFor(inv *invocation) hooks.Done {
	return func(err error) {
		if !inv.fired.CompareAndSwap(false, true) {
			r.duplicates.Add(1)
			r.recorder.IncDuplicateDone(inv.key)
			r.logger.Warn("Settings hook signalled completion more than once",
				logfields.Key(inv.key), logfields.HookIndex(inv.index))
			return
		}

		r.mu.Lock()
		if r.inflight != inv {
			// The run already moved on, typically because the hook also
			// returned an error.
			r.mu.Unlock()
			return
		}
		r.recorder.ObserveHookDuration(inv.key, time.Since(inv.started), err == nil)
		r.inflight = nil
		if err != nil && r.err == nil {
			r.err = hookError(inv, err)
		}
		r.state = StateAdvancingOption
		r.mu.Unlock()

		r.drive()
	}
}

func hookError(inv *invocation, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.WrapError(err, errors.CategoryHook, "settings hook failed").
		WithContext("key", inv.key).
		WithContext("hook_index", inv.index).
		Build()
}
