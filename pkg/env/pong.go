package env

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcade-rl/plasmapong/pkg/core"
	"github.com/arcade-rl/plasmapong/pkg/frame"
)

// Episode controller phases. Stepping is only legal from phaseReady; a
// terminated episode must be reset before the next step.
type phase int

const (
	phaseUninitialized phase = iota
	phaseReady
	phaseTerminated
)

func (p phase) String() string {
	switch p {
	case phaseReady:
		return "ready"
	case phaseTerminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}

// PlasmaPong adapts the browser-hosted game to the Environment contract. It is
// a synchronous, blocking client: one logical thread of control, one
// exclusively-owned simulator session, no internal parallelism. The only
// concurrency in the system is the game's own render loop running between
// calls.
type PlasmaPong struct {
	sim     core.Simulator
	sampler *frame.Sampler
	monitor *Monitor
	log     *slog.Logger

	settle        time.Duration
	pageLoadWait  time.Duration
	readyTimeout  time.Duration
	readyInterval time.Duration

	phase  phase
	prev   core.LifeCounters
	closed bool
}

// Option configures a PlasmaPong environment.
type Option func(*PlasmaPong)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *PlasmaPong) {
		e.log = log
	}
}

// WithSettleInterval sets the wait between key press and release inside a
// step. One rendered-frame period is enough for the game loop to register the
// input; the default is 16ms.
func WithSettleInterval(d time.Duration) Option {
	return func(e *PlasmaPong) {
		e.settle = d
	}
}

// WithPageLoadWait sets the grace period after navigating to the game page
// before scripting it. Defaults to 2s.
func WithPageLoadWait(d time.Duration) Option {
	return func(e *PlasmaPong) {
		e.pageLoadWait = d
	}
}

// WithReadinessBound sets the upper wait bound and poll interval for reset's
// wait-until-display loop. A zero timeout waits without bound. Defaults to 15s
// polled every 100ms.
func WithReadinessBound(timeout, interval time.Duration) Option {
	return func(e *PlasmaPong) {
		e.readyTimeout = timeout
		e.readyInterval = interval
	}
}

// New builds an environment over the given simulator session. The session is
// owned by the environment from here on; Close releases it.
func New(sim core.Simulator, opts ...Option) *PlasmaPong {
	e := &PlasmaPong{
		sim:           sim,
		sampler:       frame.NewSampler(sim),
		monitor:       NewMonitor(sim),
		log:           slog.Default(),
		settle:        16 * time.Millisecond,
		pageLoadWait:  2 * time.Second,
		readyTimeout:  15 * time.Second,
		readyInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reset reinitializes the game and blocks until it is running again: load the
// page, force single-player mode, trigger a restart, wait for the display
// flag, re-zero the episode counters, refocus the canvas, and capture the
// initial frame. Valid from any phase, including after termination.
func (e *PlasmaPong) Reset(ctx context.Context, seed int64, options core.Info) (core.Observation, core.Info, error) {
	_ = seed // the game exposes no seedable randomness

	if e.closed {
		return core.Observation{}, nil, fmt.Errorf("%w: reset on closed environment", core.ErrProtocolViolation)
	}

	// A failed reset must not leave a stale Ready phase behind.
	e.phase = phaseUninitialized

	if err := e.sim.Load(ctx); err != nil {
		return core.Observation{}, nil, err
	}
	if err := sleepCtx(ctx, e.pageLoadWait); err != nil {
		return core.Observation{}, nil, err
	}
	if err := e.sim.SetSinglePlayer(ctx); err != nil {
		return core.Observation{}, nil, err
	}
	if err := e.sim.Restart(ctx); err != nil {
		return core.Observation{}, nil, err
	}
	if err := e.awaitReadiness(ctx); err != nil {
		return core.Observation{}, nil, err
	}

	e.prev = core.StartingLives()

	if err := e.sim.FocusCanvas(ctx); err != nil {
		return core.Observation{}, nil, err
	}
	obs, err := e.sampler.Capture(ctx)
	if err != nil {
		return core.Observation{}, nil, err
	}

	e.phase = phaseReady
	e.log.Debug("environment reset", "self_life", e.prev.Self, "opponent_life", e.prev.Opponent)
	return obs, core.Info{}, nil
}

// Step applies one action and returns the resulting transition: dispatch the
// press operations, hold for the settle interval, dispatch the releases, then
// capture a frame and poll state to derive reward and termination against the
// previous poll. Truncated is always false; the adapter enforces no step
// budget of its own.
func (e *PlasmaPong) Step(ctx context.Context, action core.Action) (core.Transition, error) {
	if e.closed {
		return core.Transition{}, fmt.Errorf("%w: step on closed environment", core.ErrProtocolViolation)
	}
	switch e.phase {
	case phaseUninitialized:
		return core.Transition{}, fmt.Errorf("%w: step before reset", core.ErrProtocolViolation)
	case phaseTerminated:
		return core.Transition{}, fmt.Errorf("%w: step after termination without reset", core.ErrProtocolViolation)
	}

	// Translation failures surface before the simulator is touched.
	ops, err := Translate(action)
	if err != nil {
		return core.Transition{}, err
	}

	if err := e.applyInput(ctx, ops); err != nil {
		return core.Transition{}, err
	}

	obs, err := e.sampler.Capture(ctx)
	if err != nil {
		return core.Transition{}, err
	}
	state, err := e.monitor.Poll(ctx)
	if err != nil {
		return core.Transition{}, err
	}

	reward, terminated := TransitionSignal(e.prev, state)
	e.prev = state.Lives()
	if terminated {
		e.phase = phaseTerminated
		e.log.Debug("episode terminated", "reward", reward,
			"self_life", state.SelfLife, "opponent_life", state.OpponentLife)
	}

	return core.Transition{
		Observation: obs,
		Reward:      reward,
		Terminated:  terminated,
		Truncated:   false,
		Info:        core.Info{},
	}, nil
}

// applyInput emits the press half of the operations, holds for the settle
// interval, then emits the release half. Whatever goes wrong in between, every
// key that was pressed gets a release attempt before the error returns: no
// step may leave a key held across its boundary.
func (e *PlasmaPong) applyInput(ctx context.Context, ops []core.InputOperation) error {
	var pressed []core.Key
	for _, op := range ops {
		if op.Phase != core.PhasePress {
			continue
		}
		if err := e.sim.DispatchKey(ctx, op.Key, core.PhasePress); err != nil {
			e.releaseAll(ctx, pressed)
			return err
		}
		pressed = append(pressed, op.Key)
	}

	// The settle wait runs even for the empty sequence, giving the render
	// loop one frame per step regardless of action.
	if err := sleepCtx(ctx, e.settle); err != nil {
		e.releaseAll(ctx, pressed)
		return err
	}

	var firstErr error
	for _, op := range ops {
		if op.Phase != core.PhaseRelease {
			continue
		}
		if err := e.sim.DispatchKey(ctx, op.Key, core.PhaseRelease); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// releaseAll is the error-path counterpart of applyInput's press loop. It runs
// detached from the caller's cancellation so a cancelled step still tries to
// let go of its keys.
func (e *PlasmaPong) releaseAll(ctx context.Context, keys []core.Key) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := e.sim.DispatchKey(ctx, key, core.PhaseRelease); err != nil {
			e.log.Warn("failed to release key on error path", "key", key.Char, "error", err)
		}
	}
}

// awaitReadiness polls the display flag until the game reports it is running,
// the bound elapses, or the context ends.
func (e *PlasmaPong) awaitReadiness(ctx context.Context) error {
	var deadline time.Time
	if e.readyTimeout > 0 {
		deadline = time.Now().Add(e.readyTimeout)
	}
	for {
		state, err := e.monitor.Poll(ctx)
		if err != nil {
			return err
		}
		if state.Display {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: display not active after %s", core.ErrReadinessTimeout, e.readyTimeout)
		}
		if err := sleepCtx(ctx, e.readyInterval); err != nil {
			return err
		}
	}
}

// Render returns a fresh capture for RenderRGBArray and nil for RenderHuman;
// the browser window is already the human-visible rendering. Any other mode is
// a declared-unsupported error.
func (e *PlasmaPong) Render(ctx context.Context, mode core.RenderMode) (*core.Observation, error) {
	switch mode {
	case core.RenderRGBArray:
		obs, err := e.sampler.Capture(ctx)
		if err != nil {
			return nil, err
		}
		return &obs, nil
	case core.RenderHuman:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedRenderMode, mode)
	}
}

// Close releases the simulator session. Further resets and steps fail with
// ErrProtocolViolation; repeated closes are no-ops.
func (e *PlasmaPong) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.sim.Close()
}

var _ core.Environment = (*PlasmaPong)(nil)

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
