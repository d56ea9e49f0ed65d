package core

import (
	"context"
)

// Environment is the agent-facing contract: a synchronous, single-owner
// reset/step/render/close loop over an external simulation.
type Environment interface {
	// Reset reinitializes the simulation and returns the initial observation.
	// The seed is accepted for interface compatibility; the external game has
	// no seedable randomness, so it is ignored.
	Reset(ctx context.Context, seed int64, options Info) (Observation, Info, error)
	// Step applies one discrete action and returns the resulting transition.
	// Valid only after a successful Reset and before termination.
	Step(ctx context.Context, action Action) (Transition, error)
	// Render returns a fresh frame for RenderRGBArray, nil for RenderHuman.
	Render(ctx context.Context, mode RenderMode) (*Observation, error)
	// Close releases the simulator session. Safe to call more than once.
	Close() error
}

// Simulator is the control channel to the externally-running game process.
// The adapter owns exactly one session; implementations are not required to
// tolerate concurrent callers.
type Simulator interface {
	// Load navigates the session to the game page and waits for it to settle.
	Load(ctx context.Context) error
	// SetSinglePlayer disables the game's built-in multiplayer toggle so the
	// opponent stays under the game's own AI control.
	SetSinglePlayer(ctx context.Context) error
	// Restart triggers the game's restart routine.
	Restart(ctx context.Context) error
	// FocusCanvas gives the game canvas input focus so key events land.
	FocusCanvas(ctx context.Context) error
	// ReadState polls both life counters and the display flag in a single
	// round-trip.
	ReadState(ctx context.Context) (GameState, error)
	// DispatchKey emits one synthetic keyboard event at the page.
	DispatchKey(ctx context.Context, key Key, phase KeyPhase) error
	// CaptureCanvas exports the current canvas contents as a data URI.
	CaptureCanvas(ctx context.Context) (string, error)
	// Close tears down the session.
	Close() error
}
