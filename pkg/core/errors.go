package core

import "errors"

var (
	// ErrSimulatorUnavailable is returned when the browser session cannot be
	// established or is lost mid-episode. Fatal to the current episode.
	ErrSimulatorUnavailable = errors.New("simulator unavailable")
	// ErrProtocolViolation is returned for contract misuse: stepping before
	// reset, stepping a terminated episode, or passing an out-of-range action.
	ErrProtocolViolation = errors.New("environment protocol violation")
	// ErrDecodeFailure is returned when a captured frame payload cannot be
	// parsed into pixels. Transient; distinct from simulator loss so callers
	// can retry the step instead of aborting the episode.
	ErrDecodeFailure = errors.New("frame decode failure")
	// ErrReadinessTimeout is returned when reset's wait for the display flag
	// exhausts its bound. The reset may be retried.
	ErrReadinessTimeout = errors.New("simulator readiness timeout")
	// ErrUnsupportedRenderMode is returned by Render for any mode other than
	// rgb_array and human.
	ErrUnsupportedRenderMode = errors.New("unsupported render mode")
)
