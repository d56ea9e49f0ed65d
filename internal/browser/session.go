// Package browser implements the simulator control channel over a headless
// Chrome session driven through the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Config holds the session parameters.
type Config struct {
	// GameURL is the address of the game page.
	GameURL string
	// Headless runs Chrome without a window. Disable it to watch episodes.
	Headless bool
	// WindowWidth and WindowHeight size the browser window. The game lays
	// itself out for roughly 448x700.
	WindowWidth  int
	WindowHeight int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is a live Chrome tab holding the game. One session serves exactly
// one environment instance; concurrent environments need their own sessions.
type Session struct {
	gameURL string
	log     *slog.Logger

	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closed      bool
}

// NewSession launches Chrome and connects to it. The returned session is not
// yet on the game page; Load navigates there.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.GameURL == "" {
		return nil, fmt.Errorf("%w: game URL is required", core.ErrSimulatorUnavailable)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	width, height := cfg.WindowWidth, cfg.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = 448, 700
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(width, height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing or broken Chrome surfaces here
	// instead of on the first command.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: start chrome: %v", core.ErrSimulatorUnavailable, err)
	}

	log.Debug("browser session started", "url", cfg.GameURL, "headless", cfg.Headless)
	return &Session{
		gameURL:     cfg.GameURL,
		log:         log,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Load navigates to the game page and waits for the canvas element.
func (s *Session) Load(ctx context.Context) error {
	return s.run(ctx, "load game page",
		chromedp.Navigate(s.gameURL),
		chromedp.WaitReady("canvas", chromedp.ByID),
	)
}

// SetSinglePlayer disables the game's built-in opponent-control shortcut so
// the opponent paddle stays with the in-game AI for every episode.
func (s *Session) SetSinglePlayer(ctx context.Context) error {
	return s.run(ctx, "set single player",
		chromedp.Evaluate(setSinglePlayerScript, nil),
	)
}

// Restart triggers the game's own restart routine.
func (s *Session) Restart(ctx context.Context) error {
	return s.run(ctx, "restart game",
		chromedp.Evaluate(restartScript, nil),
	)
}

// FocusCanvas clicks the canvas so dispatched key events reach the game.
func (s *Session) FocusCanvas(ctx context.Context) error {
	return s.run(ctx, "focus canvas",
		chromedp.Click("canvas", chromedp.ByID),
	)
}

// ReadState evaluates one expression returning both life counters and the
// display flag together, so the snapshot cannot tear across round-trips.
func (s *Session) ReadState(ctx context.Context) (core.GameState, error) {
	var state core.GameState
	err := s.run(ctx, "read game state",
		chromedp.Evaluate(readStateScript, &state),
	)
	return state, err
}

// DispatchKey emits a synthetic KeyboardEvent at the page with full legacy
// keyCode/which fields and bubbling enabled, matching what the game's input
// handlers expect.
func (s *Session) DispatchKey(ctx context.Context, key core.Key, phase core.KeyPhase) error {
	return s.run(ctx, "dispatch key "+key.Char+" "+phase.String(),
		chromedp.Evaluate(keyEventScript(key, phase), nil),
	)
}

// CaptureCanvas exports the canvas as a PNG data URI.
func (s *Session) CaptureCanvas(ctx context.Context) (string, error) {
	var uri string
	err := s.run(ctx, "capture canvas",
		chromedp.Evaluate(captureCanvasScript, &uri),
	)
	return uri, err
}

// Close shuts the tab and the browser process down. Safe to call repeatedly.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancelTab()
	s.cancelAlloc()
	s.log.Debug("browser session closed")
	return nil
}

// run executes actions against the tab, honoring the caller's deadline on top
// of the session-owned tab context. Failures other than caller cancellation
// are reported as simulator loss.
func (s *Session) run(ctx context.Context, desc string, actions ...chromedp.Action) error {
	if s.closed {
		return fmt.Errorf("%w: session closed", core.ErrSimulatorUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", core.ErrSimulatorUnavailable, desc, err)
	}
	return nil
}

var _ core.Simulator = (*Session)(nil)
