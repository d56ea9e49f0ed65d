package core

// Observation dimensions. The agent always sees a 96x96 RGB frame no matter
// what size the game canvas renders at.
const (
	ObsHeight   = 96
	ObsWidth    = 96
	ObsChannels = 3
	ObsSize     = ObsHeight * ObsWidth * ObsChannels
)

// Observation is one rendered frame in row-major HWC layout, values 0-255.
// Each capture allocates a fresh pixel buffer, so the caller owns the frame
// outright once it is returned.
type Observation struct {
	Pixels []uint8
}

// NewObservation allocates a zeroed frame of the declared shape.
func NewObservation() Observation {
	return Observation{Pixels: make([]uint8, ObsSize)}
}

// Valid reports whether the frame has the declared shape.
func (o Observation) Valid() bool {
	return len(o.Pixels) == ObsSize
}

// At returns the channel value at (y, x, c).
func (o Observation) At(y, x, c int) uint8 {
	return o.Pixels[(y*ObsWidth+x)*ObsChannels+c]
}

// Clone returns a deep copy of the frame.
func (o Observation) Clone() Observation {
	pixels := make([]uint8, len(o.Pixels))
	copy(pixels, o.Pixels)
	return Observation{Pixels: pixels}
}

// Action is one of the game's discrete controls.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionPush
	ActionPull

	// NumActions is the size of the discrete action space.
	NumActions = 5
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionPush:
		return "push"
	case ActionPull:
		return "pull"
	default:
		return "invalid"
	}
}

// Valid reports whether the action is a member of the declared discrete set.
func (a Action) Valid() bool {
	return a >= ActionNone && a < NumActions
}

// Key identifies a keyboard key as the game page sees it: the character for
// KeyboardEvent.key and the legacy numeric code for keyCode/which.
type Key struct {
	Char string
	Code int
}

// KeyPhase is the half of a keystroke an input operation performs.
type KeyPhase int

const (
	PhasePress KeyPhase = iota
	PhaseRelease
)

func (p KeyPhase) String() string {
	if p == PhasePress {
		return "press"
	}
	return "release"
}

// InputOperation is a single synthetic key event to dispatch at the simulator.
// Operations always come in press-then-release pairs within one step; a key is
// never left pressed across a step boundary.
type InputOperation struct {
	Key   Key
	Phase KeyPhase
}

// StartingLife is the life count both sides hold at the start of an episode.
const StartingLife = 5

// LifeCounters is a snapshot of both sides' life counts. Within an episode the
// counters only ever decrease; reset returns both to StartingLife.
type LifeCounters struct {
	Self     int
	Opponent int
}

// StartingLives returns the counters as they stand after a restart.
func StartingLives() LifeCounters {
	return LifeCounters{Self: StartingLife, Opponent: StartingLife}
}

// GameState is one atomic poll of the simulator's exposed scalars. All three
// fields come back from a single round-trip so the snapshot cannot be torn
// across separate reads.
type GameState struct {
	SelfLife     int  `json:"self"`
	OpponentLife int  `json:"opponent"`
	Display      bool `json:"display"`
}

// Lives returns the life counters of the snapshot.
func (s GameState) Lives() LifeCounters {
	return LifeCounters{Self: s.SelfLife, Opponent: s.OpponentLife}
}

// Info is the auxiliary mapping attached to resets and transitions. The
// adapter always returns it empty.
type Info map[string]any

// Transition is the full result of one environment step.
type Transition struct {
	Observation Observation
	Reward      int
	Terminated  bool
	Truncated   bool
	Info        Info
}

// RenderMode selects how Render produces output.
type RenderMode string

const (
	// RenderRGBArray returns a fresh frame capture.
	RenderRGBArray RenderMode = "rgb_array"
	// RenderHuman returns nothing; the browser window is the rendering.
	RenderHuman RenderMode = "human"
)
