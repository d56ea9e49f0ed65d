package env

import (
	"context"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Monitor reads the simulator's exposed scalars. Every Poll re-reads
// authoritative external state; nothing is cached between calls.
type Monitor struct {
	sim core.Simulator
}

// NewMonitor returns a monitor over the given simulator session.
func NewMonitor(sim core.Simulator) *Monitor {
	return &Monitor{sim: sim}
}

// Poll fetches both life counters and the display flag in one round-trip.
func (m *Monitor) Poll(ctx context.Context) (core.GameState, error) {
	return m.sim.ReadState(ctx)
}

// TransitionSignal derives reward and termination from two successive polls.
// Reward is +1 when the opponent lost life since the previous poll (the agent
// scored), -1 when only the agent's own side lost life, 0 otherwise. A drop on
// both sides in the same interval counts as scoring: with polling this coarse
// the true event order is unknowable, so the scoring branch is evaluated
// first. Termination follows the display flag alone.
//
// The monitor sees state deltas between discrete polls, not individual
// scoring events; several exchanges inside one interval collapse to at most
// one reward unit. That is an accepted limit of delta-based observation, not
// something callers should try to correct for.
func TransitionSignal(prev core.LifeCounters, curr core.GameState) (reward int, terminated bool) {
	switch {
	case curr.OpponentLife < prev.Opponent:
		reward = 1
	case curr.SelfLife < prev.Self:
		reward = -1
	}
	return reward, !curr.Display
}
