// Package policy holds the agent-side boundary of the environment contract.
// Real training loops bring their own policies; the ones here exist to drive
// rollouts and smoke-tests without a learner attached.
package policy

import (
	"context"
	"math/rand"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Policy chooses the next action from the latest observation.
type Policy interface {
	Act(ctx context.Context, obs core.Observation) (core.Action, error)
}

type randomPolicy struct {
	rng *rand.Rand
}

// Random returns a policy sampling uniformly over the action space. The same
// seed replays the same action sequence.
func Random(seed int64) Policy {
	return &randomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *randomPolicy) Act(ctx context.Context, obs core.Observation) (core.Action, error) {
	return core.Action(p.rng.Intn(core.NumActions)), nil
}

type scriptedPolicy struct {
	actions []core.Action
	next    int
}

// Scripted returns a policy cycling through a fixed action sequence. With no
// actions it always plays ActionNone.
func Scripted(actions ...core.Action) Policy {
	return &scriptedPolicy{actions: actions}
}

func (p *scriptedPolicy) Act(ctx context.Context, obs core.Observation) (core.Action, error) {
	if len(p.actions) == 0 {
		return core.ActionNone, nil
	}
	action := p.actions[p.next%len(p.actions)]
	p.next++
	return action, nil
}
