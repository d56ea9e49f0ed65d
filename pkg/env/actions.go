package env

import (
	"fmt"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// Key bindings the game page listens for: W/S move the paddle, D ejects
// plasma, A pulls it back in.
var actionKeys = map[core.Action]core.Key{
	core.ActionUp:   {Char: "w", Code: 87},
	core.ActionDown: {Char: "s", Code: 83},
	core.ActionPush: {Char: "d", Code: 68},
	core.ActionPull: {Char: "a", Code: 65},
}

// Translate maps a discrete action to its ordered input operations: a press
// followed by a release of the bound key. ActionNone translates to an empty
// sequence. The mapping is pure; emitting the operations at the simulator is
// the episode controller's job.
//
// An identifier outside the declared set is a programming error and fails with
// ErrProtocolViolation rather than degrading to a no-op.
func Translate(action core.Action) ([]core.InputOperation, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: action %d outside discrete set [0,%d)",
			core.ErrProtocolViolation, action, core.NumActions)
	}
	key, ok := actionKeys[action]
	if !ok {
		return nil, nil
	}
	return []core.InputOperation{
		{Key: key, Phase: core.PhasePress},
		{Key: key, Phase: core.PhaseRelease},
	}, nil
}
