package browser

import (
	"fmt"
	"strings"

	"github.com/arcade-rl/plasmapong/pkg/core"
)

// JS fragments sent to the game page. The page exposes a global `pong` object
// with `player.life`, `ai.life`, `ai.multiplayer` and `display`, a global
// `restart()` and a canvas with id "canvas".
const (
	setSinglePlayerScript = `pong.ai.multiplayer = false;`
	restartScript         = `restart();`
	readStateScript       = `({self: Number(pong.player.life), opponent: Number(pong.ai.life), display: !!pong.display})`
	captureCanvasScript   = `document.getElementById('canvas').toDataURL('image/png')`
)

// keyEventScript builds the dispatch expression for one synthetic key event.
// The legacy keyCode/which fields are set alongside key/code because the game
// reads the old-style fields.
func keyEventScript(key core.Key, phase core.KeyPhase) string {
	eventType := "keydown"
	if phase == core.PhaseRelease {
		eventType = "keyup"
	}
	return fmt.Sprintf(`(() => {
	var event = new KeyboardEvent(%q, {
		key: %q,
		code: %q,
		keyCode: %d,
		which: %d,
		bubbles: true,
		cancelable: true
	});
	window.dispatchEvent(event);
})()`, eventType, key.Char, "Key"+strings.ToUpper(key.Char), key.Code, key.Code)
}
