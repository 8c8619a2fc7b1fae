// Package global feeds system-wide keyboard events into toggle.Keys.
// Building it requires cgo and the platform hook headers (X11 on Linux).
package global

import (
	"context"

	"github.com/itohio/goeda/pkg/logging"
	"github.com/itohio/goeda/pkg/toggle"
	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// Listen feeds system-wide keyboard events into keys until ctx is
// cancelled. It works without a focused window, which is what headless
// mode needs.
func Listen(ctx context.Context, keys *toggle.Keys, log *zap.SugaredLogger) {
	log = logging.OrNop(log)

	events := hook.Start()
	defer hook.End()

	log.Infow("Global keyboard hook started")
	defer log.Infow("Global keyboard hook stopped")

	for {
		select {
		case <-ctx.Done():
			keys.ReleaseAll()
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			handleEvent(keys, ev)
		}
	}
}

// handleEvent maps a raw hook event onto the key set.
// Press events arrive as KeyHold (and KeyDown for printable keys).
func handleEvent(keys *toggle.Keys, ev hook.Event) {
	switch ev.Kind {
	case hook.KeyDown, hook.KeyHold:
		keys.Press(hook.RawcodetoKeychar(ev.Rawcode))
	case hook.KeyUp:
		keys.Release(hook.RawcodetoKeychar(ev.Rawcode))
	}
}
