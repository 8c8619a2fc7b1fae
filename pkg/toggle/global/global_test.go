package global

import (
	"testing"

	"github.com/itohio/goeda/pkg/toggle"
	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
)

func TestHandleEvent_IgnoresMouse(t *testing.T) {
	keys := toggle.NewKeys()

	handleEvent(keys, hook.Event{Kind: hook.MouseDown, Button: 1})

	assert.False(t, keys.Pressed("s"))
	assert.False(t, keys.Pressed("q"))
}
