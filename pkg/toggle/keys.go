package toggle

import (
	"strings"
	"sync"
)

// Keys is the set of currently held keys. Any input source (window,
// global hook, tests) may press and release keys concurrently.
type Keys struct {
	mu   sync.RWMutex
	held map[string]struct{}
}

// NewKeys creates an empty key set.
func NewKeys() *Keys {
	return &Keys{held: make(map[string]struct{})}
}

// Press marks key as held.
func (k *Keys) Press(key string) {
	key = normalize(key)
	if key == "" {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.held[key] = struct{}{}
}

// Release marks key as no longer held.
func (k *Keys) Release(key string) {
	key = normalize(key)

	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}

// ReleaseAll clears every held key, e.g. when the window loses focus.
func (k *Keys) ReleaseAll() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.held)
}

// Pressed reports whether key is currently held.
func (k *Keys) Pressed(key string) bool {
	key = normalize(key)

	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.held[key]
	return ok
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
