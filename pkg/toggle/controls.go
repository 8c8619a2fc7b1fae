package toggle

import "sync"

// Controls samples the start and stop keys once per tick and merges
// one-shot requests coming from buttons.
type Controls struct {
	keys     *Keys
	startKey string
	stopKey  string

	// Edges are only touched by Poll, which runs on the acquisition goroutine.
	start Edge
	stop  Edge

	mu           sync.Mutex
	pendingStart bool
	pendingStop  bool
}

// NewControls watches startKey and stopKey in keys. keys may be nil when
// only Trigger* requests are used.
func NewControls(keys *Keys, startKey, stopKey string) *Controls {
	if keys == nil {
		keys = NewKeys()
	}
	return &Controls{
		keys:     keys,
		startKey: startKey,
		stopKey:  stopKey,
	}
}

// Keys returns the key set the controls read from.
func (c *Controls) Keys() *Keys {
	return c.keys
}

// TriggerStart requests a start on the next Poll.
func (c *Controls) TriggerStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingStart = true
}

// TriggerStop requests a stop on the next Poll.
func (c *Controls) TriggerStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingStop = true
}

// Poll returns the start and stop events for this tick. Each continuous
// key press yields exactly one event; pending triggers are consumed.
func (c *Controls) Poll() (start, stop bool) {
	start = c.start.Rising(c.keys.Pressed(c.startKey))
	stop = c.stop.Rising(c.keys.Pressed(c.stopKey))

	c.mu.Lock()
	start = start || c.pendingStart
	stop = stop || c.pendingStop
	c.pendingStart = false
	c.pendingStop = false
	c.mu.Unlock()

	return start, stop
}
