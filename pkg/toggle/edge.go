// Package toggle turns held keys and button presses into one-shot
// start/stop events for the recorder.
package toggle

// Edge detects the rising edge of a level signal.
// A key held for several ticks fires once.
type Edge struct {
	previous bool
}

// Rising reports whether level went from low to high since the last call.
func (e *Edge) Rising(level bool) bool {
	fired := level && !e.previous
	e.previous = level
	return fired
}
