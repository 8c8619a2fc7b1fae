// Package impulse flags samples that rise above their trailing moving average.
package impulse

import (
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the trailing window length used by the sensor.
const DefaultWindow = 10

// Result describes the classification of one value.
type Result struct {
	MovingAverage float64
	Delta         float64
	IsImpulse     bool
}

// Classify appends value to window, evicting the oldest entries beyond
// capacity, and classifies value against the mean of the updated window.
// The value takes part in its own baseline. Thresholds are exclusive:
// a delta exactly at min or max is not an impulse.
//
// The returned slice may share storage with window.
func Classify(window []float64, value, min, max float64, capacity int) ([]float64, Result) {
	if capacity <= 0 {
		capacity = DefaultWindow
	}

	window = append(window, value)
	if over := len(window) - capacity; over > 0 {
		window = window[over:]
	}

	avg := stat.Mean(window, nil)
	delta := value - avg

	return window, Result{
		MovingAverage: avg,
		Delta:         delta,
		IsImpulse:     min < delta && delta < max,
	}
}

// Detector owns a trailing window and classifies values one by one.
// It is not safe for concurrent use.
type Detector struct {
	window   []float64
	capacity int
	min      float64
	max      float64
}

// NewDetector creates a detector with the given window length and
// exclusive delta band (min, max).
func NewDetector(capacity int, min, max float64) *Detector {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Detector{
		window:   make([]float64, 0, capacity+1),
		capacity: capacity,
		min:      min,
		max:      max,
	}
}

// Classify adds value to the window and classifies it.
func (d *Detector) Classify(value float64) Result {
	var res Result
	d.window, res = Classify(d.window, value, d.min, d.max, d.capacity)
	return res
}

// Window returns a copy of the trailing window, oldest first.
func (d *Detector) Window() []float64 {
	result := make([]float64, len(d.window))
	copy(result, d.window)
	return result
}

// Reset empties the window.
func (d *Detector) Reset() {
	d.window = d.window[:0]
}
