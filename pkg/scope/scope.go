package scope

import (
	"context"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goeda/pkg/config"
)

// Frame is one snapshot of what the scope shows.
type Frame struct {
	Values    []float64 // Conductance values, oldest first (µS)
	Impulse   bool      // Latest sample was classified as an impulse
	Recording bool
}

// Source provides frames for Poll.
type Source interface {
	Frame() Frame
}

// SourceFunc adapts a function to Source.
type SourceFunc func() Frame

// Frame calls f.
func (f SourceFunc) Frame() Frame {
	return f()
}

// Widget is a Fyne widget plotting the most recent conductance values on
// fixed axes: samples [0, window] horizontally, [yMin, yMax] µS vertically.
type Widget struct {
	widget.BaseWidget

	window int
	yMin   float64
	yMax   float64

	// Data (protected by mu)
	mu    sync.RWMutex
	frame Frame
}

// New creates a scope for the display configuration.
func New(cfg config.DisplayConfig) *Widget {
	w := &Widget{
		window: cfg.Window,
		yMin:   cfg.YMin,
		yMax:   cfg.YMax,
	}
	if w.window <= 0 {
		w.window = 100
	}
	if w.yMax <= w.yMin {
		w.yMin, w.yMax = 0, 20
	}
	w.ExtendBaseWidget(w)
	return w
}

// Update replaces the displayed frame. Call it on the Fyne goroutine
// (Poll does this through fyne.Do).
func (w *Widget) Update(f Frame) {
	w.mu.Lock()
	w.frame = f
	w.mu.Unlock()

	w.Refresh()
}

// Frame returns the currently displayed frame.
func (w *Widget) Frame() Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &renderer{
		scope:      w,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}

// Poll redraws w from source every interval until ctx is cancelled.
func Poll(ctx context.Context, w *Widget, source Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f := source.Frame()
			fyne.Do(func() {
				w.Update(f)
			})
		}
	}
}
