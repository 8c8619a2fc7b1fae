package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goeda/pkg/sample"
	"github.com/itohio/goeda/pkg/scope"
)

// statusView is the data shown on the status line.
type statusView struct {
	connected bool
	latest    *sample.Sample
	recording bool
	session   string
}

// formatStatus renders the status line, e.g.
// "ADC 3850 → 6.36 µS | Δ=0.02 | ● REC GSR_data_20240309_140507.csv".
func formatStatus(v statusView) string {
	if !v.connected {
		return "Connecting..."
	}
	if v.latest == nil {
		return "Waiting for data..."
	}

	text := fmt.Sprintf("ADC %d → %s | Δ=%.2f", v.latest.RawADC, scope.FormatConductance(v.latest.Conductance), v.latest.Delta)
	if v.latest.IsImpulse {
		text += " | impulse"
	}
	if v.recording {
		text += " | ● REC"
		if v.session != "" {
			text += " " + filepath.Base(v.session)
		}
	}
	return text
}

// pollStatus refreshes the status line and buttons until ctx is cancelled.
func (state *appState) pollStatus(ctx context.Context) {
	ticker := time.NewTicker(state.cfg.Display.Refresh)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v := statusView{
			connected: state.connected.Load(),
			latest:    state.latest.Load(),
			recording: state.pipeline.loop.Recording(),
		}
		if s := state.pipeline.recorder.Active(); s != nil {
			v.session = s.Path
		}

		text := formatStatus(v)
		if text == last {
			continue
		}
		last = text

		fyne.Do(func() {
			state.status.SetText(text)
			updateRecordButtons(state, v.recording)
		})
	}
}

// updateRecordButtons highlights the button matching the recording state.
func updateRecordButtons(state *appState, recording bool) {
	if recording {
		state.recordBtn.Importance = widget.DangerImportance
		state.stopBtn.Importance = widget.MediumImportance
	} else {
		state.recordBtn.Importance = widget.MediumImportance
		state.stopBtn.Importance = widget.MediumImportance
	}
	state.recordBtn.Refresh()
	state.stopBtn.Refresh()
}
