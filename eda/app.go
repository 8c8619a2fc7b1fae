package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goeda/pkg/acquisition"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/sample"
	"github.com/itohio/goeda/pkg/scope"
	"github.com/itohio/goeda/pkg/toggle"
	"github.com/itohio/goeda/pkg/toggle/global"
	"go.uber.org/zap"
)

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	saved      *config.Config // Contents of configPath, without flag overrides
	configPath string
	log        *zap.SugaredLogger

	pipeline    *pipeline
	window      fyne.Window
	scopeWidget *scope.Widget
	status      *widget.Label
	recordBtn   *widget.Button
	stopBtn     *widget.Button

	// Written by the acquisition goroutine, read by the UI.
	latest    atomic.Pointer[sample.Sample]
	connected atomic.Bool
}

// runGUI shows the main window. It returns when the window is closed or ctx
// is cancelled. cfg is the running configuration; saved is what the settings
// dialog edits and writes back to configPath.
func runGUI(ctx context.Context, cancel context.CancelFunc, cfg, saved *config.Config, configPath string, log *zap.SugaredLogger) error {
	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer p.device.Close()

	// Create Fyne application
	application := app.NewWithID("com.itohio.goeda")

	// Create main window
	window := application.NewWindow("GSR Monitor")
	window.Resize(fyne.NewSize(900, 600))
	window.CenterOnScreen()

	state := &appState{
		cfg:         cfg,
		saved:       saved,
		configPath:  configPath,
		log:         log,
		pipeline:    p,
		window:      window,
		scopeWidget: scope.New(cfg.Display),
		status:      widget.NewLabel("Connecting..."),
	}

	toolbar := createToolbar(state)
	window.SetContent(container.NewBorder(toolbar, state.status, nil, nil, state.scopeWidget))

	bindKeys(window, p.loop.Controls(), cfg.Recording)
	if cfg.Recording.GlobalKeys {
		go global.Listen(ctx, p.keys, log)
	}

	p.loop.OnUpdate(func(s sample.Sample) {
		state.latest.Store(&s)
	})
	p.loop.OnError(func(err error) {
		fyne.Do(func() {
			state.status.SetText(fmt.Sprintf("Error: %v", err))
			if errors.Is(err, acquisition.ErrRecording) {
				dialog.ShowError(err, state.window)
			}
		})
	})

	go scope.Poll(ctx, state.scopeWidget, scope.SourceFunc(state.frame), cfg.Display.Refresh)
	go state.pollStatus(ctx)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		state.acquire(ctx)
	}()

	go func() {
		<-ctx.Done()
		fyne.Do(application.Quit)
	}()

	window.ShowAndRun()

	cancel()
	<-loopDone
	return nil
}

// acquire connects the device and runs the loop until ctx is cancelled.
func (state *appState) acquire(ctx context.Context) {
	p := state.pipeline
	if err := p.connect(ctx, state.cfg, state.log); err != nil {
		state.log.Errorw("Connection failed", "error", err)
		fyne.Do(func() {
			state.status.SetText("Disconnected")
			dialog.ShowError(err, state.window)
		})
		return
	}
	state.connected.Store(true)
	defer state.connected.Store(false)

	if err := p.loop.Run(ctx); err != nil {
		state.log.Errorw("Acquisition stopped", "error", err)
	}
}

// frame snapshots the data shown by the scope.
func (state *appState) frame() scope.Frame {
	f := scope.Frame{
		Values:    state.pipeline.buffer.Values(),
		Recording: state.pipeline.loop.Recording(),
	}
	if s := state.latest.Load(); s != nil {
		f.Impulse = s.IsImpulse
	}
	return f
}

// createToolbar creates the toolbar with Record, Stop and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	recordBtn := widget.NewButtonWithIcon("Record", theme.MediaRecordIcon(), func() {
		state.pipeline.loop.RequestStart()
	})
	state.recordBtn = recordBtn

	stopBtn := widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		state.pipeline.loop.RequestStop()
	})
	state.stopBtn = stopBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	keysHint := widget.NewLabel(fmt.Sprintf("'%s' start · '%s' stop",
		state.cfg.Recording.StartKey, state.cfg.Recording.StopKey))

	return container.NewBorder(nil, nil,
		container.NewHBox(recordBtn, stopBtn),
		container.NewHBox(keysHint, settingsBtn),
		nil,
	)
}

// bindKeys feeds window key events into the recording controls.
// Desktop drivers report key down/up, so held keys are tracked as levels;
// other drivers only report typed keys, which become one-shot triggers.
func bindKeys(window fyne.Window, controls *toggle.Controls, rec config.RecordingConfig) {
	keys := controls.Keys()

	deskCanvas, ok := window.Canvas().(desktop.Canvas)
	if !ok {
		window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			switch {
			case strings.EqualFold(string(ev.Name), rec.StartKey):
				controls.TriggerStart()
			case strings.EqualFold(string(ev.Name), rec.StopKey):
				controls.TriggerStop()
			}
		})
		return
	}

	deskCanvas.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		keys.Press(string(ev.Name))
	})
	deskCanvas.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		keys.Release(string(ev.Name))
	})
}
