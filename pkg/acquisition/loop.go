// Package acquisition runs the fixed-rate read/convert/classify/record loop.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/display"
	"github.com/itohio/goeda/pkg/gsr"
	"github.com/itohio/goeda/pkg/impulse"
	"github.com/itohio/goeda/pkg/logging"
	"github.com/itohio/goeda/pkg/recorder"
	"github.com/itohio/goeda/pkg/sample"
	"github.com/itohio/goeda/pkg/toggle"
	"go.uber.org/zap"
)

// ErrRecording wraps recorder failures. They end the current session and
// are reported through OnError; acquisition keeps running.
var ErrRecording = errors.New("recording failed")

// Forwarder publishes samples to another program, e.g. over OSC.
type Forwarder interface {
	Forward(s sample.Sample) error
}

// Loop polls the device once per interval and drives the display buffer
// and the recorder. Tick and Run must be called from a single goroutine;
// the remaining methods are safe to call from anywhere.
type Loop struct {
	device     gsr.Device
	resolution int
	converter  sample.Converter
	detector   *impulse.Detector
	controls   *toggle.Controls
	recorder   *recorder.Recorder
	buffer     *display.Buffer
	forwarder  Forwarder
	interval   time.Duration
	log        *zap.SugaredLogger
	now        func() time.Time

	// session is owned by the loop goroutine.
	session   *recorder.Session
	recording atomic.Bool
	running   atomic.Bool

	callbacks    []func(sample.Sample)
	errCallbacks []func(error)
	cbMu         sync.RWMutex
}

// New creates a loop. controls may be nil when recording is only driven by
// RequestStart/RequestStop.
func New(cfg *config.Config, device gsr.Device, controls *toggle.Controls, rec *recorder.Recorder, buf *display.Buffer, log *zap.SugaredLogger) *Loop {
	if controls == nil {
		controls = toggle.NewControls(nil, cfg.Recording.StartKey, cfg.Recording.StopKey)
	}
	if buf == nil {
		buf = display.NewBuffer(cfg.Display.Window)
	}
	log = logging.OrNop(log)
	if rec == nil {
		rec = recorder.New(cfg.Recording, log)
	}

	return &Loop{
		device:     device,
		resolution: cfg.ADC.Resolution,
		converter:  sample.NewConverter(cfg.ADC),
		detector:   impulse.NewDetector(cfg.Impulse.Window, cfg.Impulse.MinThreshold, cfg.Impulse.MaxThreshold),
		controls:   controls,
		recorder:   rec,
		buffer:     buf,
		interval:   cfg.Acquisition.Interval,
		log:        log,
		now:        time.Now,
	}
}

// SetForwarder installs an optional sample forwarder. Call before Run.
func (l *Loop) SetForwarder(f Forwarder) {
	l.forwarder = f
}

// Buffer returns the display buffer fed by the loop.
func (l *Loop) Buffer() *display.Buffer {
	return l.buffer
}

// Controls returns the start/stop controls polled by the loop.
func (l *Loop) Controls() *toggle.Controls {
	return l.controls
}

// RequestStart asks the loop to begin (or rotate) a session on its next tick.
func (l *Loop) RequestStart() {
	l.controls.TriggerStart()
}

// RequestStop asks the loop to end the session on its next tick.
func (l *Loop) RequestStop() {
	l.controls.TriggerStop()
}

// Recording reports whether a session is open.
func (l *Loop) Recording() bool {
	return l.recording.Load()
}

// Running reports whether Run is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// OnUpdate registers a callback invoked with every successfully read sample.
// Callbacks run on the loop goroutine and should return quickly.
func (l *Loop) OnUpdate(callback func(s sample.Sample)) {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// OnError registers a callback invoked with transport and recording errors.
func (l *Loop) OnError(callback func(err error)) {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	l.errCallbacks = append(l.errCallbacks, callback)
}

// Run ticks every interval until ctx is cancelled and then returns nil.
// Recording failures end the session but not the loop. Any open session is
// closed on return.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)
	defer l.running.Store(false)
	defer l.endSession()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Infow("Acquisition started", "interval", l.interval)
	defer l.log.Infow("Acquisition stopped")

	for {
		// Already logged and passed to OnError.
		_ = l.Tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one acquisition step: read, convert, classify, buffer,
// apply start/stop edges, record. A tick without a valid sample is discarded
// before the controls are polled, so pending button requests wait for the
// next good tick. Only recording failures are returned.
func (l *Loop) Tick(ctx context.Context) error {
	s, ok := l.acquire(ctx)
	if !ok {
		return nil
	}

	l.buffer.Push(s.Conductance)
	l.notifyUpdate(s)

	start, stop := l.controls.Poll()
	if start {
		if err := l.beginSession(); err != nil {
			return l.recordingFailed(err)
		}
	}
	if stop {
		l.endSession()
	}

	if l.session != nil {
		if err := l.session.Append(recorder.RecordFromSample(s)); err != nil {
			l.endSession()
			return l.recordingFailed(err)
		}
	}

	if l.forwarder != nil {
		if err := l.forwarder.Forward(s); err != nil {
			l.log.Warnw("Failed to forward sample", "error", err)
		}
	}

	return nil
}

// acquire reads and decodes one sample. Malformed payloads are dropped
// quietly; transport errors are reported and the tick is skipped.
func (l *Loop) acquire(ctx context.Context) (sample.Sample, bool) {
	payload, err := l.device.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return sample.Sample{}, false
		}
		if errors.Is(err, gsr.ErrMalformed) {
			l.log.Debugw("Dropping malformed payload", "error", err)
			return sample.Sample{}, false
		}
		l.log.Warnw("Device read failed", "error", err)
		l.notifyError(err)
		return sample.Sample{}, false
	}

	raw, err := gsr.ParseADC(payload, l.resolution)
	if err != nil {
		l.log.Debugw("Dropping malformed payload", "payload", string(payload), "error", err)
		return sample.Sample{}, false
	}

	capturedAt := l.now()
	conductance := l.converter.Conductance(raw)
	res := l.detector.Classify(conductance)

	s := sample.Sample{
		CapturedAt:    capturedAt,
		RawADC:        raw,
		Conductance:   conductance,
		MovingAverage: res.MovingAverage,
		Delta:         res.Delta,
		IsImpulse:     res.IsImpulse,
	}

	l.log.Debugw("Sample",
		"ts", float64(capturedAt.UnixMilli())/1e3,
		"datetime", capturedAt.Format("2006-01-02 15:04:05.000"),
		"adc", raw,
		"uS", conductance,
		"delta", res.Delta,
		"impulse", res.IsImpulse,
	)

	return s, true
}

// beginSession opens a new session, closing the current one first.
func (l *Loop) beginSession() error {
	session, err := l.recorder.Begin()
	if err != nil {
		l.session = nil
		l.recording.Store(false)
		return err
	}
	l.session = session
	l.recording.Store(true)
	return nil
}

// endSession closes the current session. It is a no-op when not recording.
func (l *Loop) endSession() {
	if l.session == nil {
		return
	}
	l.session = nil
	l.recording.Store(false)

	if err := l.recorder.End(); err != nil {
		l.log.Warnw("Error closing session", "error", err)
		l.notifyError(fmt.Errorf("%w: %w", ErrRecording, err))
	}
}

func (l *Loop) recordingFailed(err error) error {
	err = fmt.Errorf("%w: %w", ErrRecording, err)
	l.log.Errorw("Recording stopped", "error", err)
	l.notifyError(err)
	return err
}

// notifyUpdate invokes update callbacks without holding the lock.
func (l *Loop) notifyUpdate(s sample.Sample) {
	l.cbMu.RLock()
	callbacks := make([]func(sample.Sample), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(s)
		}
	}
}

func (l *Loop) notifyError(err error) {
	l.cbMu.RLock()
	callbacks := make([]func(error), len(l.errCallbacks))
	copy(callbacks, l.errCallbacks)
	l.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(err)
		}
	}
}
