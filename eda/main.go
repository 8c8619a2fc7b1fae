package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/goeda/pkg/acquisition"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/display"
	"github.com/itohio/goeda/pkg/gsr"
	"github.com/itohio/goeda/pkg/logging"
	"github.com/itohio/goeda/pkg/osc"
	"github.com/itohio/goeda/pkg/recorder"
	"github.com/itohio/goeda/pkg/toggle"
	"github.com/itohio/goeda/pkg/toggle/global"
	"go.uber.org/zap"
)

// flags holds command-line overrides.
type flags struct {
	configPath string
	mock       bool
	transport  string
	address    string
	port       string
	outDir     string
	headless   bool
	globalKeys bool
	debug      bool
	forward    string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("eda", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "config.yaml", "Configuration file path")
	fs.BoolVar(&f.mock, "mock", false, "Use a simulated sensor instead of the device")
	fs.StringVar(&f.transport, "transport", "", "Transport override: ble, serial or mock")
	fs.StringVar(&f.address, "address", "", "BLE address override")
	fs.StringVar(&f.port, "p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
	fs.StringVar(&f.outDir, "out", "", "Directory for session CSV files")
	fs.BoolVar(&f.headless, "headless", false, "Run without a window; keys are read system-wide")
	fs.BoolVar(&f.globalKeys, "global-keys", false, "Read start/stop keys system-wide")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging (prints every sample)")
	fs.StringVar(&f.forward, "forward", "", "Forward samples over OSC to host (port and address from config)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply writes the overrides into cfg.
func (f *flags) apply(cfg *config.Config) {
	if f.transport != "" {
		cfg.Device.Transport = f.transport
	}
	if f.mock {
		cfg.Device.Transport = config.TransportMock
	}
	if f.address != "" {
		cfg.Device.Address = f.address
	}
	if f.port != "" {
		cfg.Device.SerialPort = f.port
	}
	if f.outDir != "" {
		cfg.Recording.Dir = f.outDir
	}
	if f.globalKeys {
		cfg.Recording.GlobalKeys = true
	}
	if f.debug {
		cfg.Log.Debug = true
	}
	if f.forward != "" {
		cfg.OSC.ForwardHost = f.forward
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	saved := cfg.Clone()
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if f.headless {
		err = runHeadless(ctx, cfg, logger)
	} else {
		err = runGUI(ctx, cancel, cfg, saved, f.configPath, logger)
	}
	if err != nil {
		logger.Errorw("Exiting", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

// pipeline is the acquisition chain shared by both front ends.
type pipeline struct {
	device   gsr.Device
	keys     *toggle.Keys
	buffer   *display.Buffer
	recorder *recorder.Recorder
	loop     *acquisition.Loop
}

// newDevice creates the device selected by cfg.Device.Transport.
func newDevice(cfg *config.Config, log *zap.SugaredLogger) (gsr.Device, error) {
	switch cfg.Device.Transport {
	case config.TransportBLE:
		return gsr.NewBLE(cfg.Device.Address, cfg.Device.Characteristic, log), nil
	case config.TransportSerial:
		return gsr.NewSerial(cfg.Device.SerialPort, cfg.Device.BaudRate, log), nil
	case config.TransportMock:
		return gsr.NewMock(&cfg.Mock, cfg.ADC.Resolution), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Device.Transport)
	}
}

func newPipeline(cfg *config.Config, log *zap.SugaredLogger) (*pipeline, error) {
	device, err := newDevice(cfg, log)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		device:   device,
		keys:     toggle.NewKeys(),
		buffer:   display.NewBuffer(cfg.Display.Window),
		recorder: recorder.New(cfg.Recording, log),
	}
	controls := toggle.NewControls(p.keys, cfg.Recording.StartKey, cfg.Recording.StopKey)
	p.loop = acquisition.New(cfg, device, controls, p.recorder, p.buffer, log)

	if cfg.OSC.ForwardHost != "" {
		p.loop.SetForwarder(osc.NewSender(cfg.OSC.ForwardHost, cfg.OSC.ForwardPort, cfg.OSC.ForwardAddress))
		log.Infow("Forwarding samples over OSC",
			"host", cfg.OSC.ForwardHost, "port", cfg.OSC.ForwardPort, "address", cfg.OSC.ForwardAddress)
	}

	return p, nil
}

// connect opens the device and logs the outcome.
func (p *pipeline) connect(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	if err := p.device.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect (%s): %w", cfg.Device.Transport, err)
	}
	log.Infow("Connected", "transport", cfg.Device.Transport, "address", cfg.Device.Address)
	log.Infof("Press '%s' to start saving and '%s' to stop.", cfg.Recording.StartKey, cfg.Recording.StopKey)
	return nil
}

// runHeadless reads the sensor without a window until ctx is cancelled.
// Start/stop keys are read system-wide.
func runHeadless(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer p.device.Close()

	if err := p.connect(ctx, cfg, log); err != nil {
		return err
	}

	go global.Listen(ctx, p.keys, log)

	err = p.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
