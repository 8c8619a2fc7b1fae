package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Transport names accepted in DeviceConfig.Transport.
const (
	TransportBLE    = "ble"
	TransportSerial = "serial"
	TransportMock   = "mock"
)

// Config represents the application configuration.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	ADC         ADCConfig         `yaml:"adc"`
	Impulse     ImpulseConfig     `yaml:"impulse"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Display     DisplayConfig     `yaml:"display"`
	Recording   RecordingConfig   `yaml:"recording"`
	OSC         OSCConfig         `yaml:"osc"`
	Mock        MockConfig        `yaml:"mock"`
	Log         LogConfig         `yaml:"log"`
}

// DeviceConfig selects and addresses the sensor transport.
type DeviceConfig struct {
	Transport      string `yaml:"transport"`      // ble, serial or mock
	Address        string `yaml:"address"`        // BLE MAC address of the sensor
	Characteristic string `yaml:"characteristic"` // UUID of the readable ADC characteristic
	SerialPort     string `yaml:"serial_port"`
	BaudRate       int    `yaml:"baud_rate"`
}

// ADCConfig describes the converter and the voltage divider around the skin electrodes.
type ADCConfig struct {
	Resolution int     `yaml:"resolution"` // Full-scale ADC count
	VCC        float64 `yaml:"vcc"`        // Supply voltage (V)
	RFixed     float64 `yaml:"r_fixed"`    // Fixed divider resistor (Ω)
}

// ImpulseConfig contains the impulse detector parameters.
type ImpulseConfig struct {
	Window       int     `yaml:"window"`        // Trailing window length in samples
	MinThreshold float64 `yaml:"min_threshold"` // Exclusive lower bound of delta (µS)
	MaxThreshold float64 `yaml:"max_threshold"` // Exclusive upper bound of delta (µS)
}

// AcquisitionConfig contains the polling cadence.
type AcquisitionConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DisplayConfig contains live plot parameters.
type DisplayConfig struct {
	Window  int           `yaml:"window"` // Samples kept for the plot
	YMin    float64       `yaml:"y_min"`
	YMax    float64       `yaml:"y_max"`
	Refresh time.Duration `yaml:"refresh"`
}

// RecordingConfig contains CSV session parameters.
type RecordingConfig struct {
	Dir        string `yaml:"dir"`
	StartKey   string `yaml:"start_key"`
	StopKey    string `yaml:"stop_key"`
	GlobalKeys bool   `yaml:"global_keys"` // Listen to the keyboard outside the window too
	Sync       bool   `yaml:"sync"`        // fsync after every row
}

// OSCConfig contains relay and forwarding parameters.
type OSCConfig struct {
	Listen         string        `yaml:"listen"`
	Address        string        `yaml:"address"`    // "/prompt" or "*" for catch-all
	QueueSize      int           `yaml:"queue_size"` // 0 = unbounded
	Poll           time.Duration `yaml:"poll"`
	ForwardHost    string        `yaml:"forward_host"` // Empty disables forwarding of samples
	ForwardPort    int           `yaml:"forward_port"`
	ForwardAddress string        `yaml:"forward_address"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	BaselineADC    int           `yaml:"baseline_adc"`    // Resting ADC level
	NoiseLevel     float64       `yaml:"noise_level"`     // Noise amplitude (ADC counts)
	ResponseADC    float64       `yaml:"response_adc"`    // Depth of a simulated skin-conductance response (ADC counts)
	ResponsePeriod time.Duration `yaml:"response_period"` // Time between responses
	MalformedRate  float64       `yaml:"malformed_rate"`  // Probability of a corrupted payload per read
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport:      TransportBLE,
			Address:        "08:A6:F7:6B:37:C2",
			Characteristic: "beb5483e-36e1-4688-b7f5-ea07361b26a8",
			SerialPort:     "/dev/ttyACM0",
			BaudRate:       115200,
		},
		ADC: ADCConfig{
			Resolution: 4095,
			VCC:        3.3,
			RFixed:     10000,
		},
		Impulse: ImpulseConfig{
			Window:       10,
			MinThreshold: 0.1,
			MaxThreshold: 0.5,
		},
		Acquisition: AcquisitionConfig{
			Interval: 250 * time.Millisecond,
		},
		Display: DisplayConfig{
			Window:  100,
			YMin:    0,
			YMax:    20,
			Refresh: 250 * time.Millisecond,
		},
		Recording: RecordingConfig{
			Dir:      ".",
			StartKey: "s",
			StopKey:  "q",
		},
		OSC: OSCConfig{
			Listen:         "0.0.0.0:10001",
			Address:        "/prompt",
			Poll:           100 * time.Millisecond,
			ForwardPort:    10000,
			ForwardAddress: "/gsr",
		},
		Mock: MockConfig{
			BaselineADC:    3850,
			NoiseLevel:     4,
			ResponseADC:    120,
			ResponsePeriod: 15 * time.Second,
			MalformedRate:  0.02,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Validate reports settings that would make the measurement meaningless.
func (c *Config) Validate() error {
	var errs []error

	switch c.Device.Transport {
	case TransportBLE, TransportSerial, TransportMock:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Device.Transport))
	}
	if c.Device.Transport == TransportBLE {
		if err := ValidateBLEAddress(c.Device.Address); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ADC.Resolution <= 0 || c.ADC.Resolution > 65535 {
		errs = append(errs, fmt.Errorf("adc resolution must be in (0, 65535], got %d", c.ADC.Resolution))
	}
	if c.ADC.VCC <= 0 {
		errs = append(errs, fmt.Errorf("adc vcc must be positive, got %g", c.ADC.VCC))
	}
	if c.ADC.RFixed <= 0 {
		errs = append(errs, fmt.Errorf("adc r_fixed must be positive, got %g", c.ADC.RFixed))
	}
	if c.Impulse.Window <= 0 {
		errs = append(errs, fmt.Errorf("impulse window must be positive, got %d", c.Impulse.Window))
	}
	if c.Impulse.MinThreshold >= c.Impulse.MaxThreshold {
		errs = append(errs, fmt.Errorf("impulse min_threshold (%g) must be below max_threshold (%g)",
			c.Impulse.MinThreshold, c.Impulse.MaxThreshold))
	}
	if c.Acquisition.Interval <= 0 {
		errs = append(errs, fmt.Errorf("acquisition interval must be positive, got %s", c.Acquisition.Interval))
	}
	if c.Display.Window <= 0 {
		errs = append(errs, fmt.Errorf("display window must be positive, got %d", c.Display.Window))
	}
	if c.Display.YMin >= c.Display.YMax {
		errs = append(errs, fmt.Errorf("display y_min (%g) must be below y_max (%g)", c.Display.YMin, c.Display.YMax))
	}

	return errors.Join(errs...)
}

// ValidateBLEAddress accepts a 48-bit MAC address (Linux, Windows) or a
// peripheral UUID (macOS).
func ValidateBLEAddress(address string) error {
	if mac, err := net.ParseMAC(address); err == nil && len(mac) == 6 {
		return nil
	}
	if _, err := uuid.Parse(address); err == nil {
		return nil
	}
	return fmt.Errorf("invalid ble address %q: want AA:BB:CC:DD:EE:FF or a peripheral UUID", address)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Device.Transport == "" {
		c.Device.Transport = def.Device.Transport
	}
	if c.Device.Characteristic == "" {
		c.Device.Characteristic = def.Device.Characteristic
	}
	if c.Device.BaudRate == 0 {
		c.Device.BaudRate = def.Device.BaudRate
	}

	if c.ADC.Resolution == 0 {
		c.ADC.Resolution = def.ADC.Resolution
	}
	if c.ADC.VCC == 0 {
		c.ADC.VCC = def.ADC.VCC
	}
	if c.ADC.RFixed == 0 {
		c.ADC.RFixed = def.ADC.RFixed
	}

	if c.Impulse.Window == 0 {
		c.Impulse.Window = def.Impulse.Window
	}

	if c.Acquisition.Interval == 0 {
		c.Acquisition.Interval = def.Acquisition.Interval
	}

	if c.Display.Window == 0 {
		c.Display.Window = def.Display.Window
	}
	if c.Display.YMin == 0 && c.Display.YMax == 0 {
		c.Display.YMin = def.Display.YMin
		c.Display.YMax = def.Display.YMax
	}
	if c.Display.Refresh == 0 {
		c.Display.Refresh = def.Display.Refresh
	}

	if c.Recording.Dir == "" {
		c.Recording.Dir = def.Recording.Dir
	}
	if c.Recording.StartKey == "" {
		c.Recording.StartKey = def.Recording.StartKey
	}
	if c.Recording.StopKey == "" {
		c.Recording.StopKey = def.Recording.StopKey
	}

	if c.OSC.Listen == "" {
		c.OSC.Listen = def.OSC.Listen
	}
	if c.OSC.Address == "" {
		c.OSC.Address = def.OSC.Address
	}
	if c.OSC.Poll == 0 {
		c.OSC.Poll = def.OSC.Poll
	}
	if c.OSC.ForwardPort == 0 {
		c.OSC.ForwardPort = def.OSC.ForwardPort
	}
	if c.OSC.ForwardAddress == "" {
		c.OSC.ForwardAddress = def.OSC.ForwardAddress
	}

	if c.Mock.BaselineADC == 0 {
		c.Mock.BaselineADC = def.Mock.BaselineADC
	}
	if c.Mock.ResponsePeriod == 0 {
		c.Mock.ResponsePeriod = def.Mock.ResponsePeriod
	}
}
