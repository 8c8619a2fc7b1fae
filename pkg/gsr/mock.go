package gsr

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/goeda/pkg/config"
)

// scrRiseTime is the time a simulated skin-conductance response takes to peak.
const scrRiseTime = 1500 * time.Millisecond

// malformedPayloads are returned when the mock simulates a corrupted read.
var malformedPayloads = [][]byte{
	[]byte("ERR"),
	[]byte(""),
	[]byte("20\x0048"),
	{0xff, 0xfe},
	[]byte("4O95"),
}

// Mock simulates a GSR sensor for testing and development.
// Lower ADC values mean lower skin resistance, so a response dips the reading.
type Mock struct {
	cfg        *config.MockConfig
	resolution int

	mu        sync.Mutex
	connected bool
	startTime time.Time
	now       func() time.Time
	rng       *rand.Rand
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig, resolution int) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}
	if resolution <= 0 {
		resolution = config.Default().ADC.Resolution
	}

	seed := uint64(time.Now().UnixNano())
	return &Mock{
		cfg:        cfg,
		resolution: resolution,
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = m.now()

	return nil
}

// Read returns a simulated ASCII ADC reading, or a corrupted payload
// with probability MalformedRate.
func (m *Mock) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	if m.cfg.MalformedRate > 0 && m.rng.Float64() < m.cfg.MalformedRate {
		return malformedPayloads[m.rng.IntN(len(malformedPayloads))], nil
	}

	return []byte(strconv.Itoa(int(m.generateReading()))), nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// generateReading generates a single simulated ADC reading.
func (m *Mock) generateReading() uint16 {
	elapsed := m.now().Sub(m.startTime)

	value := float64(m.cfg.BaselineADC) - m.cfg.ResponseADC*responseShape(elapsed, m.cfg.ResponsePeriod)
	if m.cfg.NoiseLevel > 0 {
		value += m.rng.NormFloat64() * m.cfg.NoiseLevel
	}

	value = math.Round(value)
	if value < 0 {
		value = 0
	} else if value > float64(m.resolution) {
		value = float64(m.resolution)
	}

	return uint16(value)
}

// responseShape returns the normalised amplitude (0..1) of the periodic
// skin-conductance response at the given time since connect.
// Shape: t/τ·e^(1-t/τ), a fast rise peaking at τ followed by a slow decay.
func responseShape(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}

	t := float64(elapsed%period) / float64(scrRiseTime)
	return t * math.Exp(1-t)
}
