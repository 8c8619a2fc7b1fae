package gsr

import (
	"context"
	"testing"
	"time"

	"github.com/itohio/goeda/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietMockConfig() *config.MockConfig {
	return &config.MockConfig{
		BaselineADC:    3850,
		NoiseLevel:     0,
		ResponseADC:    60,
		ResponsePeriod: 15 * time.Second,
		MalformedRate:  0,
	}
}

func TestNewMock_Defaults(t *testing.T) {
	m := NewMock(nil, 0)
	assert.NotNil(t, m.cfg)
	assert.Equal(t, 4095, m.resolution)
	assert.False(t, m.IsConnected())
}

func TestMock_ReadBeforeConnect(t *testing.T) {
	m := NewMock(quietMockConfig(), 4095)
	_, err := m.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestMock_Lifecycle(t *testing.T) {
	m := NewMock(quietMockConfig(), 4095)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect(ctx), "second connect should fail")

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
	assert.NoError(t, m.Close())
}

func TestMock_ReadingFollowsResponseShape(t *testing.T) {
	m := NewMock(quietMockConfig(), 4095)
	start := time.Unix(1700000000, 0)
	now := start
	m.now = func() time.Time { return now }

	require.NoError(t, m.Connect(context.Background()))

	payload, err := m.Read(context.Background())
	require.NoError(t, err)
	adc, err := ParseADC(payload, 4095)
	require.NoError(t, err)
	assert.Equal(t, uint16(3850), adc, "no response at t=0")

	now = start.Add(scrRiseTime)
	payload, err = m.Read(context.Background())
	require.NoError(t, err)
	adc, err = ParseADC(payload, 4095)
	require.NoError(t, err)
	assert.Equal(t, uint16(3790), adc, "response peaks at the rise time")

	now = start.Add(15 * time.Second)
	payload, err = m.Read(context.Background())
	require.NoError(t, err)
	adc, err = ParseADC(payload, 4095)
	require.NoError(t, err)
	assert.Equal(t, uint16(3850), adc, "period restarts the response")
}

func TestMock_MalformedPayloads(t *testing.T) {
	cfg := quietMockConfig()
	cfg.MalformedRate = 1
	m := NewMock(cfg, 4095)
	require.NoError(t, m.Connect(context.Background()))

	for range 20 {
		payload, err := m.Read(context.Background())
		require.NoError(t, err)
		_, err = ParseADC(payload, 4095)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestMock_ClampsToResolution(t *testing.T) {
	cfg := quietMockConfig()
	cfg.BaselineADC = 5000
	m := NewMock(cfg, 4095)
	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, uint16(4095), m.generateReading())
}

func TestResponseShape(t *testing.T) {
	assert.Equal(t, 0.0, responseShape(0, 10*time.Second))
	assert.InDelta(t, 1.0, responseShape(scrRiseTime, 10*time.Second), 1e-12)
	assert.Less(t, responseShape(8*time.Second, 10*time.Second), 0.1)
	assert.Equal(t, 0.0, responseShape(time.Second, 0))
}
