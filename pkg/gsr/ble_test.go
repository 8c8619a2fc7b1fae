package gsr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBLE(t *testing.T) {
	dev := NewBLE("08:A6:F7:6B:37:C2", "beb5483e-36e1-4688-b7f5-ea07361b26a8", nil)
	assert.Equal(t, "08:A6:F7:6B:37:C2", dev.address)
	assert.Len(t, dev.buf, MaxPayloadSize)
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}

func TestBLE_ReadBeforeConnect(t *testing.T) {
	dev := NewBLE("08:A6:F7:6B:37:C2", "beb5483e-36e1-4688-b7f5-ea07361b26a8", nil)
	_, err := dev.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBLE_ConnectRejectsBadUUID(t *testing.T) {
	dev := NewBLE("08:A6:F7:6B:37:C2", "not-a-uuid", nil)
	err := dev.Connect(context.Background())
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestBLE_ConnectHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := NewBLE("08:A6:F7:6B:37:C2", "beb5483e-36e1-4688-b7f5-ea07361b26a8", nil)
	assert.ErrorIs(t, dev.Connect(ctx), context.Canceled)
}

func TestBLE_ConnectRejectsMistypedAddress(t *testing.T) {
	dev := NewBLE("08:A6:F7:6B:37", "beb5483e-36e1-4688-b7f5-ea07361b26a8", nil)
	err := dev.Connect(context.Background())
	assert.ErrorContains(t, err, "invalid ble address")
	assert.False(t, dev.IsConnected())
}
