package gsr

import (
	"context"
	"fmt"
	"sync"

	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/logging"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"
)

// MaxPayloadSize bounds a single characteristic read (maximum ATT attribute length).
const MaxPayloadSize = 512

// BLE reads the ADC characteristic of a GSR sensor over Bluetooth Low Energy.
type BLE struct {
	adapter        *bluetooth.Adapter
	address        string
	characteristic string
	log            *zap.SugaredLogger

	mu        sync.Mutex
	enabled   bool
	device    bluetooth.Device
	char      bluetooth.DeviceCharacteristic
	buf       []byte
	connected bool
}

// NewBLE creates a BLE device for the peripheral at address (MAC on Linux and
// Windows, peripheral UUID on macOS) exposing the given characteristic UUID.
func NewBLE(address, characteristic string, log *zap.SugaredLogger) *BLE {
	return &BLE{
		adapter:        bluetooth.DefaultAdapter,
		address:        address,
		characteristic: characteristic,
		log:            logging.OrNop(log),
		buf:            make([]byte, MaxPayloadSize),
	}
}

// Connect enables the adapter, connects to the peripheral and looks up the characteristic.
func (d *BLE) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := config.ValidateBLEAddress(d.address); err != nil {
		return err
	}

	charUUID, err := bluetooth.ParseUUID(d.characteristic)
	if err != nil {
		return fmt.Errorf("invalid characteristic uuid %q: %w", d.characteristic, err)
	}

	if !d.enabled {
		if err := d.adapter.Enable(); err != nil {
			return fmt.Errorf("failed to enable bluetooth adapter: %w", err)
		}
		d.enabled = true
	}

	// Set has no error result on every platform; the address was checked above.
	var addr bluetooth.Address
	addr.Set(d.address)

	device, err := d.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.address, err)
	}

	char, err := findCharacteristic(device, charUUID)
	if err != nil {
		if derr := device.Disconnect(); derr != nil {
			d.log.Warnw("Error disconnecting", "address", d.address, "error", derr)
		}
		return err
	}

	d.device = device
	d.char = char
	d.connected = true
	d.log.Infow("Connected to GSR sensor", "address", d.address, "characteristic", d.characteristic)

	return nil
}

// findCharacteristic walks every service of the device until the characteristic is found.
func findCharacteristic(device bluetooth.Device, uuid bluetooth.UUID) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("failed to discover services: %w", err)
	}

	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{uuid})
		if err != nil || len(chars) == 0 {
			continue
		}
		return chars[0], nil
	}

	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("characteristic %s not found", uuid.String())
}

// Read performs one GATT read of the characteristic.
// The returned slice is a copy and stays valid after the next Read.
func (d *BLE) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil, ErrNotConnected
	}

	n, err := d.char.Read(d.buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read characteristic: %w", err)
	}

	payload := make([]byte, n)
	copy(payload, d.buf[:n])
	return payload, nil
}

// Close disconnects from the peripheral.
func (d *BLE) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.connected = false
	if err := d.device.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from %s: %w", d.address, err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *BLE) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}
