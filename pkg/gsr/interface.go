package gsr

import "context"

// Device defines the interface for GSR sensors (BLE, serial or mocked).
// Read is polled by the acquisition loop; each call returns one payload.
type Device interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) ([]byte, error)
	Close() error
	IsConnected() bool
}

// Ensure BLE implements Device.
var _ Device = (*BLE)(nil)

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
