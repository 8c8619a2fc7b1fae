package gsr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/itohio/goeda/pkg/logging"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	// DefaultBaudRate matches the firmware's USB-serial console.
	DefaultBaudRate = 115200
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads one ASCII ADC reading per line from a USB-serial port.
// Only the freshest unread line is kept; older lines are overwritten.
type Serial struct {
	port     string
	baudRate int
	log      *zap.SugaredLogger

	conn      io.ReadWriteCloser
	lines     chan []byte
	done      chan struct{}
	mu        sync.RWMutex
	connected bool
}

// NewSerial creates a serial device with the specified port and baud rate.
func NewSerial(port string, baudRate int, log *zap.SugaredLogger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		log:      logging.OrNop(log),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	return d.attach(port)
}

// attach starts the line reader on an already opened stream.
func (d *Serial) attach(conn io.ReadWriteCloser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		conn.Close()
		return fmt.Errorf("already connected")
	}

	d.conn = conn
	d.lines = make(chan []byte, 1)
	d.done = make(chan struct{})
	d.connected = true

	go d.readLines(conn, d.lines, d.done)

	return nil
}

// Read returns the next line received from the port, waiting for one if needed.
func (d *Serial) Read(ctx context.Context) ([]byte, error) {
	d.mu.RLock()
	lines, connected := d.lines, d.connected
	d.mu.RUnlock()

	if !connected {
		return nil, ErrNotConnected
	}

	select {
	case line, ok := <-lines:
		if !ok {
			return nil, fmt.Errorf("serial port %s: %w", d.port, io.ErrUnexpectedEOF)
		}
		return line, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the port and stops the reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	close(d.done)
	d.connected = false

	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", d.port, err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines scans lines from the port into the single-slot lines channel.
// The channel is closed when the stream ends.
func (d *Serial) readLines(src io.Reader, lines chan []byte, done <-chan struct{}) {
	defer close(lines)
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("Panic in serial reader", "panic", r)
		}
	}()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		payload := []byte(line)

		// Replace a stale unread line with the fresh one.
		for {
			select {
			case <-done:
				return
			case lines <- payload:
			default:
				select {
				case <-lines:
				default:
				}
				continue
			}
			break
		}
	}

	select {
	case <-done:
	default:
		if err := scanner.Err(); err != nil {
			d.log.Warnw("Error reading from serial port", "port", d.port, "error", err)
		}
	}
}
