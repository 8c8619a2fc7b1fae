package gsr

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// pipePort adapts an io.Pipe to the io.ReadWriteCloser a serial port provides.
type pipePort struct {
	*io.PipeReader
}

func (p pipePort) Write(b []byte) (int, error) { return len(b), nil }

func TestNewSerial_Defaults(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, nil)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.False(t, dev.IsConnected())
}

func TestSerial_ReadBeforeConnect(t *testing.T) {
	dev := NewSerial("/dev/ttyACM0", 0, nil)
	_, err := dev.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSerial_ReadsLines(t *testing.T) {
	pr, pw := io.Pipe()
	dev := NewSerial("pipe", 0, zaptest.NewLogger(t).Sugar())
	require.NoError(t, dev.attach(pipePort{pr}))
	assert.True(t, dev.IsConnected())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := pw.Write([]byte("2048\r\n"))
	require.NoError(t, err)
	line, err := dev.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2048", string(line))

	_, err = pw.Write([]byte("\n3000\n"))
	require.NoError(t, err)
	line, err = dev.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3000", string(line))

	require.NoError(t, pw.Close())
	_, err = dev.Read(ctx)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	require.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}

func TestSerial_ReadHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dev := NewSerial("pipe", 0, nil)
	require.NoError(t, dev.attach(pipePort{pr}))
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := dev.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSerial_AttachTwice(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	dev := NewSerial("pipe", 0, nil)
	require.NoError(t, dev.attach(pipePort{pr}))
	defer dev.Close()

	pr2, pw2 := io.Pipe()
	defer pw2.Close()
	assert.Error(t, dev.attach(pipePort{pr2}))
}
