package main

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itohio/goeda/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []any{int32(42), float32(1.5), "hello", "-x-"}, parseArgs([]string{"42", "1.5", "hello", "-x-"}))
	assert.Empty(t, parseArgs(nil))
}

func TestSend_InvalidTarget(t *testing.T) {
	assert.Error(t, send("localhost", "/example", nil))
	assert.Error(t, send("localhost:abc", "/example", nil))
}

func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestRelay_PrintsSentMessages(t *testing.T) {
	port := freePort(t)
	cfg := config.Default().OSC
	cfg.Listen = "127.0.0.1:" + strconv.Itoa(port)
	cfg.Address = "*"
	cfg.Poll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- relay(ctx, cfg, out, zaptest.NewLogger(t).Sugar()) }()

	target := "127.0.0.1:" + strconv.Itoa(port)
	assert.Eventually(t, func() bool {
		_ = send(target, "/example", []string{"hello", "7"})
		return strings.Contains(out.String(), "/example: hello 7")
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not return after cancel")
	}
}
