package osc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startRelay(t *testing.T, address string) *Relay {
	t.Helper()

	r, err := NewRelay(config.OSCConfig{Listen: "127.0.0.1:0", Address: address}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { r.Stop() })

	return r
}

func senderFor(t *testing.T, r *Relay, address string) *Sender {
	t.Helper()
	addr, ok := r.Addr().(*net.UDPAddr)
	require.True(t, ok)
	return NewSender("127.0.0.1", addr.Port, address)
}

func waitMessages(t *testing.T, r *Relay, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return r.Len() >= n }, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_PromptAddress(t *testing.T) {
	r := startRelay(t, "/prompt")

	require.NoError(t, senderFor(t, r, "/prompt").Send("hello world", int32(7)))
	require.NoError(t, senderFor(t, r, "/other").Send("ignored"))
	require.NoError(t, senderFor(t, r, "/prompt").Send("second"))

	waitMessages(t, r, 2)
	require.True(t, r.HasMessage())

	m, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "/prompt", m.Address)
	assert.Equal(t, "hello world", m.Text)
	assert.Equal(t, []any{"hello world", int32(7)}, m.Arguments)
	assert.False(t, m.ReceivedAt.IsZero())

	m, ok = r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "second", m.Text)

	// The message sent to /other was never queued.
	time.Sleep(50 * time.Millisecond)
	_, ok = r.TryPop()
	assert.False(t, ok)
}

func TestRelay_CatchAllJoinsArguments(t *testing.T) {
	r := startRelay(t, CatchAll)

	require.NoError(t, senderFor(t, r, "/example").Send("a", int32(1), float32(2.5), true))
	require.NoError(t, senderFor(t, r, "/another/path").Send("b"))

	waitMessages(t, r, 2)

	m, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "/example", m.Address)
	assert.Equal(t, "a 1 2.5 true", m.Text)

	m, ok = r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "/another/path", m.Address)
	assert.Equal(t, "b", m.Text)
}

func TestRelay_ArrivalOrder(t *testing.T) {
	r := startRelay(t, CatchAll)
	s := senderFor(t, r, "/seq")

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Send(int32(i)))
	}
	waitMessages(t, r, 20)

	for i := 0; i < 20; i++ {
		m, ok := r.TryPop()
		require.True(t, ok)
		assert.Equal(t, int32(i), m.Arguments[0])
	}
}

func TestRelay_MalformedPacketIgnored(t *testing.T) {
	r := startRelay(t, CatchAll)

	conn, err := net.Dial("udp", r.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("not osc"))
	require.NoError(t, err)

	require.NoError(t, senderFor(t, r, "/ok").Send("fine"))
	waitMessages(t, r, 1)

	m, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "/ok", m.Address)
}

func TestRelay_StopIsIdempotentAndPortReusable(t *testing.T) {
	r, err := NewRelay(config.OSCConfig{Listen: "127.0.0.1:0", Address: "/prompt"}, nil)
	require.NoError(t, err)

	assert.NoError(t, r.Stop())
	assert.Nil(t, r.Addr())

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrStarted)
	addr := r.Addr().String()

	assert.NoError(t, r.Stop())
	assert.NoError(t, r.Stop())
	<-r.Done()

	// The same port can be bound again right away.
	again, err := NewRelay(config.OSCConfig{Listen: addr, Address: "/prompt"}, nil)
	require.NoError(t, err)
	require.NoError(t, again.Start(context.Background()))
	assert.NoError(t, again.Stop())
}

func TestRelay_StopsOnContextCancel(t *testing.T) {
	r, err := NewRelay(config.OSCConfig{Listen: "127.0.0.1:0", Address: CatchAll}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after context cancel")
	}
}

func TestNewRelay_InvalidAddress(t *testing.T) {
	_, err := NewRelay(config.OSCConfig{Listen: "127.0.0.1:0", Address: "/bad address"}, nil)
	assert.Error(t, err)
}

func TestRelay_HandleWithoutArguments(t *testing.T) {
	r, err := NewRelay(config.OSCConfig{Address: "/prompt"}, nil)
	require.NoError(t, err)

	r.handle(osc.NewMessage("/prompt"))
	assert.False(t, r.HasMessage())

	r.handle(osc.NewMessage("/prompt", "text"))
	assert.True(t, r.HasMessage())
}

func TestSender_Forward(t *testing.T) {
	r := startRelay(t, CatchAll)
	s := senderFor(t, r, "/gsr")

	require.NoError(t, s.Forward(sample.Sample{RawADC: 3850, Conductance: 1.5, IsImpulse: true}))
	waitMessages(t, r, 1)

	m, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, "/gsr", m.Address)
	assert.Equal(t, []any{float32(1.5), int32(3850), true}, m.Arguments)
}
