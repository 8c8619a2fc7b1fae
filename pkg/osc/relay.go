// Package osc relays OSC messages received over UDP into an in-process
// queue, and sends OSC messages to other programs.
package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/logging"
	"go.uber.org/zap"
)

// CatchAll is the address pattern that accepts every message.
const CatchAll = "*"

const maxPacketSize = 65535

// ErrStarted is returned by Start when the relay is already listening.
var ErrStarted = errors.New("relay already started")

// Message is one queued OSC message.
type Message struct {
	Address    string
	Arguments  []any
	Text       string // First argument for a fixed address, all arguments joined by spaces for CatchAll
	ReceivedAt time.Time
}

// Relay listens for OSC messages and queues them for polling.
//
// With a fixed address (e.g. "/prompt") only matching messages are queued
// and Text holds their first argument. With CatchAll every message is
// queued and Text holds all arguments separated by spaces.
type Relay struct {
	listen   string
	catchAll bool
	queue    *Queue[Message]
	log      *zap.SugaredLogger
	now      func() time.Time

	dispatcher *osc.StandardDispatcher

	mu      sync.Mutex
	conn    net.PacketConn
	done    chan struct{}
	stopped bool
}

// NewRelay creates a relay from cfg. It does not open the socket.
func NewRelay(cfg config.OSCConfig, log *zap.SugaredLogger) (*Relay, error) {
	r := &Relay{
		listen:     cfg.Listen,
		queue:      NewQueue[Message](cfg.QueueSize),
		log:        logging.OrNop(log),
		now:        time.Now,
		dispatcher: osc.NewStandardDispatcher(),
	}

	address := cfg.Address
	if address == "" {
		address = "/prompt"
	}

	var err error
	if address == CatchAll || address == "/*" {
		r.catchAll = true
		err = r.dispatcher.AddMsgHandler(CatchAll, r.handle)
	} else {
		err = r.dispatcher.AddMsgHandler(address, r.handle)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid OSC address %q: %w", address, err)
	}

	return r, nil
}

// Start opens the UDP socket and serves until Stop is called or ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return ErrStarted
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", r.listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.listen, err)
	}

	r.conn = conn
	r.done = make(chan struct{})
	r.stopped = false

	go r.serve(conn, r.done)
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-done:
		}
	}(r.done)

	r.log.Infow("OSC relay listening", "addr", conn.LocalAddr().String(), "catch_all", r.catchAll)
	return nil
}

// Stop closes the socket and waits for the server goroutine to exit.
// Calling Stop more than once, or before Start, is a no-op.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if r.conn == nil || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	conn, done := r.conn, r.done
	r.mu.Unlock()

	err := conn.Close()
	<-done

	r.mu.Lock()
	r.conn = nil
	r.mu.Unlock()

	r.log.Infow("OSC relay stopped")
	return err
}

// Done is closed when the server goroutine exits.
func (r *Relay) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return r.done
}

// Addr returns the bound address, or nil when not listening.
func (r *Relay) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// HasMessage reports whether a message is waiting.
func (r *Relay) HasMessage() bool {
	return !r.queue.Empty()
}

// TryPop returns the oldest queued message, or false when none is waiting.
func (r *Relay) TryPop() (Message, bool) {
	return r.queue.TryPop()
}

// Len returns the number of queued messages.
func (r *Relay) Len() int {
	return r.queue.Len()
}

// serve reads packets and dispatches them one at a time, which keeps the
// queue in arrival order.
func (r *Relay) serve(conn net.PacketConn, done chan struct{}) {
	defer close(done)

	buf := make([]byte, maxPacketSize)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.log.Warnw("OSC read failed", "error", err)
			return
		}

		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			r.log.Debugw("Dropping malformed OSC packet", "from", from.String(), "error", err)
			continue
		}
		r.dispatcher.Dispatch(packet)
	}
}

// handle converts an OSC message into a queued Message.
func (r *Relay) handle(msg *osc.Message) {
	m := Message{
		Address:    msg.Address,
		Arguments:  append([]any(nil), msg.Arguments...),
		ReceivedAt: r.now(),
	}

	if r.catchAll {
		m.Text = joinArguments(msg.Arguments)
	} else {
		if len(msg.Arguments) == 0 {
			r.log.Debugw("Dropping OSC message without arguments", "address", msg.Address)
			return
		}
		m.Text = fmt.Sprint(msg.Arguments[0])
	}

	if r.queue.Push(m) {
		r.log.Warnw("OSC queue full, dropped oldest message", "dropped", r.queue.Dropped())
	}
	r.log.Debugw("OSC message queued", "address", m.Address, "text", m.Text)
}

func joinArguments(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}
