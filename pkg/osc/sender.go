package osc

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
	"github.com/itohio/goeda/pkg/sample"
)

// Sender publishes OSC messages to a fixed host, port and address.
type Sender struct {
	client  *osc.Client
	address string
}

// NewSender creates a sender. No socket is opened until the first Send.
func NewSender(host string, port int, address string) *Sender {
	return &Sender{
		client:  osc.NewClient(host, port),
		address: address,
	}
}

// Send sends one message with the given arguments.
func (s *Sender) Send(args ...any) error {
	msg := osc.NewMessage(s.address)
	for _, a := range args {
		msg.Append(a)
	}

	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("failed to send OSC message to %s: %w", s.address, err)
	}
	return nil
}

// Forward publishes a sample as [conductance µS, raw ADC, impulse].
func (s *Sender) Forward(smp sample.Sample) error {
	return s.Send(float32(smp.Conductance), int32(smp.RawADC), smp.IsImpulse)
}
