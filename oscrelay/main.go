// Command oscrelay receives OSC messages over UDP and prints them as they are
// polled from the relay queue. With -send it sends one message instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/logging"
	"github.com/itohio/goeda/pkg/osc"
	"go.uber.org/zap"
)

func main() {
	var (
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		listenFlag  = flag.String("listen", "", "Listen address override (e.g., 0.0.0.0:10001)")
		addressFlag = flag.String("address", "", "OSC address to relay: /prompt, or * for every message")
		sendFlag    = flag.String("send", "", "Send one message to host:port and exit")
		sendAddr    = flag.String("send-address", "/example", "OSC address used with -send")
		debugFlag   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenFlag != "" {
		cfg.OSC.Listen = *listenFlag
	}
	if *addressFlag != "" {
		cfg.OSC.Address = *addressFlag
	}

	logger, err := logging.New(*debugFlag || cfg.Log.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if *sendFlag != "" {
		if err := send(*sendFlag, *sendAddr, flag.Args()); err != nil {
			logger.Fatalw("Send failed", "error", err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := relay(ctx, cfg.OSC, os.Stdout, logger); err != nil {
		logger.Fatalw("Relay failed", "error", err)
	}
}

// relay runs the relay and prints queued messages every poll interval
// until ctx is cancelled.
func relay(ctx context.Context, cfg config.OSCConfig, out io.Writer, log *zap.SugaredLogger) error {
	r, err := osc.NewRelay(cfg, log)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer r.Stop()

	poll := cfg.Poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drain(r, out)
			return nil
		case <-r.Done():
			drain(r, out)
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("relay stopped unexpectedly")
		case <-ticker.C:
			drain(r, out)
		}
	}
}

// drain prints every queued message.
func drain(r *osc.Relay, out io.Writer) {
	for r.HasMessage() {
		m, ok := r.TryPop()
		if !ok {
			return
		}
		fmt.Fprintf(out, "%s %s: %s\n", m.ReceivedAt.Format("15:04:05.000"), m.Address, m.Text)
	}
}

// send sends one message with args to target ("host:port"). Arguments that
// parse as integers or floats are sent as int32/float32, the rest as strings.
func send(target, address string, args []string) error {
	host, portText, ok := strings.Cut(target, ":")
	if !ok {
		return fmt.Errorf("target must be host:port, got %q", target)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", portText, err)
	}

	return osc.NewSender(host, port, address).Send(parseArgs(args)...)
}

func parseArgs(args []string) []any {
	result := make([]any, 0, len(args))
	for _, a := range args {
		if i, err := strconv.ParseInt(a, 10, 32); err == nil {
			result = append(result, int32(i))
			continue
		}
		if f, err := strconv.ParseFloat(a, 32); err == nil {
			result = append(result, float32(f))
			continue
		}
		result = append(result, a)
	}
	return result
}
