// Package listener runs the frame reader/dispatcher loop: it owns the
// open serial port, extracts one newline-terminated frame at a time,
// decodes it, and routes the result to the configured sinks.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/observability"
	"github.com/dmorgan-nz/trapmon/internal/protocol"
	"github.com/dmorgan-nz/trapmon/internal/protocol/frame"
	"github.com/dmorgan-nz/trapmon/internal/sink"
)

var ErrReconnectExhausted = errors.New("listener: reconnect attempts exhausted")

// State is the listener lifecycle: running from construction until the
// loop exits, stopped after, with nothing in between.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// PortOpener opens the serial byte stream. The listener calls it once
// at startup and again on each reconnect attempt.
type PortOpener func() (io.ReadCloser, error)

// ReconnectConfig decides what happens after a transport-level read
// error. Disabled, the listener stops on the first such error; enabled,
// it reopens the port under backoff. MaxAttempts of zero means retry
// without bound. A successfully read frame resets the attempt count.
type ReconnectConfig struct {
	Enabled     bool
	MaxAttempts int
	Backoff     BackoffConfig
}

type Config struct {
	// Device labels log events and metrics; the PortOpener holds the
	// actual handle on it.
	Device    string
	Limits    frame.Limits
	Reconnect ReconnectConfig
}

type Listener struct {
	cfg   Config
	open  PortOpener
	out   sink.Sink
	log   zerolog.Logger
	rng   *rand.Rand
	state atomic.Value
}

func New(cfg Config, open PortOpener, out sink.Sink, log zerolog.Logger) *Listener {
	l := &Listener{
		cfg:  cfg,
		open: open,
		out:  out,
		log:  log,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	l.state.Store(StateRunning)
	return l
}

func (l *Listener) State() State {
	return l.state.Load().(State)
}

// Run blocks until ctx is cancelled or the transport fails beyond the
// reconnect policy. It returns nil on cancellation. The port is closed
// on every exit path.
func (l *Listener) Run(ctx context.Context) error {
	defer l.state.Store(StateStopped)

	attempt := 0
	for {
		frames, err := l.readLoop(ctx)
		if err == nil {
			return nil
		}
		if frames > 0 {
			attempt = 0
		}
		if !l.cfg.Reconnect.Enabled {
			l.log.Error().Err(err).Str("device", l.cfg.Device).Msg("transport error, stopping")
			return err
		}
		attempt++
		if max := l.cfg.Reconnect.MaxAttempts; max > 0 && attempt > max {
			return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, max, err)
		}
		delay := NextBackoffDelay(l.cfg.Reconnect.Backoff, attempt, l.rng)
		l.log.Warn().
			Err(err).
			Str("device", l.cfg.Device).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("transport error, reopening port")
		observability.RecordReconnect(l.cfg.Device)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// readLoop owns one open port for its whole duration. It returns nil
// when ctx is cancelled and the transport error otherwise, along with
// how many frames it handled on this port.
func (l *Listener) readLoop(ctx context.Context) (int, error) {
	port, err := l.open()
	if err != nil {
		return 0, err
	}
	defer port.Close()

	r := frame.NewReader(port, l.cfg.Limits)
	frames := 0
	for {
		if ctx.Err() != nil {
			return frames, nil
		}

		raw, err := r.ReadFrame()
		switch {
		case err == nil:
		case errors.Is(err, frame.ErrNoData):
			continue
		case errors.Is(err, frame.ErrInvalidUTF8):
			frames++
			observability.RecordFrame(l.cfg.Device, observability.ResultInvalidUTF8, len(raw))
			l.out.HandleMalformed(strings.ToValidUTF8(string(raw), string(utf8.RuneError)))
			continue
		case errors.Is(err, frame.ErrLineTooLong):
			frames++
			observability.RecordFrame(l.cfg.Device, observability.ResultOversize, 0)
			l.log.Warn().Str("device", l.cfg.Device).Msg("dropping oversize frame")
			continue
		default:
			return frames, err
		}

		if len(raw) == 0 {
			observability.RecordFrame(l.cfg.Device, observability.ResultEmpty, 0)
			continue
		}
		frames++
		l.dispatch(raw)
	}
}

func (l *Listener) dispatch(raw []byte) {
	msg, err := protocol.DecodeMessage(raw)
	if err != nil {
		observability.RecordFrame(l.cfg.Device, observability.ResultMalformed, len(raw))
		l.out.HandleMalformed(string(raw))
		return
	}

	switch m := msg.(type) {
	case protocol.Classification:
		observability.RecordFrame(l.cfg.Device, observability.ResultClassification, len(raw))
		l.out.HandleClassification(m)
	case protocol.Generic:
		observability.RecordFrame(l.cfg.Device, observability.ResultGeneric, len(raw))
		l.out.HandleGeneric(m)
	}
}
