package station

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openwx/go-vantage/protocol"
)

// errReplyMismatch marks a reply that arrived in time but carried the wrong
// content. Mismatches are retried; read failures are not.
var errReplyMismatch = errors.New("reply mismatch")

// Device is the console link the station drives. ReadFull blocks until
// len(p) bytes arrived or the timeout expired; a short read is an error.
// The transport package provides serial and TCP implementations.
type Device interface {
	Write(p []byte) (int, error)
	ReadFull(p []byte, timeout time.Duration) (int, error)
}

// Station drives a Davis Vantage Pro console over a Device. It owns the
// command handshake, the real-time and archive polls, and the session
// watermark that keeps archive downloads incremental.
//
// Station is safe for concurrent use after initialization.
type Station struct {
	device Device
	config Config

	mu        sync.Mutex
	revision  protocol.Revision
	watermark protocol.Cursor
	last      *Observation
}

// New creates a new Station with the given device and options.
//
// Example:
//
//	device, _ := transport.OpenSerial("/dev/ttyUSB0")
//	st := station.New(device,
//	    station.WithLogger(myLogger),
//	    station.WithLogInterval(5),
//	)
func New(device Device, opts ...Option) *Station {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}

	return &Station{
		device:    device,
		config:    cfg,
		watermark: protocol.CursorFor(start),
	}
}

// Watermark returns the current session watermark: the stamp of the newest
// archive record delivered so far.
func (s *Station) Watermark() protocol.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// Init prepares the console for a logging session: optionally clears the
// archive memory, then sets the archive period to the configured interval.
func (s *Station) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.ClearLog {
		if err := s.command(ctx, false, protocol.CmdClearLog); err != nil {
			return fmt.Errorf("clear log: %w", err)
		}
		s.logInfo("archive memory cleared")
	}

	if err := s.command(ctx, true, protocol.CmdSetPeriod, s.config.LogInterval); err != nil {
		return fmt.Errorf("set archive period: %w", err)
	}
	s.logInfo("console initialized", "log_interval_min", s.config.LogInterval)
	return nil
}

// LoopPoll requests one real-time LOOP snapshot from the console.
// Corrupted frames are retried by re-issuing the command.
func (s *Station) LoopPoll(ctx context.Context) (*protocol.LoopRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopPoll(ctx)
}

func (s *Station) loopPoll(ctx context.Context) (*protocol.LoopRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		if attempt > 1 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}

		if err := s.command(ctx, false, protocol.CmdLoop, 1); err != nil {
			return nil, err
		}

		frame := make([]byte, protocol.LoopFrameSize)
		if _, err := s.device.ReadFull(frame, s.config.FrameTimeout); err != nil {
			lastErr = err
			s.logDebug("loop frame read failed", "attempt", attempt, "error", err.Error())
			continue
		}
		if !protocol.Verify(frame) {
			lastErr = fmt.Errorf("loop frame failed CRC check")
			s.logDebug("loop frame corrupted", "attempt", attempt)
			continue
		}
		return protocol.DecodeLoop(frame)
	}
	return nil, &DeviceUnreachableError{Op: "loop", Attempts: s.config.Retries, Err: lastErr}
}

// GetTime reads the console's wall clock.
func (s *Station) GetTime(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.command(ctx, false, protocol.CmdGetTime); err != nil {
		return time.Time{}, err
	}
	frame, err := s.readFrame(protocol.ClockFrameSize)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock frame: %w", err)
	}
	return protocol.DecodeClock(frame)
}

// SetTime writes t to the console's wall clock.
func (s *Station) SetTime(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.command(ctx, false, protocol.CmdSetTime); err != nil {
		return err
	}
	if _, err := s.device.Write(protocol.AppendCRC(protocol.EncodeClock(t))); err != nil {
		return fmt.Errorf("write clock payload: %w", err)
	}
	if err := s.readAck(); err != nil {
		return fmt.Errorf("clock payload not acknowledged: %w", err)
	}
	return nil
}

// SetPeriod sets the console's archive period in minutes.
func (s *Station) SetPeriod(ctx context.Context, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command(ctx, true, protocol.CmdSetPeriod, minutes)
}

// ClearLog wipes the console's archive memory.
func (s *Station) ClearLog(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command(ctx, false, protocol.CmdClearLog)
}

// wake brings the console's processor out of its low-power state: a newline
// is sent and the console answers with LF CR when it is listening.
func (s *Station) wake(ctx context.Context) error {
	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := s.device.Write([]byte{protocol.Wake}); err != nil {
			return fmt.Errorf("write wake-up: %w", err)
		}

		reply := make([]byte, len(protocol.WakeAck))
		if _, err := s.device.ReadFull(reply, s.config.AckTimeout); err != nil {
			s.logDebug("wake-up unanswered", "attempt", attempt)
			continue
		}
		if bytes.Equal(reply, protocol.WakeAck) {
			return nil
		}
		s.logDebug("unexpected wake-up reply", "attempt", attempt, "reply", fmt.Sprintf("% X", reply))
	}
	return &DeviceUnreachableError{Op: "wake", Attempts: s.config.Retries}
}

// command wakes the console and sends one command line, retrying until the
// expected reply arrives. Commands answer either with a single ACK byte or,
// when expectOK is set, with the textual "OK" line.
func (s *Station) command(ctx context.Context, expectOK bool, verb string, args ...int) error {
	if err := s.wake(ctx); err != nil {
		return err
	}

	line := protocol.BuildCommand(verb, args...)
	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := s.device.Write(line); err != nil {
			return fmt.Errorf("write %s command: %w", verb, err)
		}

		var err error
		if expectOK {
			err = s.readOK()
		} else {
			err = s.readAck()
		}
		if err == nil {
			s.logDebug("command accepted", "verb", verb)
			return nil
		}
		if !errors.Is(err, errReplyMismatch) {
			// the reply read timed out or the link failed; retrying the
			// command will not bring the console back
			return &DeviceUnreachableError{Op: verb, Attempts: attempt, Err: err}
		}
		s.logDebug("command not accepted", "verb", verb, "attempt", attempt, "error", err.Error())
	}
	return &DeviceUnreachableError{Op: verb, Attempts: s.config.Retries}
}

// readAck consumes the single acknowledgement byte.
func (s *Station) readAck() error {
	reply := make([]byte, 1)
	if _, err := s.device.ReadFull(reply, s.config.AckTimeout); err != nil {
		return err
	}
	if reply[0] != protocol.Ack {
		return fmt.Errorf("%w: expected ACK, got 0x%02X", errReplyMismatch, reply[0])
	}
	return nil
}

// readOK consumes the textual "OK" reply.
func (s *Station) readOK() error {
	reply := make([]byte, len(protocol.OKReply))
	if _, err := s.device.ReadFull(reply, s.config.OKTimeout); err != nil {
		return err
	}
	if !bytes.Equal(reply, protocol.OKReply) {
		return fmt.Errorf("%w: expected OK reply, got %q", errReplyMismatch, reply)
	}
	return nil
}

// readFrame reads a CRC-terminated binary frame of the given size.
func (s *Station) readFrame(size int) ([]byte, error) {
	frame := make([]byte, size)
	if _, err := s.device.ReadFull(frame, s.config.FrameTimeout); err != nil {
		return nil, err
	}
	if !protocol.Verify(frame) {
		return nil, fmt.Errorf("frame failed CRC check")
	}
	return frame, nil
}

// pause sleeps for the configured retry pause, honouring cancellation.
func (s *Station) pause(ctx context.Context) error {
	if s.config.RetryPause <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.config.RetryPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Station) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Station) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Station) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
