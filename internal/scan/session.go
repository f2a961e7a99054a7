package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is a session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateStreaming
	StateDetecting
	StateSucceeded
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateStreaming:
		return "streaming"
	case StateDetecting:
		return "detecting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateClosed
}

// Outcome is how a session ended.
type Outcome struct {
	State State

	// Barcode is set when State is StateSucceeded.
	Barcode Barcode

	// Err is set when State is StateFailed.
	Err *Error

	// TimedOut is set when the idle timeout closed the session.
	TimedOut bool
}

// Session is one attempt to acquire the camera and decode one barcode.
type Session struct {
	id      string
	scanner *Scanner
	logger  *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}

	mu        sync.Mutex
	state     State
	cancelled bool
	stream    Stream
	backend   string
	outcome   Outcome
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Backend returns the name of the detection backend, once one is attached.
func (s *Session) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Done is closed once the session has ended and released the camera.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the final outcome; ok is false while the session runs.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		return Outcome{}, false
	}
	return s.outcome, true
}

// Wait blocks until the session ends or ctx is done. It does not cancel the
// session when ctx ends.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		o, _ := s.Outcome()
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Cancel ends the session. The camera is released before Cancel returns.
// Cancelling an ended session is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.cancelled = true
	s.mu.Unlock()

	s.cancel()
	s.release()
	<-s.done
}

func (s *Session) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancelled && !s.state.Terminal() {
		s.state = st
	}
}

// release stops the stream if one is held. Safe to call more than once.
func (s *Session) release() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		stopStream(s.logger, stream)
	}
}

func stopStream(logger *slog.Logger, stream Stream) {
	if err := stream.Stop(); err != nil {
		logger.Warn("failed to stop camera stream", "error", err)
	}
}

func (s *Session) failure(reason Reason, message string, err error) Outcome {
	return Outcome{
		State: StateFailed,
		Err:   &Error{Reason: reason, Message: message, SessionID: s.id, Err: err},
	}
}

func (s *Session) run(ctx context.Context) {
	stream, err := s.scanner.acquire(ctx)
	if err != nil {
		if s.isCancelled() {
			s.finish(Outcome{State: StateClosed})
			return
		}
		s.finish(s.failure(classifyOpenError(err), "camera acquisition failed", err))
		return
	}

	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		stopStream(s.logger, stream)
		s.finish(Outcome{State: StateClosed})
		return
	}
	s.stream = stream
	s.state = StateStreaming
	s.mu.Unlock()
	s.logger.Debug("camera stream attached", "format", stream.Format())

	backend, ok := s.scanner.probe(stream)
	if !ok {
		s.finish(s.failure(ReasonDetectionUnsupported,
			fmt.Sprintf("no detector accepts %s frames", stream.Format()), nil))
		return
	}
	s.mu.Lock()
	s.backend = backend.Name
	s.mu.Unlock()
	s.setState(StateDetecting)
	s.logger.Debug("detection started", "backend", backend.Name, "interval", backend.Interval)

	s.finish(s.detect(ctx, stream, backend))
}

// detect runs the detection loop until a barcode is found, the stream ends,
// the session is cancelled or the idle timeout fires. Decode attempts never
// overlap: each one completes before the next frame is taken.
func (s *Session) detect(ctx context.Context, stream Stream, b Backend) Outcome {
	frames := stream.Frames()

	var tick <-chan time.Time
	if b.Interval > 0 {
		ticker := time.NewTicker(b.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var idle <-chan time.Time
	if timeout := s.scanner.idleTimeout; timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		idle = timer.C
	}

	// A started decode runs to completion; its result is dropped if the
	// session was cancelled meanwhile.
	decodeCtx := context.WithoutCancel(ctx)
	closed := Outcome{State: StateClosed}

	for attempts := 0; ; attempts++ {
		if s.isCancelled() {
			return closed
		}

		var frame Frame
		select {
		case <-ctx.Done():
			return closed
		case <-idle:
			s.logger.Info("scan session idle timeout", "attempts", attempts)
			return Outcome{State: StateClosed, TimedOut: true}
		case f, ok := <-frames:
			if !ok {
				if s.isCancelled() {
					return closed
				}
				return s.failure(ReasonCameraUnavailable, "camera stream ended", nil)
			}
			if tick != nil {
				continue
			}
			frame = newest(f, frames)
		case <-tick:
		}

		codes, err := b.Detector.Detect(decodeCtx, frame)
		if s.isCancelled() {
			return closed
		}
		if err != nil {
			s.logger.Debug("decode attempt failed", "frame", frame.Seq, "error", err)
			continue
		}
		if len(codes) == 0 {
			continue
		}
		return Outcome{State: StateSucceeded, Barcode: codes[0]}
	}
}

// newest drains frames already buffered behind f and returns the latest.
func newest(f Frame, frames <-chan Frame) Frame {
	for {
		select {
		case next, ok := <-frames:
			if !ok {
				return f
			}
			f = next
		default:
			return f
		}
	}
}

// finish releases the camera, records the outcome, then publishes it.
// A cancelled session always ends Closed, whatever the loop produced.
func (s *Session) finish(o Outcome) {
	s.release()

	s.mu.Lock()
	if s.cancelled {
		o = Outcome{State: StateClosed}
	}
	s.state = o.State
	s.outcome = o
	s.mu.Unlock()

	s.cancel()
	s.scanner.detach(s)
	close(s.done)
	s.scanner.report(s, o)
}
