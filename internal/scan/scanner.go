package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scanner hands out scan sessions, at most one at a time.
//
// Thread-safety: all methods are safe for concurrent use.
type Scanner struct {
	camera      Camera
	probes      []Probe
	idleTimeout time.Duration
	logger      *slog.Logger
	onResult    func(*Session, Barcode)
	onError     func(*Session, *Error)

	mu      sync.Mutex
	current *Session
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithProbes replaces DefaultProbes. Probes are tried in order.
func WithProbes(probes ...Probe) Option {
	return func(sc *Scanner) {
		sc.probes = probes
	}
}

// WithIdleTimeout closes sessions that find nothing within d. Zero disables
// the timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(sc *Scanner) {
		sc.idleTimeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(sc *Scanner) {
		sc.logger = logger
	}
}

// WithOnResult registers the success notification. It fires once per
// successful session, after the camera is released.
func WithOnResult(fn func(*Session, Barcode)) Option {
	return func(sc *Scanner) {
		sc.onResult = fn
	}
}

// WithOnError registers the failure notification. It fires once per failed
// session, after the camera is released.
func WithOnError(fn func(*Session, *Error)) Option {
	return func(sc *Scanner) {
		sc.onError = fn
	}
}

// NewScanner creates a Scanner for camera.
func NewScanner(camera Camera, opts ...Option) *Scanner {
	sc := &Scanner{
		camera: camera,
		probes: DefaultProbes(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Open starts a session and returns immediately; the session acquires the
// camera in the background. The session keeps ctx's values but not its
// cancellation: it runs until it ends on its own or Session.Cancel is called.
//
// Returns *AlreadyOpenError while another session has not ended.
func (sc *Scanner) Open(ctx context.Context) (*Session, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if cur := sc.current; cur != nil {
		if st := cur.State(); !st.Terminal() {
			return nil, &AlreadyOpenError{SessionID: cur.id, State: st}
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		id:      id.String(),
		scanner: sc,
		logger:  sc.logger.With("session", id.String()),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateAcquiring,
	}
	sc.current = s

	s.logger.Info("scan session opened")
	go s.run(runCtx)
	return s, nil
}

// Current returns the running session, or nil.
func (sc *Scanner) Current() *Session {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// Cancel ends s. A nil session is ignored.
func (sc *Scanner) Cancel(s *Session) {
	if s == nil {
		return
	}
	s.Cancel()
}

func (sc *Scanner) acquire(ctx context.Context) (Stream, error) {
	req := AccessRequest{Facing: FacingBack}

	devices, err := sc.camera.Devices(ctx)
	switch {
	case errors.Is(err, ErrEnumerationUnsupported):
		sc.logger.Debug("device enumeration unsupported, requesting by facing")
	case err != nil:
		return nil, fmt.Errorf("enumerate devices: %w", err)
	default:
		dev, ok := SelectDevice(devices)
		if !ok {
			return nil, ErrNoDevice
		}
		req.DeviceID = dev.ID
		sc.logger.Debug("selected camera device", "id", dev.ID, "label", dev.Label)
	}

	stream, err := sc.camera.Open(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	return stream, nil
}

func (sc *Scanner) probe(stream Stream) (Backend, bool) {
	for _, p := range sc.probes {
		if b, ok := p(stream); ok {
			return b, true
		}
	}
	return Backend{}, false
}

func (sc *Scanner) detach(s *Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.current == s {
		sc.current = nil
	}
}

func (sc *Scanner) report(s *Session, o Outcome) {
	switch o.State {
	case StateSucceeded:
		s.logger.Info("scan session succeeded", "code", o.Barcode.Value, "symbology", o.Barcode.Symbology)
		if sc.onResult != nil {
			sc.onResult(s, o.Barcode)
		}
	case StateFailed:
		s.logger.Warn("scan session failed", "reason", o.Err.Reason, "error", o.Err)
		if sc.onError != nil {
			sc.onError(s, o.Err)
		}
	default:
		s.logger.Info("scan session closed", "timed_out", o.TimedOut)
	}
}
