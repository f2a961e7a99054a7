package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeStream is a Stream fed by the test.
type fakeStream struct {
	format PixelFormat
	frames chan Frame

	mu      sync.Mutex
	closed  bool
	stops   int
	nextSeq uint64
}

func newFakeStream(format PixelFormat) *fakeStream {
	return &fakeStream{format: format, frames: make(chan Frame, 8)}
}

func (s *fakeStream) Frames() <-chan Frame { return s.frames }

func (s *fakeStream) Format() PixelFormat { return s.format }

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}

// end closes the stream as if the device went away.
func (s *fakeStream) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
}

// push delivers a frame unless the stream is closed or its buffer is full.
func (s *fakeStream) push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.nextSeq++
	select {
	case s.frames <- Frame{Seq: s.nextSeq, Timestamp: time.Now(), Format: s.format, Data: data}:
		return true
	default:
		return false
	}
}

func (s *fakeStream) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *fakeStream) released() bool {
	return s.stopCount() > 0
}

// feed pushes frames until ctx ends.
func (s *fakeStream) feed(ctx context.Context, data []byte) {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.push(data)
		}
	}
}

// nativeStream adds a stream-side decoder.
type nativeStream struct {
	*fakeStream

	mu    sync.Mutex
	calls int
	after int
	codes []Barcode
}

func (s *nativeStream) DecodeLatest(context.Context) ([]Barcode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.after {
		return nil, nil
	}
	return s.codes, nil
}

// fakeCamera serves one prepared stream.
type fakeCamera struct {
	mu         sync.Mutex
	devices    []Device
	devicesErr error
	openErr    error
	stream     Stream
	waitCtx    bool
	requests   []AccessRequest
}

func (c *fakeCamera) Devices(context.Context) ([]Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices, c.devicesErr
}

func (c *fakeCamera) Open(ctx context.Context, req AccessRequest) (Stream, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	waitCtx, err, stream := c.waitCtx, c.openErr, c.stream
	c.mu.Unlock()

	if waitCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (c *fakeCamera) lastRequest() AccessRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return AccessRequest{}
	}
	return c.requests[len(c.requests)-1]
}

func (c *fakeCamera) setStream(s Stream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream = s
}

// step is one scripted detector response.
type step struct {
	codes []Barcode
	err   error
}

// scriptedDetector replays steps, then reports nothing forever.
type scriptedDetector struct {
	mu       sync.Mutex
	steps    []step
	calls    int
	inFlight int
	overlap  bool

	// gate, when set, blocks each Detect until it can receive.
	gate    chan struct{}
	entered chan struct{}
}

func (d *scriptedDetector) Detect(ctx context.Context, _ Frame) ([]Barcode, error) {
	d.mu.Lock()
	d.inFlight++
	if d.inFlight > 1 {
		d.overlap = true
	}
	gate, entered := d.gate, d.entered
	d.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inFlight--
	idx := d.calls
	d.calls++
	if ctx.Err() != nil {
		return nil, errors.New("decode context cancelled")
	}
	if idx < len(d.steps) {
		return d.steps[idx].codes, d.steps[idx].err
	}
	return nil, nil
}

func (d *scriptedDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func probeFor(det Detector) Probe {
	return func(Stream) (Backend, bool) {
		return Backend{Name: "scripted", Detector: det}, true
	}
}

// recorder collects notifications.
type recorder struct {
	mu      sync.Mutex
	results []Barcode
	errs    []*Error
	// releasedAtReport records whether the stream was stopped when each
	// notification fired.
	releasedAtReport []bool
	stream           *fakeStream
}

func (r *recorder) options() []Option {
	return []Option{
		WithOnResult(func(_ *Session, b Barcode) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.results = append(r.results, b)
			r.releasedAtReport = append(r.releasedAtReport, r.stream == nil || r.stream.released())
		}),
		WithOnError(func(_ *Session, err *Error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
			r.releasedAtReport = append(r.releasedAtReport, r.stream == nil || r.stream.released())
		}),
	}
}

func (r *recorder) snapshot() ([]Barcode, []*Error, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Barcode(nil), r.results...), append([]*Error(nil), r.errs...), append([]bool(nil), r.releasedAtReport...)
}

// waitOutcome waits for s to end.
func waitOutcome(t *testing.T, s *Session) Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o, err := s.Wait(ctx)
	require.NoError(t, err, "session did not end")
	return o
}

// waitState waits until s reaches st.
func waitState(t *testing.T, s *Session, st State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == st },
		5*time.Second, time.Millisecond, "session never reached %s (now %s)", st, s.State())
}
