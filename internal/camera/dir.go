// Package camera provides capture devices for scan sessions.
//
// Dir replays still images from a directory tree as live video: each
// sub-directory is one device and its image files are its frames, played in
// name order at a fixed rate.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roach88/shelflife/internal/scan"
)

// DefaultFPS is the replay rate when none is configured.
const DefaultFPS = 10

// rootDevice is the device id used when images sit directly in the root.
const rootDevice = "."

// Dir is a scan.Camera backed by image files on disk.
//
// Each device can be held by one stream at a time.
type Dir struct {
	root   string
	fps    int
	loop   bool
	logger *slog.Logger

	mu   sync.Mutex
	busy map[string]bool
}

// Option configures a Dir.
type Option func(*Dir)

// WithFPS sets the replay rate.
func WithFPS(fps int) Option {
	return func(d *Dir) {
		if fps > 0 {
			d.fps = fps
		}
	}
}

// WithLoop controls whether a device restarts from its first frame after the
// last one. When false the stream ends after one pass. Defaults to true.
func WithLoop(loop bool) Option {
	return func(d *Dir) {
		d.loop = loop
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dir) {
		d.logger = logger
	}
}

// NewDir creates a camera rooted at root.
func NewDir(root string, opts ...Option) *Dir {
	d := &Dir{
		root:   root,
		fps:    DefaultFPS,
		loop:   true,
		logger: slog.Default(),
		busy:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Devices lists sub-directories as devices, in name order. A root holding
// only image files is a single device.
func (d *Dir) Devices(ctx context.Context) ([]scan.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, mapFSError(err)
	}

	var devices []scan.Device
	hasFrames := false
	for _, e := range entries {
		switch {
		case e.IsDir():
			devices = append(devices, scan.Device{ID: e.Name(), Label: e.Name()})
		case isFrameFile(e.Name()):
			hasFrames = true
		}
	}
	if len(devices) == 0 && hasFrames {
		devices = append(devices, scan.Device{ID: rootDevice, Label: filepath.Base(d.root)})
	}
	return devices, nil
}

// Open starts replaying a device. An empty DeviceID selects one with
// scan.SelectDevice.
func (d *Dir) Open(ctx context.Context, req scan.AccessRequest) (scan.Stream, error) {
	id := req.DeviceID
	if id == "" {
		devices, err := d.Devices(ctx)
		if err != nil {
			return nil, err
		}
		dev, ok := scan.SelectDevice(devices)
		if !ok {
			return nil, scan.ErrNoDevice
		}
		id = dev.ID
	}
	if id != rootDevice && (strings.ContainsAny(id, `/\`) || id == "..") {
		return nil, fmt.Errorf("device %q: %w", id, scan.ErrNoDevice)
	}

	files, err := d.frameFiles(id)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("device %q has no frames", id)
	}

	d.mu.Lock()
	if d.busy[id] {
		d.mu.Unlock()
		return nil, fmt.Errorf("device %q: %w", id, scan.ErrBusy)
	}
	d.busy[id] = true
	d.mu.Unlock()

	s := &stream{
		device:   id,
		owner:    d,
		files:    files,
		format:   formatOf(files[0]),
		interval: time.Second / time.Duration(d.fps),
		loop:     d.loop,
		logger:   d.logger.With("device", id),
		frames:   make(chan scan.Frame, 1),
		stopCh:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()

	d.logger.Info("camera device opened", "device", id, "frames", len(files), "fps", d.fps)
	return s, nil
}

func (d *Dir) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.busy, id)
}

func (d *Dir) frameFiles(id string) ([]string, error) {
	dir := d.root
	if id != rootDevice {
		dir = filepath.Join(d.root, id)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w", id, mapFSError(err))
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isFrameFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", scan.ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", scan.ErrNoDevice, err)
	default:
		return err
	}
}

func isFrameFile(name string) bool {
	return formatOf(name) != ""
}

func formatOf(name string) scan.PixelFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return scan.FormatPNG
	case ".jpg", ".jpeg":
		return scan.FormatJPEG
	default:
		return ""
	}
}

// stream replays files on a ticker. Frames the consumer has not taken are
// dropped, as a live camera would.
type stream struct {
	device   string
	owner    *Dir
	files    []string
	format   scan.PixelFormat
	interval time.Duration
	loop     bool
	logger   *slog.Logger

	frames   chan scan.Frame
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (s *stream) Frames() <-chan scan.Frame {
	return s.frames
}

func (s *stream) Format() scan.PixelFormat {
	return s.format
}

// Stop ends replay and frees the device. Idempotent.
func (s *stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.owner.release(s.device)
		s.logger.Debug("camera device released")
	})
	return nil
}

func (s *stream) run() {
	defer s.wg.Done()
	defer close(s.frames)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var seq uint64
	for idx := 0; ; {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		path := s.files[idx]
		frame, err := s.load(path)
		if err != nil {
			s.logger.Warn("skipping unreadable frame", "file", path, "error", err)
		} else {
			seq++
			frame.Seq = seq
			select {
			case s.frames <- frame:
			case <-s.stopCh:
				return
			default:
				s.logger.Debug("frame dropped", "seq", seq)
			}
		}

		idx++
		if idx == len(s.files) {
			if !s.loop {
				s.logger.Info("camera replay finished")
				return
			}
			idx = 0
		}
	}
}

func (s *stream) load(path string) (scan.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scan.Frame{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return scan.Frame{}, fmt.Errorf("decode header: %w", err)
	}
	return scan.Frame{
		Timestamp: time.Now(),
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    formatOf(path),
		Data:      data,
	}, nil
}
