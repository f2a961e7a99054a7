// Package app is the command surface the presentation layer drives.
//
// App ties the record store, the view, and the scanner together and
// publishes change notifications on an event bus. Every read goes through
// Snapshot, which captures one reference instant for the whole pass.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"

	"github.com/roach88/shelflife/internal/clock"
	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/records"
	"github.com/roach88/shelflife/internal/scan"
	"github.com/roach88/shelflife/internal/view"
)

// Event topics.
const (
	// TopicRecordsChanged carries a RecordsChanged.
	TopicRecordsChanged = "records:changed"
	// TopicScanResult carries a ScanResult.
	TopicScanResult = "scan:result"
	// TopicScanError carries a ScanError.
	TopicScanError = "scan:error"
)

// RecentCount is how many recent records a Snapshot lists.
const RecentCount = 5

// ChangeKind says how the store changed.
type ChangeKind string

const (
	ChangeCommitted ChangeKind = "committed"
	ChangeRemoved   ChangeKind = "removed"
)

// RecordsChanged is published after a durable store mutation.
type RecordsChanged struct {
	Kind   ChangeKind
	Record inventory.Record
}

// ScanResult is published when a session decodes a barcode.
type ScanResult struct {
	SessionID string
	Barcode   scan.Barcode
}

// ScanError is published when a session fails.
type ScanError struct {
	SessionID string
	Err       *scan.Error
}

// App serves the presentation commands.
//
// Thread-safety: all methods are safe for concurrent use.
type App struct {
	records *records.Store
	scanner *scan.Scanner
	clock   clock.Clock
	bus     EventBus.Bus
	logger  *slog.Logger

	mu          sync.Mutex
	filter      view.Filter
	pendingCode string
	lastSession *scan.Session
}

// Option configures an App.
type Option func(*config)

type config struct {
	clock    clock.Clock
	logger   *slog.Logger
	bus      EventBus.Bus
	scanOpts []scan.Option
}

// WithClock sets the reference clock. Defaults to clock.System.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithBus shares an existing event bus.
func WithBus(bus EventBus.Bus) Option {
	return func(cfg *config) {
		cfg.bus = bus
	}
}

// WithScanOptions passes options to the scanner. Result and error
// notifications are owned by the App and should be observed on the bus.
func WithScanOptions(opts ...scan.Option) Option {
	return func(cfg *config) {
		cfg.scanOpts = append(cfg.scanOpts, opts...)
	}
}

// New creates an App over recs. camera may be nil, in which case scan
// commands fail.
func New(recs *records.Store, camera scan.Camera, opts ...Option) *App {
	cfg := config{
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bus == nil {
		cfg.bus = EventBus.New()
	}

	a := &App{
		records: recs,
		clock:   cfg.clock,
		bus:     cfg.bus,
		logger:  cfg.logger,
	}
	if camera != nil {
		scanOpts := append([]scan.Option{scan.WithLogger(cfg.logger)}, cfg.scanOpts...)
		scanOpts = append(scanOpts, scan.WithOnResult(a.onScanResult), scan.WithOnError(a.onScanError))
		a.scanner = scan.NewScanner(camera, scanOpts...)
	}
	return a
}

// Subscribe registers fn for topic. fn is called synchronously with the
// topic's event value.
func (a *App) Subscribe(topic string, fn interface{}) error {
	return a.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a handler registered with Subscribe.
func (a *App) Unsubscribe(topic string, fn interface{}) error {
	return a.bus.Unsubscribe(topic, fn)
}

// CommitDraft validates d and commits it. An empty code takes the pending
// scanned code, which is then cleared.
func (a *App) CommitDraft(ctx context.Context, d inventory.Draft) (inventory.Record, error) {
	a.mu.Lock()
	pending := a.pendingCode
	a.mu.Unlock()

	usedPending := false
	if strings.TrimSpace(d.Code) == "" && pending != "" {
		d.Code = pending
		usedPending = true
	}

	rec, err := a.records.Commit(ctx, d)
	if err != nil {
		return inventory.Record{}, err
	}

	if usedPending {
		a.mu.Lock()
		if a.pendingCode == pending {
			a.pendingCode = ""
		}
		a.mu.Unlock()
	}

	a.logger.Info("record committed", "id", rec.ID, "name", rec.Name, "expiry", rec.Expiry)
	a.bus.Publish(TopicRecordsChanged, RecordsChanged{Kind: ChangeCommitted, Record: rec})
	return rec, nil
}

// Record looks up a committed record by id.
func (a *App) Record(id string) (inventory.Record, bool) {
	return a.records.Get(id)
}

// RemoveRecord removes id. Removing an unknown id is a no-op and reports
// false.
func (a *App) RemoveRecord(ctx context.Context, id string) (bool, error) {
	rec, exists := a.records.Get(id)
	removed, err := a.records.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		a.logger.Debug("remove ignored, no such record", "id", id)
		return false, nil
	}
	if !exists {
		rec = inventory.Record{ID: id}
	}
	a.logger.Info("record removed", "id", id)
	a.bus.Publish(TopicRecordsChanged, RecordsChanged{Kind: ChangeRemoved, Record: rec})
	return true, nil
}

// OpenScan starts a scan session.
func (a *App) OpenScan(ctx context.Context) (*scan.Session, error) {
	if a.scanner == nil {
		return nil, &scan.Error{
			Reason:  scan.ReasonCameraUnavailable,
			Message: "no camera configured",
		}
	}
	s, err := a.scanner.Open(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.lastSession = s
	a.mu.Unlock()
	return s, nil
}

// CancelScan ends the running session, if any. The camera is released
// when CancelScan returns.
func (a *App) CancelScan() {
	if a.scanner == nil {
		return
	}
	a.scanner.Cancel(a.scanner.Current())
}

// ScanStatus describes the latest scan session.
func (a *App) ScanStatus() (ScanStatus, bool) {
	a.mu.Lock()
	s := a.lastSession
	a.mu.Unlock()
	if s == nil {
		return ScanStatus{}, false
	}
	return statusOf(s), true
}

// SetFilter replaces the view filter.
func (a *App) SetFilter(f view.Filter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter = f
	a.logger.Debug("filter changed", "bucket", f.Bucket, "location", f.Location)
}

// Filter returns the current view filter.
func (a *App) Filter() view.Filter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// PendingCode returns the code waiting for the next draft.
func (a *App) PendingCode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pendingCode
}

// ClearPendingCode drops the pending code.
func (a *App) ClearPendingCode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingCode = ""
}

// Snapshot is everything the presentation layer renders, computed against
// one reference instant.
type Snapshot struct {
	Reference   time.Time          `json:"reference"`
	Filter      view.Filter        `json:"filter"`
	Rows        []view.Row         `json:"rows"`
	Summary     view.Summary       `json:"summary"`
	Recent      []inventory.Record `json:"recent"`
	PendingCode string             `json:"pending_code,omitempty"`
	Scan        *ScanStatus        `json:"scan,omitempty"`
}

// Snapshot projects the store with the current filter.
func (a *App) Snapshot() (Snapshot, error) {
	ref := a.clock.Now()
	recs := a.records.Records()

	a.mu.Lock()
	filter := a.filter
	pending := a.pendingCode
	last := a.lastSession
	a.mu.Unlock()

	rows, err := view.ProjectFilter(recs, ref, filter)
	if err != nil {
		return Snapshot{}, fmt.Errorf("project records: %w", err)
	}
	summary, err := view.Summarize(recs, ref)
	if err != nil {
		return Snapshot{}, fmt.Errorf("summarize records: %w", err)
	}

	snap := Snapshot{
		Reference:   ref,
		Filter:      filter,
		Rows:        rows,
		Summary:     summary,
		Recent:      a.records.Recent(RecentCount),
		PendingCode: pending,
	}
	if last != nil {
		st := statusOf(last)
		snap.Scan = &st
	}
	return snap, nil
}

// View projects the store with f instead of the current filter.
func (a *App) View(f view.Filter) ([]view.Row, time.Time, error) {
	ref := a.clock.Now()
	rows, err := view.ProjectFilter(a.records.Records(), ref, f)
	return rows, ref, err
}

// Summary tallies the whole store at the current instant.
func (a *App) Summary() (view.Summary, time.Time, error) {
	ref := a.clock.Now()
	s, err := view.Summarize(a.records.Records(), ref)
	return s, ref, err
}

func (a *App) onScanResult(s *scan.Session, b scan.Barcode) {
	a.mu.Lock()
	a.pendingCode = b.Value
	a.mu.Unlock()
	a.bus.Publish(TopicScanResult, ScanResult{SessionID: s.ID(), Barcode: b})
}

func (a *App) onScanError(s *scan.Session, err *scan.Error) {
	a.bus.Publish(TopicScanError, ScanError{SessionID: s.ID(), Err: err})
}
