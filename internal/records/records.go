package records

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/store"
)

// DefaultSlot is the persistence key holding the serialized collection.
const DefaultSlot = "inventory-records"

// Store is the ordered record collection.
//
// Thread-safety: all methods are safe for concurrent use. Mutations are
// serialized and each one holds the lock across its save, so the slot
// always reflects a prefix of the mutation history.
type Store struct {
	mu      sync.RWMutex
	kv      store.KV
	slot    string
	ids     inventory.IDGenerator
	logger  *slog.Logger
	records []inventory.Record // newest first
}

// Option configures a Store.
type Option func(*Store)

// WithSlot overrides the persistence key (default DefaultSlot).
func WithSlot(key string) Option {
	return func(s *Store) {
		s.slot = key
	}
}

// WithIDGenerator overrides the id source (default UUIDv7Generator).
func WithIDGenerator(gen inventory.IDGenerator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Load builds a Store from whatever the slot holds.
//
// Absent data, malformed data and read errors all start the store empty;
// the latter two are logged at warn level.
func Load(ctx context.Context, kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		slot:   DefaultSlot,
		ids:    inventory.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, ok, err := kv.Load(ctx, s.slot)
	switch {
	case err != nil:
		s.logger.Warn("record slot unreadable, starting empty", "slot", s.slot, "error", err)
	case !ok:
		s.logger.Debug("record slot empty", "slot", s.slot)
	default:
		recs, err := decode(data, s.logger)
		if err != nil {
			s.logger.Warn("record slot malformed, starting empty", "slot", s.slot, "error", err)
			break
		}
		s.records = recs
		s.logger.Info("records loaded", "slot", s.slot, "count", len(recs))
	}

	return s
}

// Commit validates the draft, assigns an id and inserts the record as the
// newest entry. The record is returned only after the collection is saved.
func (s *Store) Commit(ctx context.Context, d inventory.Draft) (inventory.Record, error) {
	v, err := d.Validate()
	if err != nil {
		return inventory.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.Generate()
	if s.indexOf(id) >= 0 {
		return inventory.Record{}, &inventory.ValidationError{
			Field:   inventory.FieldID,
			Message: fmt.Sprintf("generated id %q already in use", id),
		}
	}
	rec := v.Record(id)

	next := make([]inventory.Record, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)

	if err := s.persist(ctx, next); err != nil {
		return inventory.Record{}, fmt.Errorf("commit %q: %w", rec.Name, err)
	}
	s.records = next

	s.logger.Info("record committed", "id", rec.ID, "name", rec.Name, "expiry", rec.Expiry.String())
	return rec, nil
}

// Remove deletes the record with the given id.
//
// Removing an id that is not present is a no-op: it returns false and
// writes nothing.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	next := make([]inventory.Record, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return false, fmt.Errorf("remove %q: %w", id, err)
	}
	s.records = next

	s.logger.Info("record removed", "id", id)
	return true, nil
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []inventory.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Recent returns up to n of the most recently committed records, newest first.
func (s *Store) Recent(n int) []inventory.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.records) {
		n = len(s.records)
	}
	if n <= 0 {
		return []inventory.Record{}
	}
	out := make([]inventory.Record, n)
	copy(out, s.records[:n])
	return out
}

// Get looks a record up by id.
func (s *Store) Get(id string) (inventory.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return inventory.Record{}, false
	}
	return s.records[idx], true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// indexOf returns the position of id or -1. Caller holds the lock.
func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// persist overwrites the slot with recs. Caller holds the write lock.
func (s *Store) persist(ctx context.Context, recs []inventory.Record) error {
	data, err := encode(recs)
	if err != nil {
		return err
	}
	if err := s.kv.Save(ctx, s.slot, data); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}
