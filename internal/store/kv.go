package store

import (
	"context"
	"fmt"
)

// KV is a set of named blob slots.
//
// Load returns ok=false when the slot has never been written.
// Save replaces the slot's blob and returns only once it is durable.
type KV interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Drivers lists every supported driver.
var Drivers = []string{DriverSQLite, DriverBolt, DriverMemory}

// Open creates or opens a KV backed by the named driver.
// path is ignored by the memory driver.
func Open(driver, path string) (KV, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverBolt:
		return OpenBolt(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q: must be one of %v", driver, Drivers)
	}
}
