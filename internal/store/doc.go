// Package store provides the key-value persistence slots the record store
// mirrors itself into.
//
// A slot is addressed by a string key and holds one opaque blob. Saves
// overwrite the whole blob; there are no partial updates. Three drivers
// implement KV:
//   - sqlite (default): single table, WAL mode, schema migrations via user_version
//   - bolt: one bbolt bucket
//   - memory: process-local map, for tests and throwaway sessions
//
// # Database Configuration (sqlite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=FULL: a returned Save survives power loss
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
