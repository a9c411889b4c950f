// Package storage saves and loads game snapshots.
//
// A snapshot is a full engine.GameState taken between turns. Three backends
// implement Store:
//
//   - file: one JSON file per save, ids are uuids
//   - redis: key save:<id>, ids from INCR save:seq, sorted set save:index
//   - postgres: table games(id serial, state jsonb, created_at timestamptz)
//
// Unknown ids return ErrNotFound on every backend.
package storage
