// Package sink defines the abstract transactional batch-insert
// collaborator the core pipeline writes through (spec.md §6), and
// provides a PostgreSQL/CockroachDB-wire-compatible implementation
// plus an optional dead-letter decorator.
package sink

import (
	"context"

	"github.com/hepdata/collider-ingest/internal/record"
)

// Sink is the external collaborator spec.md §2.6 and §6 describe: a
// transactional batch-insert interface with duplicate-key tolerance.
// Implementations must be safe for concurrent InsertBatch calls and
// must manage their own transaction scope per call.
type Sink interface {
	// InsertBatch commits records in a single transaction. It must be
	// idempotent on id collision: a conflicting row is a no-op, and a
	// run composed entirely of duplicate-ignored rows is not an error.
	InsertBatch(ctx context.Context, records []record.Record) error

	// Close releases connection resources. It is called exactly once,
	// by whichever component constructed the Sink, after every
	// Consumer has exited.
	Close()
}

// Schema is the normative primary-table and index layout spec.md §6
// requires of the Sink's backing store. Applying it is an operator
// concern (see pg.go's Migrate helper); the pipeline itself never
// issues DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS collision_events (
	id        UUID PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	energy    DOUBLE PRECISION NOT NULL,
	kind      TEXT NOT NULL,
	detected  BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS collision_events_energy_desc_idx ON collision_events (energy DESC);
CREATE INDEX IF NOT EXISTS collision_events_timestamp_desc_idx ON collision_events (timestamp DESC);
`
