package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hepdata/collider-ingest/internal/record"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

const insertStmt = `
INSERT INTO collision_events (id, timestamp, energy, kind, detected)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING
`

// PG is a Sink backed by a PostgreSQL-wire-compatible store (PostgreSQL
// or CockroachDB) via pgx's connection pool.
type PG struct {
	pool    *pgxpool.Pool
	log     telemetry.Logger
	metrics *telemetry.Metrics
}

// Open constructs a PG sink. dsn is a standard postgres:// connection
// string; tlsCfg, if non-nil, is applied to every pooled connection
// (see internal/config/tls.go, adapted from the teacher's loadTLSCfg).
func Open(ctx context.Context, dsn string, tlsCfg *tls.Config, log telemetry.Logger, metrics *telemetry.Metrics) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("sink: parse dsn: %w", err)
	}
	if tlsCfg != nil {
		cfg.ConnConfig.TLSConfig = tlsCfg
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sink: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sink: ping: %w", err)
	}
	return &PG{pool: pool, log: log, metrics: metrics}, nil
}

// Migrate applies Schema. Operators call this out-of-band before
// running the pipeline; the pipeline itself never calls it implicitly.
func (p *PG) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, Schema)
	return err
}

// InsertBatch commits records in a single transaction, tolerating
// primary-key collisions as no-ops per spec.md §6.
func (p *PG) InsertBatch(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.CommitLatency.Observe(time.Since(start).Seconds())
		}
	}()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sink: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once Commit succeeds

	batch := buildInsertBatch(records)
	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("sink: batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("sink: close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}
	return nil
}

// buildInsertBatch queues one insertStmt execution per record, in order,
// split out from InsertBatch so the batch shape (statement, column order,
// per-record argument order) can be asserted without a live connection.
func buildInsertBatch(records []record.Record) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insertStmt, r.ID(), r.Timestamp(), r.Energy(), r.Kind().String(), r.Detected())
	}
	return batch
}

// Close releases the pool's connections.
func (p *PG) Close() {
	p.pool.Close()
}
