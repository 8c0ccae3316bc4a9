package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andresuchdata/platform-analytics/internal/report"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const latestSnapshot = "latest"

const createSnapshotTable = `
CREATE TABLE IF NOT EXISTS metrics_snapshots (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const selectSnapshot = `SELECT payload FROM metrics_snapshots WHERE name = $1`

const upsertSnapshot = `
INSERT INTO metrics_snapshots (name, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`

// SnapshotRepository keeps the latest metrics snapshot in a single row. It
// holds no per-record state.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("create metrics_snapshots: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context) (*report.Snapshot, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, selectSnapshot, latestSnapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap report.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		log.Warn().Err(err).Msg("corrupt snapshot row, ignoring")
		return nil, nil
	}
	return &snap, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, snap *report.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertSnapshot, latestSnapshot, string(payload)); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	})
}
