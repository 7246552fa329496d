package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS cms_snapshots (
	collection TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	item_count INTEGER NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
)`

// SnapshotRepository stores the last successful fetch of each CMS collection.
type SnapshotRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewSnapshotRepository(db *sql.DB, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger, now: time.Now}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("create cms_snapshots: %w", err)
	}
	return nil
}

// SaveCollection upserts the collection payload. items must encode to a JSON array.
func (r *SnapshotRepository) SaveCollection(ctx context.Context, collection string, items any) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	var decoded []json.RawMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("%s snapshot is not a list: %w", collection, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cms_snapshots (collection, payload, item_count, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection) DO UPDATE
		SET payload = EXCLUDED.payload,
		    item_count = EXCLUDED.item_count,
		    fetched_at = EXCLUDED.fetched_at`,
		collection, payload, len(decoded), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", collection, err)
	}
	return nil
}

// LoadCollection decodes the stored payload into dest. It reports false when no
// snapshot exists yet.
func (r *SnapshotRepository) LoadCollection(ctx context.Context, collection string, dest any) (bool, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM cms_snapshots WHERE collection = $1`, collection,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s snapshot: %w", collection, err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s snapshot: %w", collection, err)
	}

	r.logger.Debug("Loaded CMS snapshot",
		zap.String("collection", collection),
		zap.Duration("age", r.now().Sub(fetchedAt)),
	)
	return true, nil
}

// SnapshotInfo describes one stored collection.
type SnapshotInfo struct {
	Collection string    `json:"collection"`
	ItemCount  int       `json:"item_count"`
	FetchedAt  time.Time `json:"fetched_at"`
}

func (r *SnapshotRepository) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT collection, item_count, fetched_at FROM cms_snapshots ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	infos := make([]SnapshotInfo, 0)
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Collection, &info.ItemCount, &info.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
