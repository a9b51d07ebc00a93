// FILE: internal/storage/snapshot.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// Older revisions never overwrite newer ones
const upsertSnapshot = `INSERT INTO repertoires (name, side, revision, snapshot_id, data, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		side = excluded.side,
		revision = excluded.revision,
		snapshot_id = excluded.snapshot_id,
		data = excluded.data,
		updated_at = excluded.updated_at
	WHERE excluded.revision >= repertoires.revision`

func putSnapshot(tx *sql.Tx, r SnapshotRecord) error {
	_, err := tx.Exec(upsertSnapshot,
		r.Name, r.Side, r.Revision, r.SnapshotID, r.Data, r.UpdatedAt.UTC(),
	)
	return err
}

// SaveSnapshot asynchronously stores the latest snapshot of a repertoire
func (s *Store) SaveSnapshot(record SnapshotRecord) {
	s.enqueue("snapshot "+record.Name, func(tx *sql.Tx) error {
		return putSnapshot(tx, record)
	})
}

// SaveSnapshotSync stores a snapshot and waits for the commit
func (s *Store) SaveSnapshotSync(record SnapshotRecord) error {
	if err := s.withTx(func(tx *sql.Tx) error { return putSnapshot(tx, record) }); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", record.Name, err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot of name or ErrNotFound
func (s *Store) LoadSnapshot(name string) (*SnapshotRecord, error) {
	var r SnapshotRecord
	err := s.db.QueryRow(`SELECT name, side, revision, snapshot_id, data, updated_at
		FROM repertoires WHERE name = ?`, name).Scan(
		&r.Name, &r.Side, &r.Revision, &r.SnapshotID, &r.Data, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: repertoire %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &r, nil
}

// QuerySnapshots lists stored snapshots without their data, ordered by name
func (s *Store) QuerySnapshots() ([]SnapshotRecord, error) {
	rows, err := s.db.Query(`SELECT name, side, revision, snapshot_id, length(data), updated_at
		FROM repertoires ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		var size int
		if err := rows.Scan(&r.Name, &r.Side, &r.Revision, &r.SnapshotID, &size, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		r.Data = make([]byte, 0, size)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return records, nil
}
