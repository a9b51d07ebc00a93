// FILE: internal/storage/event.go
package storage

import (
	"database/sql"
	"fmt"
)

// RecordTrainingEvent asynchronously appends to the training event log
func (s *Store) RecordTrainingEvent(record TrainingEventRecord) {
	s.enqueue("training event", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO training_events (
			session_id, repertoire, fen, san, grade, attempts, elapsed_ms,
			attempted_moves, easiness, trained_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.SessionID, record.Repertoire, record.FEN, record.SAN,
			record.Grade, record.Attempts, record.ElapsedMS,
			record.AttemptedMoves, record.Easiness, record.TrainedAt.UTC(),
		)
		return err
	})
}

// QueryTrainingEvents returns the newest events first. Empty or "*"
// repertoire matches all; limit <= 0 means no limit.
func (s *Store) QueryTrainingEvents(repertoire string, limit int) ([]TrainingEventRecord, error) {
	query := `SELECT event_id, session_id, repertoire, fen, san, grade, attempts,
		elapsed_ms, attempted_moves, easiness, trained_at
	FROM training_events WHERE 1=1`

	var args []any
	if repertoire != "" && repertoire != "*" {
		query += " AND repertoire = ?"
		args = append(args, repertoire)
	}
	query += " ORDER BY event_id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var events []TrainingEventRecord
	for rows.Next() {
		var e TrainingEventRecord
		err := rows.Scan(
			&e.EventID, &e.SessionID, &e.Repertoire, &e.FEN, &e.SAN, &e.Grade,
			&e.Attempts, &e.ElapsedMS, &e.AttemptedMoves, &e.Easiness, &e.TrainedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return events, nil
}
