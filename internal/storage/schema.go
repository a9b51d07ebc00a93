// FILE: internal/storage/schema.go
package storage

import "time"

// SnapshotRecord represents a row in the repertoires table. Data is the
// serialized repertoire JSON.
type SnapshotRecord struct {
	Name       string    `db:"name"`
	Side       string    `db:"side"` // "white" or "black"
	Revision   uint64    `db:"revision"`
	SnapshotID string    `db:"snapshot_id"`
	Data       []byte    `db:"data"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// TrainingEventRecord represents a row in the training_events table
type TrainingEventRecord struct {
	EventID        int64     `db:"event_id"`
	SessionID      string    `db:"session_id"`
	Repertoire     string    `db:"repertoire"`
	FEN            string    `db:"fen"`
	SAN            string    `db:"san"`
	Grade          int       `db:"grade"`
	Attempts       int       `db:"attempts"`
	ElapsedMS      int64     `db:"elapsed_ms"`
	AttemptedMoves string    `db:"attempted_moves"` // space separated
	Easiness       float64   `db:"easiness"`
	TrainedAt      time.Time `db:"trained_at"`
}

// UserRecord represents a row in the users table
type UserRecord struct {
	UserID       string     `db:"user_id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS repertoires (
	name TEXT PRIMARY KEY,
	side TEXT NOT NULL CHECK(side IN ('white', 'black')),
	revision INTEGER NOT NULL DEFAULT 0,
	snapshot_id TEXT NOT NULL,
	data BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS training_events (
	event_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL DEFAULT '',
	repertoire TEXT NOT NULL,
	fen TEXT NOT NULL,
	san TEXT NOT NULL,
	grade INTEGER NOT NULL CHECK(grade BETWEEN 0 AND 5),
	attempts INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	attempted_moves TEXT NOT NULL DEFAULT '',
	easiness REAL NOT NULL,
	trained_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_events_repertoire ON training_events(repertoire);
CREATE INDEX IF NOT EXISTS idx_events_position ON training_events(repertoire, fen, san);
`
