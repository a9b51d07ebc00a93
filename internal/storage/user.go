// FILE: internal/storage/user.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `user_id, username, password_hash, created_at, last_login_at`

// CreateUser inserts a user, failing when the username is taken
func (s *Store) CreateUser(record UserRecord) error {
	return s.withTx(func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`,
			record.Username).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("username %q already exists", record.Username)
		}
		_, err := tx.Exec(`INSERT INTO users (user_id, username, password_hash, created_at)
			VALUES (?, ?, ?, ?)`,
			record.UserID, record.Username, record.PasswordHash, record.CreatedAt.UTC(),
		)
		return err
	})
}

func scanUser(row interface{ Scan(...any) error }) (*UserRecord, error) {
	var u UserRecord
	var last sql.NullTime
	if err := row.Scan(&u.UserID, &u.Username, &u.PasswordHash, &u.CreatedAt, &last); err != nil {
		return nil, err
	}
	if last.Valid {
		u.LastLoginAt = &last.Time
	}
	return &u, nil
}

// GetUserByUsername retrieves a user with case-insensitive matching
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+`
		FROM users WHERE username = ? COLLATE NOCASE`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	return u, err
}

// GetAllUsers retrieves all users, newest first
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUserByUsername removes a user, returning ErrNotFound when absent
func (s *Store) DeleteUserByUsername(username string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE username = ? COLLATE NOCASE`, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	return nil
}

// UpdateUserPassword replaces the password hash of a user
func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	return err
}

// UpdateUserLastLogin asynchronously stamps a successful login
func (s *Store) UpdateUserLastLogin(userID string, loginTime time.Time) {
	s.enqueue("last login", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, loginTime.UTC(), userID)
		return err
	})
}
