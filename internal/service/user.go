// FILE: internal/service/user.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"go.uber.org/zap"

	"repertoire/internal/storage"
)

// User represents an API account
type User struct {
	UserID    string
	Username  string
	CreatedAt time.Time
}

// Token is a signed bearer token
type Token struct {
	Value     string
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// AuthEnabled reports whether API requests need a bearer token
func (s *Service) AuthEnabled() bool {
	return len(s.secret) > 0
}

// CreateUser stores an account with an argon2 password hash
func (s *Service) CreateUser(username, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidRequest)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		UserID:    uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	record := storage.UserRecord{
		UserID:       user.UserID,
		Username:     user.Username,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.store.CreateUser(record); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and stamps the login time
func (s *Service) Authenticate(username, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByUsername(username)
	if err != nil {
		// Hash anyway so unknown users cost the same as wrong passwords
		auth.HashPassword(password)
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.store.UpdateUserLastLogin(record.UserID, s.now())
	return &User{
		UserID:    record.UserID,
		Username:  record.Username,
		CreatedAt: record.CreatedAt,
	}, nil
}

// IssueToken signs a token for the named user
func (s *Service) IssueToken(username string) (Token, error) {
	if !s.AuthEnabled() {
		return Token{}, ErrAuthDisabled
	}
	if s.store == nil {
		return Token{}, ErrStorageDisabled
	}
	record, err := s.store.GetUserByUsername(username)
	if err != nil {
		return Token{}, err
	}
	return s.signToken(record.UserID, record.Username)
}

// Login authenticates and signs a token in one step
func (s *Service) Login(username, password string) (Token, error) {
	if !s.AuthEnabled() {
		return Token{}, ErrAuthDisabled
	}
	user, err := s.Authenticate(username, password)
	if err != nil {
		return Token{}, err
	}
	return s.signToken(user.UserID, user.Username)
}

func (s *Service) signToken(userID, username string) (Token, error) {
	claims := map[string]any{
		"username": username,
	}
	value, err := auth.GenerateHS256Token(s.secret, userID, claims, s.tokenTTL)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	s.log.Info("token issued", zap.String("user", username))
	return Token{
		Value:     value,
		UserID:    userID,
		Username:  username,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}, nil
}

// ValidateToken verifies a bearer token and returns user ID with claims
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	if !s.AuthEnabled() {
		return "", nil, ErrAuthDisabled
	}
	return auth.ValidateHS256Token(s.secret, token)
}
