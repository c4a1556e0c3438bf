// ABOUTME: User persistence operations for the SQLite store
// ABOUTME: Covers signup insert with uniqueness check and lookups by id/name

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateUser inserts a new user. The name uniqueness check and the insert are
// a single statement, so two concurrent signups with the same name cannot
// both succeed. Returns ErrDuplicateUser when the name is taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Name, user.PasswordHash, user.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "name", user.Name)
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns ErrUserNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, password_hash, created_at FROM users WHERE id = ?`, id)
}

// GetUserByName retrieves a user by name.
// Returns ErrUserNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*User, error) {
	return s.getUser(ctx, `SELECT id, name, password_hash, created_at FROM users WHERE name = ?`, name)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	var createdAt string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &u, nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}
