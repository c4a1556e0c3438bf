// ABOUTME: Message persistence operations for the SQLite store
// ABOUTME: Participant-scoped queries plus the one-way unread->read transition

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const messageColumns = `id, sender_id, receiver_id, subject, body, read, created_at`

// CreateMessage inserts a new message. The read flag always starts false.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.Read = false

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, subject, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, msg.ID, msg.SenderID, msg.ReceiverID, msg.Subject, msg.Body, msg.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("created message", "id", msg.ID, "sender", msg.SenderID, "receiver", msg.ReceiverID)
	return nil
}

// GetMessageForUser retrieves a message by ID, visible only to its sender or
// receiver. A missing message and a message the caller is not a participant
// of both return ErrMessageNotFound.
func (s *SQLiteStore) GetMessageForUser(ctx context.Context, userID, messageID string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE id = ? AND (sender_id = ? OR receiver_id = ?)
	`, messageID, userID, userID)

	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	return msg, nil
}

// MarkMessageRead flips the read flag of a single message, but only when the
// given user is its receiver and the message is still unread. Reports whether
// a transition happened. The conditional update makes the flip idempotent
// under concurrent fetches.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, receiverID, messageID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read = 1 WHERE id = ? AND receiver_id = ? AND read = 0
	`, messageID, receiverID)
	if err != nil {
		return false, fmt.Errorf("marking message read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking message read: %w", err)
	}
	return n > 0, nil
}

// ListSent returns all messages sent by the user, ordered by receiver then
// creation time ascending.
func (s *SQLiteStore) ListSent(ctx context.Context, userID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE sender_id = ?
		ORDER BY receiver_id ASC, created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sent messages: %w", err)
	}
	return collectMessages(rows)
}

// ListReceivedMarkRead returns all messages received by the user, ordered by
// sender then creation time ascending, and marks the user's entire inbox read
// in the same transaction. The returned messages carry their state as of the
// listing; the transition is visible to subsequent reads.
func (s *SQLiteStore) ListReceivedMarkRead(ctx context.Context, userID string) ([]*Message, error) {
	return s.listAndMarkRead(ctx, userID, `
		SELECT `+messageColumns+` FROM messages
		WHERE receiver_id = ?
		ORDER BY sender_id ASC, created_at ASC
	`)
}

// ListUnreadMarkRead returns the user's unread messages ordered by creation
// time ascending and marks them read in the same transaction.
func (s *SQLiteStore) ListUnreadMarkRead(ctx context.Context, userID string) ([]*Message, error) {
	return s.listAndMarkRead(ctx, userID, `
		SELECT `+messageColumns+` FROM messages
		WHERE receiver_id = ? AND read = 0
		ORDER BY created_at ASC
	`)
}

// listAndMarkRead runs the given receiver-scoped select, then flips every
// still-unread message of the receiver with one filtered update. The bulk
// update is a single statement, never a read-then-write loop, so concurrent
// listings by the same user cannot lose transitions.
func (s *SQLiteStore) listAndMarkRead(ctx context.Context, userID, query string) ([]*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying received messages: %w", err)
	}
	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages SET read = 1 WHERE receiver_id = ? AND read = 0
	`, userID); err != nil {
		return nil, fmt.Errorf("marking inbox read: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing read transition: %w", err)
	}
	return messages, nil
}

// DeleteMessageForUser permanently removes a message, allowed only for its
// sender or receiver. Missing and forbidden are both ErrMessageNotFound.
func (s *SQLiteStore) DeleteMessageForUser(ctx context.Context, userID, messageID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE id = ? AND (sender_id = ? OR receiver_id = ?)
	`, messageID, userID, userID)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if n == 0 {
		return ErrMessageNotFound
	}

	s.logger.Debug("deleted message", "id", messageID, "user", userID)
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*Message, error) {
	var m Message
	var createdAt string
	if err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Body, &m.Read, &createdAt); err != nil {
		return nil, err
	}
	var err error
	m.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &m, nil
}

func collectMessages(rows *sql.Rows) ([]*Message, error) {
	defer func() { _ = rows.Close() }()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
