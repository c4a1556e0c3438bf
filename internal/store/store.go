// ABOUTME: Store interface and data types for abra persistence
// ABOUTME: Defines User, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a requested user does not exist
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUser is returned when trying to create a user whose name is taken
var ErrDuplicateUser = errors.New("user name already taken")

// ErrMessageNotFound is returned when a message does not exist or the caller
// is not a participant. The two cases are deliberately indistinguishable.
var ErrMessageNotFound = errors.New("message not found")

// User represents a registered account
type User struct {
	ID           string
	Name         string
	PasswordHash string // bcrypt digest, never serialized to callers
	CreatedAt    time.Time
}

// Message represents a single directed message between two users
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Subject    string
	Body       string
	Read       bool // transitions false->true exactly once, never back
	CreatedAt  time.Time
}

// Mailbox groups a user's sent and received messages
type Mailbox struct {
	Sent     []*Message
	Received []*Message
}

// Store defines the interface for user and message persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)

	// Messages. Every read and delete is scoped to the participant set
	// {sender, receiver}; there is no unscoped access path.
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessageForUser(ctx context.Context, userID, messageID string) (*Message, error)
	MarkMessageRead(ctx context.Context, receiverID, messageID string) (bool, error)
	ListSent(ctx context.Context, userID string) ([]*Message, error)
	ListReceivedMarkRead(ctx context.Context, userID string) ([]*Message, error)
	ListUnreadMarkRead(ctx context.Context, userID string) ([]*Message, error)
	DeleteMessageForUser(ctx context.Context, userID, messageID string) error

	// Close releases any resources held by the store
	Close() error
}
