// ABOUTME: Message store service: send, list, fetch, delete with authorization
// ABOUTME: Every read and delete is scoped to the message's participant set

package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/NoamBoni/abra/internal/store"
)

// Messaging errors
var (
	// ErrUnknownReceiver is returned when the receiver name resolves to no user
	ErrUnknownReceiver = errors.New("receiver does not exist")

	// ErrEmptyField is returned when subject or body is empty after trimming
	ErrEmptyField = errors.New("subject and message body can't be empty")

	// ErrInvalidID is returned when a message id is not a well-formed UUID
	ErrInvalidID = errors.New("invalid id")
)

// MessageStore is the subset of the store the service needs.
type MessageStore interface {
	GetUserByName(ctx context.Context, name string) (*store.User, error)
	CreateMessage(ctx context.Context, msg *store.Message) error
	GetMessageForUser(ctx context.Context, userID, messageID string) (*store.Message, error)
	MarkMessageRead(ctx context.Context, receiverID, messageID string) (bool, error)
	ListSent(ctx context.Context, userID string) ([]*store.Message, error)
	ListReceivedMarkRead(ctx context.Context, userID string) ([]*store.Message, error)
	ListUnreadMarkRead(ctx context.Context, userID string) ([]*store.Message, error)
	DeleteMessageForUser(ctx context.Context, userID, messageID string) error
}

// Service implements the authenticated message operations. Callers pass the
// identity resolved by the access-control gate; the service and the store
// queries it delegates to enforce the participant predicate on every access.
type Service struct {
	store  MessageStore
	logger *slog.Logger
}

// NewService creates a messaging service backed by the given store.
func NewService(st MessageStore) *Service {
	return &Service{
		store:  st,
		logger: slog.Default().With("component", "messaging"),
	}
}

// Send persists a new message from the sender to the named receiver. The
// receiver is resolved by name; subject and body must be non-empty after
// trimming. Sending to oneself is allowed. The message starts unread.
func (s *Service) Send(ctx context.Context, sender *store.User, receiverName, subject, body string) (*store.Message, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return nil, ErrEmptyField
	}

	receiver, err := s.store.GetUserByName(ctx, receiverName)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrUnknownReceiver
		}
		return nil, err
	}

	msg := &store.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Subject:    subject,
		Body:       body,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("message sent", "id", msg.ID, "sender", sender.Name, "receiver", receiver.Name)
	return msg, nil
}

// ListForUser returns the user's sent and received messages. Sent messages
// are ordered by receiver then creation time, received by sender then
// creation time. Listing the inbox marks every received message read,
// including ones never individually viewed.
func (s *Service) ListForUser(ctx context.Context, userID string) (*store.Mailbox, error) {
	sent, err := s.store.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.store.ListReceivedMarkRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &store.Mailbox{Sent: sent, Received: received}, nil
}

// ListUnread returns the user's unread messages ordered by creation time and
// marks them read.
func (s *Service) ListUnread(ctx context.Context, userID string) ([]*store.Message, error) {
	return s.store.ListUnreadMarkRead(ctx, userID)
}

// GetByID fetches a single message visible to the caller. When the caller is
// the receiver and the message is unread, fetching it flips the read flag;
// a sender viewing their own sent message causes no transition. Missing
// messages and messages the caller is not a participant of are identical
// ErrMessageNotFound failures.
func (s *Service) GetByID(ctx context.Context, userID, messageID string) (*store.Message, error) {
	if err := validateID(messageID); err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessageForUser(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}

	if !msg.Read && msg.ReceiverID == userID {
		// The update is conditional on the flag still being unset, so a
		// concurrent fetch flips it at most once.
		if _, err := s.store.MarkMessageRead(ctx, userID, messageID); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

// DeleteByID permanently removes a message; only its sender or receiver may
// do so. The authorization failure is indistinguishable from the message not
// existing.
func (s *Service) DeleteByID(ctx context.Context, userID, messageID string) error {
	if err := validateID(messageID); err != nil {
		return err
	}
	if err := s.store.DeleteMessageForUser(ctx, userID, messageID); err != nil {
		return err
	}

	s.logger.Info("message deleted", "id", messageID, "user", userID)
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
