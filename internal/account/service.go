// ABOUTME: Credential store service handling signup and login
// ABOUTME: Owns name/password validation and the enumeration-safe login error

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NoamBoni/abra/internal/auth"
	"github.com/NoamBoni/abra/internal/store"
)

// Account errors
var (
	// ErrEmptyCredentials is returned when the name or password is empty
	// after trimming whitespace
	ErrEmptyCredentials = errors.New("name and password can't be empty")

	// ErrNameTaken is returned when the requested name is already registered
	ErrNameTaken = errors.New("name already taken")

	// ErrInvalidCredentials covers both unknown names and wrong passwords,
	// so login failures never reveal whether an account exists
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// maxNameLength caps user names at the schema limit.
const maxNameLength = 200

// UserStore is the subset of the store the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUserByName(ctx context.Context, name string) (*store.User, error)
}

// Service implements signup and login over a user store.
type Service struct {
	users  UserStore
	logger *slog.Logger
}

// NewService creates an account service backed by the given user store.
func NewService(users UserStore) *Service {
	return &Service{
		users:  users,
		logger: slog.Default().With("component", "account"),
	}
}

// Register creates a new user. The name must be non-empty, at most 200
// characters, and not already taken; the password must be non-empty after
// trimming whitespace. The uniqueness check and the insert are atomic in the
// store, so concurrent signups with the same name cannot both win.
func (s *Service) Register(ctx context.Context, name, password string) (*store.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrEmptyCredentials
	}
	if strings.TrimSpace(password) == "" {
		return nil, ErrEmptyCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	s.logger.Info("registered user", "name", name)
	return user, nil
}

// Login verifies a name/password pair and returns the matching user. Unknown
// names and wrong passwords produce the same ErrInvalidCredentials; a dummy
// digest comparison keeps the two paths constant-time.
func (s *Service) Login(ctx context.Context, name, password string) (*store.User, error) {
	user, err := s.users.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			auth.CheckDummyPassword(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
