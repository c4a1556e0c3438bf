// ABOUTME: HTTP JSON handlers exposing signup/login and the message operations
// ABOUTME: Thin plumbing: decode, validate, call the service, map errors to statuses

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/NoamBoni/abra/internal/account"
	"github.com/NoamBoni/abra/internal/auth"
	"github.com/NoamBoni/abra/internal/messaging"
	"github.com/NoamBoni/abra/internal/store"
)

// API holds the services the HTTP layer delegates to.
type API struct {
	accounts *account.Service
	messages *messaging.Service
	codec    *auth.TokenCodec
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPI creates the HTTP API over the given services and token codec.
func NewAPI(accounts *account.Service, messages *messaging.Service, codec *auth.TokenCodec) *API {
	return &API{
		accounts: accounts,
		messages: messages,
		codec:    codec,
		validate: validator.New(),
		logger:   slog.Default().With("component", "httpapi"),
	}
}

// CredentialsRequest is the JSON request body for POST /signup and POST /login.
type CredentialsRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SendMessageRequest is the JSON request body for POST /message/send.
type SendMessageRequest struct {
	Receiver string `json:"receiver" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// UserResponse is the JSON shape of a user. The password digest is never
// part of any response.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// MessageResponse is the JSON shape of a message.
type MessageResponse struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// MailboxResponse is the JSON response for GET /message/all.
type MailboxResponse struct {
	Sent     []MessageResponse `json:"sent"`
	Received []MessageResponse `json:"received"`
}

// handleSignup handles POST /signup requests.
func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := a.accounts.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendAuthResponse(w, user)
}

// handleLogin handles POST /login requests.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, err := a.accounts.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendAuthResponse(w, user)
}

// handleSendMessage handles POST /message/send requests.
func (a *API) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || a.validate.Struct(req) != nil {
		a.sendJSONError(w, http.StatusBadRequest, "please provide receiver name, subject and message")
		return
	}

	msg, err := a.messages.Send(r.Context(), user, req.Receiver, req.Subject, req.Message)
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendJSON(w, http.StatusOK, messageToResponse(msg))
}

// handleListAll handles GET /message/all requests. Listing marks the whole
// inbox read as a side effect.
func (a *API) handleListAll(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	mailbox, err := a.messages.ListForUser(r.Context(), user.ID)
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendJSON(w, http.StatusOK, MailboxResponse{
		Sent:     messagesToResponse(mailbox.Sent),
		Received: messagesToResponse(mailbox.Received),
	})
}

// handleListUnread handles GET /message/unread requests.
func (a *API) handleListUnread(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	messages, err := a.messages.ListUnread(r.Context(), user.ID)
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendJSON(w, http.StatusOK, messagesToResponse(messages))
}

// handleGetMessage handles GET /message/{id} requests.
func (a *API) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	msg, err := a.messages.GetByID(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		a.sendError(w, r, err)
		return
	}

	a.sendJSON(w, http.StatusOK, messageToResponse(msg))
}

// handleDeleteMessage handles DELETE /message/delete/{id} requests.
func (a *API) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	if err := a.messages.DeleteByID(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		a.sendError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) decodeCredentials(w http.ResponseWriter, r *http.Request) (*CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || a.validate.Struct(req) != nil {
		a.sendJSONError(w, http.StatusBadRequest, "please specify name and password")
		return nil, false
	}
	return &req, true
}

// sendAuthResponse issues a session token for the user and returns it both
// as a cookie for browser clients and in the body for API clients.
func (a *API) sendAuthResponse(w http.ResponseWriter, user *store.User) {
	token, err := a.codec.Issue(auth.Claims{UserID: user.ID, Name: user.Name})
	if err != nil {
		a.logger.Error("failed to issue token", "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	a.sendJSON(w, http.StatusOK, UserResponse{ID: user.ID, Name: user.Name, Token: token})
}

// sendError maps service failures to HTTP statuses. Anything outside the
// known taxonomy is treated as the store being unavailable.
func (a *API) sendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrEmptyCredentials),
		errors.Is(err, account.ErrNameTaken),
		errors.Is(err, messaging.ErrEmptyField),
		errors.Is(err, messaging.ErrUnknownReceiver):
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, messaging.ErrInvalidID):
		a.sendJSONError(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, account.ErrInvalidCredentials):
		a.sendJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrMessageNotFound):
		a.sendJSONError(w, http.StatusBadRequest, "message not found, are you sure you are the sender/receiver?")
	default:
		a.logger.Error("store failure", "method", r.Method, "path", r.URL.Path, "error", err)
		a.sendJSONError(w, http.StatusServiceUnavailable, "store unavailable")
	}
}

func (a *API) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}

func (a *API) sendJSONError(w http.ResponseWriter, status int, message string) {
	a.sendJSON(w, status, map[string]string{"error": message})
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Sender:    m.SenderID,
		Receiver:  m.ReceiverID,
		Subject:   m.Subject,
		Message:   m.Body,
		Read:      m.Read,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func messagesToResponse(msgs []*store.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToResponse(m))
	}
	return out
}
