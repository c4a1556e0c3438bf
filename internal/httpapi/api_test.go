// ABOUTME: Tests for the HTTP API handlers and routing
// ABOUTME: Covers validation responses, error mapping, and the full user scenario

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoamBoni/abra/internal/account"
	"github.com/NoamBoni/abra/internal/auth"
	"github.com/NoamBoni/abra/internal/messaging"
	"github.com/NoamBoni/abra/internal/store"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	server, _ := setupServerWithStore(t)
	return server
}

func setupServerWithStore(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	codec := auth.NewTokenCodec([]byte("test-secret"), 0)
	api := NewAPI(account.NewService(st), messaging.NewService(st), codec)
	server := httptest.NewServer(NewRouter(api, st, codec))
	t.Cleanup(server.Close)
	return server, st
}

func postJSON(t *testing.T, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, payload)
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// signup registers a user and returns its id and session token.
func signup(t *testing.T, server *httptest.Server, name, password string) (string, string) {
	t.Helper()
	resp, body := postJSON(t, server.URL+"/signup", "", map[string]string{
		"name": name, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["token"])
	return body["id"].(string), body["token"].(string)
}

func TestSignup_Validation(t *testing.T) {
	server := setupServer(t)

	resp, body := postJSON(t, server.URL+"/signup", "", map[string]string{"name": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "please specify name and password", body["error"])

	resp, body = postJSON(t, server.URL+"/signup", "", map[string]string{"name": "alice", "password": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "can't be empty")
}

func TestSignup_DuplicateName(t *testing.T) {
	server := setupServer(t)
	signup(t, server, "alice", "secret123")

	resp, body := postJSON(t, server.URL+"/signup", "", map[string]string{
		"name": "alice", "password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "already taken")
}

func TestSignup_SetsSessionCookie(t *testing.T) {
	server := setupServer(t)

	resp, _ := postJSON(t, server.URL+"/signup", "", map[string]string{
		"name": "alice", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.NotEmpty(t, sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)
}

func TestLogin(t *testing.T) {
	server := setupServer(t)
	signup(t, server, "alice", "secret123")

	resp, body := postJSON(t, server.URL+"/login", "", map[string]string{
		"name": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["name"])
	assert.NotEmpty(t, body["token"])

	// Wrong password and unknown user fail identically
	resp1, body1 := postJSON(t, server.URL+"/login", "", map[string]string{
		"name": "alice", "password": "wrong",
	})
	resp2, body2 := postJSON(t, server.URL+"/login", "", map[string]string{
		"name": "nobody", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp1.StatusCode)
	assert.Equal(t, resp1.StatusCode, resp2.StatusCode)
	assert.Equal(t, body1["error"], body2["error"])
}

func TestMessageRoutes_RequireAuth(t *testing.T) {
	server := setupServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/message/send"},
		{http.MethodGet, "/message/all"},
		{http.MethodGet, "/message/unread"},
		{http.MethodGet, "/message/some-id"},
		{http.MethodDelete, "/message/delete/some-id"},
	} {
		resp, _ := doJSON(t, route.method, server.URL+route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	server := setupServer(t)
	_, token := signup(t, server, "alice", "secret123")

	resp, body := postJSON(t, server.URL+"/message/send", token, map[string]string{
		"receiver": "nobody", "subject": "hi", "message": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "receiver does not exist")

	resp, body = postJSON(t, server.URL+"/message/send", token, map[string]string{
		"receiver": "alice", "subject": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "please provide receiver name, subject and message", body["error"])
}

func TestGetMessage_InvalidID(t *testing.T) {
	server := setupServer(t)
	_, token := signup(t, server, "alice", "secret123")

	resp, body := doJSON(t, http.MethodGet, server.URL+"/message/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid id", body["error"])
}

// TestScenario walks the whole flow: two users sign up, one messages the
// other, the receiver lists (flipping the read flag), the sender observes
// the flip, the receiver deletes, and the message is gone for both.
func TestScenario(t *testing.T) {
	server := setupServer(t)

	_, aliceToken := signup(t, server, "alice", "secret123")
	bobID, bobToken := signup(t, server, "bob", "pw0000")

	// alice sends bob a message; it starts unread
	resp, sent := postJSON(t, server.URL+"/message/send", aliceToken, map[string]string{
		"receiver": "bob", "subject": "hi", "message": "hello",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgID := sent["id"].(string)
	assert.Equal(t, bobID, sent["receiver"])
	assert.Equal(t, false, sent["read"])

	// bob lists his mail: the message is in received, and listing marks it read
	resp, bobBox := doJSON(t, http.MethodGet, server.URL+"/message/all", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobReceived := bobBox["received"].([]any)
	require.Len(t, bobReceived, 1)
	assert.Equal(t, msgID, bobReceived[0].(map[string]any)["id"])

	// alice sees the flipped flag in her sent list
	resp, aliceBox := doJSON(t, http.MethodGet, server.URL+"/message/all", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	aliceSent := aliceBox["sent"].([]any)
	require.Len(t, aliceSent, 1)
	assert.Equal(t, true, aliceSent[0].(map[string]any)["read"])

	// bob's unread listing is empty now
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/message/unread", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// bob deletes the message
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/message/delete/"+msgID, bobToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Afterwards neither participant can fetch it
	resp, body := doJSON(t, http.MethodGet, server.URL+"/message/"+msgID, bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "message not found")
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/message/"+msgID, aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestStoreFailure_SurfacesAsUnavailable drives a handler against a closed
// store and verifies the failure surfaces as 503, not as a client error.
func TestStoreFailure_SurfacesAsUnavailable(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	user := &store.User{Name: "alice", PasswordHash: "irrelevant"}
	require.NoError(t, st.CreateUser(context.Background(), user))
	require.NoError(t, st.Close())

	codec := auth.NewTokenCodec([]byte("test-secret"), 0)
	api := NewAPI(account.NewService(st), messaging.NewService(st), codec)

	req := httptest.NewRequest(http.MethodGet, "/message/all", nil)
	req = req.WithContext(auth.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	api.handleListAll(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "store unavailable")
}

// TestStoreFailure_AtTheGate verifies a valid token against a dead store
// yields 503 end to end instead of bouncing the client back to login.
func TestStoreFailure_AtTheGate(t *testing.T) {
	server, st := setupServerWithStore(t)
	_, token := signup(t, server, "alice", "secret123")
	require.NoError(t, st.Close())

	resp, body := doJSON(t, http.MethodGet, server.URL+"/message/all", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "store unavailable", body["error"])
}

// TestAuthorization verifies a third user cannot read or delete a message
// they are not a participant of, and cannot tell whether it exists.
func TestAuthorization(t *testing.T) {
	server := setupServer(t)

	_, aliceToken := signup(t, server, "alice", "secret123")
	signup(t, server, "bob", "pw0000")
	_, eveToken := signup(t, server, "eve", "sneaky-pw")

	_, sent := postJSON(t, server.URL+"/message/send", aliceToken, map[string]string{
		"receiver": "bob", "subject": "hi", "message": "hello",
	})
	msgID := sent["id"].(string)
	missingID := "00000000-0000-0000-0000-000000000000"

	respForbidden, bodyForbidden := doJSON(t, http.MethodGet, server.URL+"/message/"+msgID, eveToken, nil)
	respMissing, bodyMissing := doJSON(t, http.MethodGet, server.URL+"/message/"+missingID, eveToken, nil)
	assert.Equal(t, http.StatusBadRequest, respForbidden.StatusCode)
	assert.Equal(t, respForbidden.StatusCode, respMissing.StatusCode)
	assert.Equal(t, bodyForbidden["error"], bodyMissing["error"])

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/message/delete/"+msgID, eveToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The message is still there for its participants
	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/message/%s", server.URL, msgID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
