// ABOUTME: Route registration for the abra HTTP API
// ABOUTME: Public signup/login plus the authenticated message group

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NoamBoni/abra/internal/auth"
)

// NewRouter builds the chi router. Every /message route sits behind the
// access-control gate; signup and login are the only public endpoints.
func NewRouter(api *API, users auth.UserResolver, codec *auth.TokenCodec) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/signup", api.handleSignup)
	r.Post("/login", api.handleLogin)

	r.Route("/message", func(r chi.Router) {
		r.Use(auth.Middleware(users, codec))
		r.Post("/send", api.handleSendMessage)
		r.Get("/all", api.handleListAll)
		r.Get("/unread", api.handleListUnread)
		r.Get("/{id}", api.handleGetMessage)
		r.Delete("/delete/{id}", api.handleDeleteMessage)
	})

	return r
}
