// Package auth provides authentication for abra.
//
// # Session Tokens
//
// Callers authenticate with stateless JWT session tokens signed with HS256.
// A token embeds the user's id and name; the signing secret is injected at
// construction (configured via auth.jwt_secret) and never held in package
// state. There is no server-side session table: possession of a validly
// signed token is the whole proof of identity.
//
// Tokens carry no expiry by default. NewTokenCodec accepts a TTL that, when
// set, adds an exp claim and forces re-login after it elapses.
//
// # Passwords
//
// Password digests use bcrypt. HashPassword/CheckPassword are the only
// entry points; the login path uses CheckDummyPassword to keep unknown-name
// and wrong-password rejections constant-time.
//
// # HTTP Gate
//
// Middleware guards every message endpoint. It accepts the token as an
// Authorization bearer header or a session cookie, verifies it, resolves the
// claimed name to a live user, and attaches the user to the request context
// for UserFromContext.
package auth
