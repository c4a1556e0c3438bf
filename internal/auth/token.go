// ABOUTME: Session token codec for authenticating API requests
// ABOUTME: Uses HS256 signing with a secret injected at construction

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims is the identity claim embedded in a session token.
type Claims struct {
	UserID string
	Name   string
}

// TokenCodec issues and verifies stateless session tokens. The signing
// secret is held by the codec; there is no server-side session table.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec signing with the given secret. A ttl of zero
// issues tokens without an expiry, matching the historical behavior; setting
// it forces re-login after the ttl elapses.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Issue produces a signed token embedding the user's identity.
func (c *TokenCodec) Issue(claims Claims) (string, error) {
	now := time.Now()
	mc := jwt.MapClaims{
		"sub":  claims.UserID,
		"name": claims.Name,
		"iat":  now.Unix(),
	}
	if c.ttl > 0 {
		mc["exp"] = now.Add(c.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return token.SignedString(c.secret)
}

// Parse verifies the token's signature and structure and returns the embedded
// claims. Any tampering fails the signature check.
func (c *TokenCodec) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	name, ok := mc["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingClaim)
	}

	return &Claims{UserID: sub, Name: name}, nil
}
