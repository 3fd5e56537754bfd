// Package session issues and verifies the signed session tokens that prove a
// prior successful login, and carries the resulting principal through a
// request context.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie that carries the session token in browsers.
const CookieName = "filegate_session"

// ErrUnauthenticated is returned when no valid session accompanies a request.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the authenticated user behind a request.
type Principal struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.UserID == ""
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx, or ErrUnauthenticated.
func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}

// Issuer signs and parses HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer whose tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed token for p.
func (i *Issuer) Issue(p Principal) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":      p.UserID,
		"username": p.Username,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns the principal it was issued for.
func (i *Issuer) Parse(raw string) (Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Principal{}, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	userID, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	p := Principal{UserID: userID, Username: username}
	if p.IsZero() {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
