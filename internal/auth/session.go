// Package auth implements session-cookie authentication: signed JWT session
// tokens and bcrypt password hashing.
//
// Sessions holds its signing secret explicitly and is constructed once per
// process in the wiring layer; there is no ambient global auth state.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie set on sign-in.
const CookieName = "session"

// ErrInvalidSession is returned for missing, malformed, expired, or
// tampered session tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session identifies an authenticated user.
type Session struct {
	UserID string
	Email  string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies session tokens with HMAC-SHA256.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a Sessions provider with the given signing secret and
// token lifetime.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured session lifetime, used for cookie max-age.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Sign issues a session token for the given user.
func (s *Sessions) Sign(sess Session) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the session it
// carries. Any failure maps to ErrInvalidSession.
func (s *Sessions) Verify(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID: claims.Subject,
		Email:  claims.Email,
	}, nil
}
