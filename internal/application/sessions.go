package application

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "krishiai"

// ErrInvalidSession is returned when a session token is missing, malformed,
// expired or signed with another key.
var ErrInvalidSession = errors.New("invalid session")

// Session is the verified content of a session token.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessionIssuer creates a SessionIssuer. key must be non-empty.
func NewSessionIssuer(key []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(key) == 0 {
		return nil, errors.New("session signing key is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	return &SessionIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for userID.
func (s *SessionIssuer) Issue(userID int64) (string, Session, error) {
	now := s.now().Truncate(time.Second)
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Issuer:    sessionIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Verify parses token and returns its session. Any failure is reported as
// ErrInvalidSession wrapping the cause.
func (s *SessionIssuer) Verify(token string) (Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad subject %q", ErrInvalidSession, claims.Subject)
	}

	return Session{
		ID:        claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
