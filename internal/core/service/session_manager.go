package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
	"github.com/blumenhaus/flora-shop/internal/core/ports"
)

// SessionManager issues and resolves the cookie credential. The cookie
// value is a signed HS256 token whose sid claim keys the server-side
// session record; a tampered or garbage cookie is rejected without a
// session-store roundtrip.
type SessionManager struct {
	sessions ports.SessionRepository
	secret   []byte
	ttl      time.Duration
}

func NewSessionManager(sessions ports.SessionRepository, secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionManager{sessions: sessions, secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue creates a server-side session for the user and returns the signed
// cookie value.
func (m *SessionManager) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	sid := hex.EncodeToString(buf)

	if err := m.sessions.Create(ctx, sid, userID, m.ttl); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	claims := jwt.MapClaims{
		"sid": sid,
		"sub": fmt.Sprintf("%d", userID),
		"exp": time.Now().Add(m.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Resolve verifies the cookie value and returns the owning user id. The
// session's TTL is extended on every successful resolution so active users
// stay logged in.
func (m *SessionManager) Resolve(ctx context.Context, token string) (int64, error) {
	sid, err := m.parseSID(token)
	if err != nil {
		return 0, err
	}

	userID, err := m.sessions.Lookup(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return 0, domain.ErrSessionExpired
		}
		return 0, err
	}

	if err := m.sessions.Touch(ctx, sid, m.ttl); err != nil {
		// Sliding expiry is best effort; the session is still valid.
		return userID, nil
	}
	return userID, nil
}

// Revoke destroys the session behind the cookie value. Unknown or invalid
// tokens are not an error: logout is idempotent.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	sid, err := m.parseSID(token)
	if err != nil {
		return nil
	}
	if err := m.sessions.Destroy(ctx, sid); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (m *SessionManager) parseSID(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrSessionExpired
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", domain.ErrSessionExpired
	}
	return sid, nil
}
