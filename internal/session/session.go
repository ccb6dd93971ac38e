// Package session holds the operator's device API token for the lifetime of
// a sign-in. It is passed explicitly to the remote client and to the
// dashboard instead of living in ambient storage.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Invalidation reasons.
const (
	ReasonSignOut     = "sign_out"
	ReasonAuthFailure = "auth_failure"
	ReasonReplaced    = "replaced"
)

type Session struct {
	mu        sync.RWMutex
	token     string
	username  string
	expiresAt time.Time
	hooks     []func(reason string)

	now func() time.Time
}

func New() *Session {
	return &Session{now: time.Now}
}

// Set stores a freshly issued access token. The device signs its own tokens,
// so claims are read without verification and only to learn sub and exp.
// Opaque tokens are accepted as-is with no expiry.
func (s *Session) Set(token, username string) {
	sub, exp := readClaims(token)
	if sub != "" {
		username = sub
	}

	s.mu.Lock()
	s.token = token
	s.username = username
	s.expiresAt = exp
	s.mu.Unlock()
}

// Token returns the current token, or false if none is set or it has expired.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

// Active reports whether a usable token is held.
func (s *Session) Active() bool {
	_, ok := s.Token()
	return ok
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// OnInvalidate registers fn to run after the session is invalidated.
func (s *Session) OnInvalidate(fn func(reason string)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Invalidate drops the token. Hooks run once per held token, outside the
// lock; a second call without an intervening Set is a no-op and returns false.
func (s *Session) Invalidate(reason string) bool {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.username = ""
	s.expiresAt = time.Time{}
	hooks := make([]func(string), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(reason)
	}
	return true
}

func readClaims(token string) (string, time.Time) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return claims.Subject, exp
}
