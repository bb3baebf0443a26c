// Package auth holds the manager login check: a plain equality comparison
// against a single server-held secret. No accounts, no sessions, no
// lockout; brute-force protection is an accepted gap.
package auth

import "errors"

var (
	ErrNotConfigured   = errors.New("manager password is not configured")
	ErrInvalidPassword = errors.New("invalid password")
)

type Manager struct {
	secret string
}

func NewManager(secret string) *Manager {
	return &Manager{secret: secret}
}

// Login compares the submitted password against the configured secret.
// A missing secret is a server configuration error, not a bad password.
func (m *Manager) Login(password string) error {
	if m.secret == "" {
		return ErrNotConfigured
	}
	if password != m.secret {
		return ErrInvalidPassword
	}
	return nil
}
