// Package session persists the bearer credential between CLI invocations.
// The credential is issued at login, carried on every authenticated call,
// and discarded on logout or whenever the service stops accepting it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Roles encoded in the session file. The service issues tokens for exactly
// one identity; the role decides which command surfaces are available.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// ErrNotLoggedIn is returned when no valid session file exists.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the stored credential for one authenticated identity.
type Session struct {
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store reads and writes the session file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the saved session. Expired or unreadable sessions are treated
// as not logged in; the stale file is removed.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("could not read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		_ = os.Remove(s.path)
		return nil, ErrNotLoggedIn
	}

	if sess.Token == "" || (!sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt)) {
		_ = os.Remove(s.path)
		return nil, ErrNotLoggedIn
	}

	return &sess, nil
}

// Save writes the session file with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	if sess.Token == "" {
		return errors.New("refusing to save session without token")
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("could not write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove session file: %w", err)
	}
	return nil
}
