// Package session holds the currently authenticated identity. The store is
// an explicit object handed to its consumers rather than process-wide state;
// the in-memory snapshot is an atomic pointer, so the API client can read it
// while a sign-in or sign-out runs on another goroutine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/brianberg/taigasync/internal/repository"
)

// userKey is the preference key the serialized user is stored under.
const userKey = "user"

// Preferences is the durable key-value storage backing the store.
type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store persists at most one signed-in user.
type Store struct {
	prefs   Preferences
	current atomic.Pointer[User]
	logger  *slog.Logger
}

// NewStore creates a session store, restoring any user persisted by a
// previous run.
func NewStore(ctx context.Context, prefs Preferences, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{prefs: prefs, logger: logger}

	blob, err := prefs.Get(ctx, userKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("loading persisted session: %w", err)
	}

	var user User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		// A corrupt blob is discarded rather than blocking startup.
		logger.Warn("discarding unreadable session blob", "error", err)
		return s, nil
	}

	s.current.Store(&user)
	return s, nil
}

// SignIn persists the user and makes it the current identity.
func (s *Store) SignIn(ctx context.Context, user *User) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serializing session: %w", err)
	}
	if err := s.prefs.Put(ctx, userKey, string(blob)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.current.Store(user)
	s.logger.Info("signed in", "user_id", user.ID)
	return nil
}

// Current returns the signed-in user, if any.
func (s *Store) Current() (*User, bool) {
	user := s.current.Load()
	return user, user != nil
}

// SignOut clears both the persisted and the in-memory identity.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.prefs.Delete(ctx, userKey); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clearing persisted session: %w", err)
	}

	s.current.Store(nil)
	s.logger.Info("signed out")
	return nil
}

// Token returns the current auth token. It satisfies the API client's
// token source.
func (s *Store) Token() (string, bool) {
	user := s.current.Load()
	if user == nil || user.AuthToken == "" {
		return "", false
	}
	return user.AuthToken, true
}
