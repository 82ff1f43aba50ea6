package client

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session holds the signed-in user and persists the token between runs.
type Session struct {
	client     *Client
	tokenPath  string
	categories *CategoryStore

	mu   sync.RWMutex
	user *User
}

// NewSession creates a session. tokenPath may be empty to keep the token in memory only.
func NewSession(c *Client, tokenPath string, categories *CategoryStore) *Session {
	return &Session{client: c, tokenPath: tokenPath, categories: categories}
}

// Restore loads a saved token into the client. A missing file is not an error.
func (s *Session) Restore() error {
	if s.tokenPath == "" {
		return nil
	}
	raw, err := os.ReadFile(s.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	s.client.SetToken(strings.TrimSpace(string(raw)))
	return nil
}

// User returns the user from the last successful login, if any.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	return s.client.HasToken()
}

// Signup registers an account without logging in.
func (s *Session) Signup(ctx context.Context, name, email, password string) Result {
	_, err := s.client.Signup(ctx, name, email, password)
	return ResultOf(err)
}

// Login stores the token and user, then loads categories.
func (s *Session) Login(ctx context.Context, email, password string) Result {
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return ResultOf(err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	if err := s.save(s.client.Token()); err != nil {
		return ResultOf(err)
	}
	if s.categories != nil {
		return s.categories.Fetch(ctx)
	}
	return ok()
}

// Logout clears local state and revokes the session on the server.
func (s *Session) Logout(ctx context.Context) Result {
	if !s.client.HasToken() {
		return ResultOf(ErrNotLoggedIn)
	}
	err := s.client.Logout(ctx)

	s.client.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if s.categories != nil {
		s.categories.Clear()
	}
	if rmErr := s.remove(); rmErr != nil && err == nil {
		err = rmErr
	}
	return ResultOf(err)
}

func (s *Session) save(token string) error {
	if s.tokenPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.tokenPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *Session) remove() error {
	if s.tokenPath == "" {
		return nil
	}
	if err := os.Remove(s.tokenPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
