// Package session holds the console's bearer token: zero or one credential,
// durable across process restarts. It is the only mutable state shared
// between the gateway client and the command layer.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is the process-wide token slot. A Store is either Anonymous (no
// token) or Authenticated (one token); SetToken and Clear are the only
// transitions.
type Store struct {
	path  string
	token string
}

// Open loads the token store backed by the file at path. A missing file
// means Anonymous; a read failure other than not-exist is an error so a
// corrupt store is never silently treated as logged-out.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading token store: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// DefaultPath returns the token file location under the XDG data dir.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "baikalctl", "token")
}

// SetToken stores the token and persists it.
func (s *Store) SetToken(token string) error {
	s.token = token
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token store dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token store: %w", err)
	}
	return nil
}

// Token returns the current token and whether one is present.
func (s *Store) Token() (string, bool) {
	return s.token, s.token != ""
}

// IsAuthenticated reports whether a token is present. Route guards (and the
// MCP bridge) consult this before touching protected collections.
func (s *Store) IsAuthenticated() bool {
	return s.token != ""
}

// Clear removes the token. Clearing an already-anonymous store is a no-op.
// Used by logout and by the gateway's auth-failure interception.
func (s *Store) Clear() error {
	if s.token == "" {
		return nil
	}
	s.token = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token store: %w", err)
	}
	return nil
}
