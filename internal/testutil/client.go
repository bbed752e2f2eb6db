package testutil

import (
	"path/filepath"
	"testing"

	"github.com/baikal-ai/baikalctl/internal/gateway"
	"github.com/baikal-ai/baikalctl/internal/session"
)

// NewGateway returns a gateway client pointed at the fake backend with an
// already-authenticated session.
func NewGateway(t *testing.T, b *Backend) (*gateway.Client, *session.Store) {
	t.Helper()
	client, store := NewAnonGateway(t, b)
	if err := store.SetToken(b.IssuedToken); err != nil {
		t.Fatalf("seeding session token: %v", err)
	}
	return client, store
}

// NewAnonGateway returns a gateway client with an empty session store.
func NewAnonGateway(t *testing.T, b *Backend) (*gateway.Client, *session.Store) {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "token"))
	if err != nil {
		t.Fatalf("opening session store: %v", err)
	}
	client := gateway.New(gateway.Options{
		BaseURL:    b.Server.URL,
		Sessions:   store,
		HTTPClient: b.Server.Client(),
	})
	return client, store
}
