package session

import (
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "token"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpen_MissingFileIsAnonymous(t *testing.T) {
	s := tempStore(t)
	if s.IsAuthenticated() {
		t.Error("fresh store should be anonymous")
	}
	if _, ok := s.Token(); ok {
		t.Error("fresh store should have no token")
	}
}

func TestSetToken_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetToken("tok-abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.Token()
	if !ok || got != "tok-abc" {
		t.Errorf("reopened token = %q, %v; want tok-abc, true", got, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}
}

func TestClear_RemovesTokenAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SetToken("tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("store should be anonymous after Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("token file should be gone, stat err = %v", err)
	}
}

func TestClear_AnonymousIsNoop(t *testing.T) {
	s := tempStore(t)
	if err := s.Clear(); err != nil {
		t.Errorf("Clear on anonymous store: %v", err)
	}
}

func TestOpen_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("tok-x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := s.Token()
	if got != "tok-x" {
		t.Errorf("token = %q, want tok-x", got)
	}
}
