package sessionstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blumenhaus/flora-shop/internal/core/domain"
)

func sampleUser() *domain.User {
	return &domain.User{
		ID:        7,
		Username:  "alice",
		Firstname: "Alice",
		Lastname:  "Miller",
		Email:     "alice@example.com",
		Roles:     []string{domain.RoleUser},
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	store := NewMemory()

	if _, err := store.Load(); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound from empty store, got %v", err)
	}

	user := sampleUser()
	if err := store.Save(user); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != 7 || loaded.Username != "alice" {
		t.Fatalf("unexpected user: %+v", loaded)
	}

	// The store holds its own copy; mutating what went in or came out must
	// not leak.
	user.Roles[0] = "ROLE_TAMPERED"
	loaded.Username = "mallory"
	again, _ := store.Load()
	if again.Roles[0] != domain.RoleUser || again.Username != "alice" {
		t.Fatalf("store shares memory with callers: %+v", again)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after clear, got %v", err)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "session.json")
	store := NewFile(path)

	if _, err := store.Load(); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for missing file, got %v", err)
	}

	if err := store.Save(sampleUser()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != 7 || loaded.Username != "alice" {
		t.Fatalf("unexpected user: %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after clear, got %v", err)
	}

	// Clearing an already-missing file is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestFile_CorruptFileTreatedAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store := NewFile(path)
	if _, err := store.Load(); err != domain.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound for corrupt file, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt file should have been removed")
	}
}
