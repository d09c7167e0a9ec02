package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreSaveAndDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, "broken_pump.PNG", []byte("fake image"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Errorf("reference should keep a lowercased extension, got %q", ref)
	}
	if ref != filepath.Base(ref) {
		t.Errorf("reference must be a bare name, got %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(store.dir, ref))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "fake image" {
		t.Errorf("stored content mismatch: %q", data)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Deleting again is not an error.
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}
}

func TestDiskStoreRejectsBadUploads(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Save(ctx, "malware.exe", []byte("x")); err == nil {
		t.Error("unsupported extension accepted")
	}
	if _, err := store.Save(ctx, "big.png", []byte("too large")); err == nil {
		t.Error("oversized file accepted")
	}
	if err := store.Delete(ctx, "../../etc/passwd"); err == nil {
		t.Error("path traversal reference accepted")
	}
}

func TestDiskStoreReferencesAreUnique(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		ref, err := store.Save(context.Background(), "same.jpg", []byte("x"))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}
