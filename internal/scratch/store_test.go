package scratch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreClosesRemovesTrackedArtifacts(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "run"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := store.Path("tile_means.tif")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed", p)
	}
}

func TestStoreKeepExemptsFromCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "run"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	output := store.Path("final.tif")
	if err := os.WriteFile(output, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store.Keep(output)

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected kept output to survive Close, stat error: %v", err)
	}
}
