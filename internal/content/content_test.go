package content

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStore_Open(t *testing.T) {
	dir := t.TempDir()
	data := []byte("file bytes")
	if err := os.WriteFile(filepath.Join(dir, "f1.bin"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDiskStore(dir)
	reader, size, err := store.Open(context.Background(), "f1.bin")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer reader.Close()

	if size != int64(len(data)) {
		t.Errorf("size = %d, want %d", size, len(data))
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", got, data)
	}
}

func TestDiskStore_NotFound(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	_, _, err := store.Open(context.Background(), "missing.bin")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "secret"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDiskStore(filepath.Join(dir, "sub"))
	for _, locator := range []string{"", "../secret", "..", "a/b", `a\b`, "/etc/passwd"} {
		if _, _, err := store.Open(context.Background(), locator); !errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) error = %v, want ErrNotFound", locator, err)
		}
	}
}
