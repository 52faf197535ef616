package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"imgexport/internal/domain"
)

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	key, err := store.Write(ctx, "./exports//set/image-1.jpg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "exports/set/image-1.jpg" {
		t.Fatalf("key = %q", key)
	}
	got, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "jpeg" {
		t.Fatalf("Read = %q", got)
	}
	entries, err := os.ReadDir(filepath.Join(store.BasePath(), "exports", "set"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Write(ctx, "a.zip", []byte("one")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := store.Write(ctx, "a.zip", []byte("two")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := store.Read(ctx, "a.zip")
	if string(got) != "two" {
		t.Fatalf("Read = %q", got)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Read(context.Background(), "nope.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a/b.png", want: "a/b.png"},
		{in: "/abs/c.png", want: "abs/c.png"},
		{in: `win\\d.png`, want: "win/d.png"},
		{in: "a/../b.png", want: "b.png"},
		{in: "../escape.png", wantErr: true},
		{in: "..", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../../etc/passwd", []byte("x")); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
