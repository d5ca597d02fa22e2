package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilesystemStoreSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "/uploads/")
	if err != nil {
		t.Fatalf("NewFilesystemStore() unexpected error: %v", err)
	}

	content := []byte("fake-png-content")
	object, err := store.Save(context.Background(), 7, Upload{
		Filename:    "pill.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Body:        bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if !strings.HasPrefix(object.Key, "7/") {
		t.Fatalf("expected key under the user directory, got %q", object.Key)
	}
	if object.URL != "/uploads/"+object.Key {
		t.Fatalf("expected relative uploads URL, got %q", object.URL)
	}

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(object.Key)))
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatalf("stored content mismatch: %q", stored)
	}

	if err := store.Delete(context.Background(), object.Key); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(object.Key))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected image to be removed, stat err = %v", err)
	}
	if err := store.Delete(context.Background(), object.Key); err != nil {
		t.Fatalf("Delete() of a missing image should be a no-op, got %v", err)
	}
}

func TestFilesystemStoreRejectsOversizedBodyWithoutLeavingFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "/uploads")
	if err != nil {
		t.Fatalf("NewFilesystemStore() unexpected error: %v", err)
	}

	_, err = store.Save(context.Background(), 7, Upload{
		Filename:    "big.jpg",
		ContentType: "image/jpeg",
		Size:        1,
		Body:        bytes.NewReader(make([]byte, MaxImageSize+1)),
	})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "7"))
	if err != nil {
		t.Fatalf("read user directory: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, found %d", len(entries))
	}
}

func TestNewStoreFromConfigRejectsUnknownType(t *testing.T) {
	if _, err := NewStoreFromConfig(context.Background(), Config{Type: "ftp"}); err == nil {
		t.Fatal("expected unknown storage type to fail")
	}

	store, err := NewStoreFromConfig(context.Background(), Config{UploadsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStoreFromConfig(default) unexpected error: %v", err)
	}
	if _, ok := store.(*FilesystemStore); !ok {
		t.Fatalf("expected filesystem store by default, got %T", store)
	}
}
