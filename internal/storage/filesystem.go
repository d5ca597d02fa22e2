package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore keeps images under root and serves them below baseURL,
// which the HTTP server mounts as a static directory.
type FilesystemStore struct {
	root    string
	baseURL string
}

func NewFilesystemStore(root string, baseURL string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("filesystem storage requires a root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	baseURL = "/" + strings.Trim(strings.TrimSpace(baseURL), "/")
	return &FilesystemStore{root: root, baseURL: baseURL}, nil
}

func (store *FilesystemStore) Root() string {
	return store.root
}

func (store *FilesystemStore) Save(ctx context.Context, userID uint, upload Upload) (Object, error) {
	extension, err := ValidateUpload(upload)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	key := NewObjectKey(userID, extension)
	destPath := filepath.Join(store.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return Object{}, fmt.Errorf("create user upload directory: %w", err)
	}
	if err := writeFileAtomically(destPath, newLimitedBody(upload.Body)); err != nil {
		return Object{}, err
	}

	return Object{Key: key, URL: store.baseURL + "/" + key}, nil
}

// Delete removes the stored file. A missing file is not an error.
func (store *FilesystemStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(store.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}

// writeFileAtomically writes into a temp file next to destPath and renames it.
func writeFileAtomically(destPath string, body io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, body); err != nil {
		_ = tmpFile.Close()
		if errors.Is(err, ErrImageTooLarge) {
			return ErrImageTooLarge
		}
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ Store = (*FilesystemStore)(nil)
