package storage

import (
	"context"
	"fmt"
	"strings"
)

const (
	TypeFilesystem = "filesystem"
	TypeS3         = "s3"
)

type Config struct {
	Type       string
	UploadsDir string
	S3         S3Options
}

// UploadsURLPrefix is where the HTTP server mounts filesystem uploads.
const UploadsURLPrefix = "/uploads"

func NewStoreFromConfig(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", TypeFilesystem:
		return NewFilesystemStore(cfg.UploadsDir, UploadsURLPrefix)
	case TypeS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
