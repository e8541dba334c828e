package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"greendrake/carads/internal/config"
)

// ImageHost uploads a local file into a folder on an image host and returns
// the durable public URL of the stored copy.
type ImageHost interface {
	Upload(ctx context.Context, path, folder string) (string, error)
}

// NewImageHost builds the image host selected by cfg.ImageHost.
func NewImageHost(ctx context.Context, cfg *config.Config) (ImageHost, error) {
	switch cfg.ImageHost {
	case config.ImageHostCloudinary:
		return NewCloudinaryHost(cfg)
	case config.ImageHostS3:
		return NewS3Host(ctx, cfg)
	case config.ImageHostMinio:
		return NewMinioHost(ctx, cfg)
	case config.ImageHostLocal:
		return NewLocalHost(cfg.LocalImageDir, cfg.ImageBaseURL)
	default:
		return nil, fmt.Errorf("unsupported image host %q", cfg.ImageHost)
	}
}

// objectKey builds a collision-free key under folder, keeping the file extension.
func objectKey(folder, path string) string {
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), strings.ToLower(filepath.Ext(path)))
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
