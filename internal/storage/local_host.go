package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// localHost copies images into a directory served by the API under baseURL.
// It stands in for a real image host in development and integration runs.
type localHost struct {
	root    string
	baseURL string
}

func NewLocalHost(root, baseURL string) (ImageHost, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", root, err)
	}
	return &localHost{root: root, baseURL: baseURL}, nil
}

func (h *localHost) Upload(ctx context.Context, path, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := objectKey(folder, path)
	dst := filepath.Join(h.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to copy image: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return h.baseURL + "/" + key, nil
}
