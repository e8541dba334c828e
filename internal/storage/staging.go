package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// TempFilePrefix marks staged uploads so the sweeper only touches our files.
const TempFilePrefix = "carads-upload-"

// StageMultipartFile copies an uploaded part into a new temp file under dir
// and returns its path. The caller owns the file and must remove it.
func StageMultipartFile(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, TempFilePrefix+"*"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to stage upload %s: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to stage upload %s: %w", fh.Filename, err)
	}
	return dst.Name(), nil
}
