package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime/multipart"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"greendrake/carads/internal/platform/metrics"
	"greendrake/carads/internal/storage"
)

// Image host folders.
const (
	CarImageFolder        = "cars"
	StandaloneImageFolder = "file-upload"
)

// IUploadService stages multipart files locally and pushes them to the image host.
type IUploadService interface {
	// UploadFiles uploads all files concurrently and returns their URLs in
	// completion order. It returns on the first failure; uploads still in
	// flight run to completion and clean up their own temp files.
	UploadFiles(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error)
	UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
}

type uploadService struct {
	host         storage.ImageHost
	tempDir      string
	maxDimension int
	maxPixels    int
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewUploadService creates an upload service. A maxDimension of 0 disables
// downscaling; images above maxPixels are uploaded without being decoded.
func NewUploadService(host storage.ImageHost, tempDir string, maxDimension, maxPixels int, m *metrics.Metrics, log *zap.Logger) IUploadService {
	if log == nil {
		log = zap.NewNop()
	}
	return &uploadService{host: host, tempDir: tempDir, maxDimension: maxDimension, maxPixels: maxPixels, metrics: m, log: log}
}

type uploadResult struct {
	url string
	err error
}

func (s *uploadService) UploadFiles(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "UploadService.UploadFiles")
	defer span.End()
	span.SetAttributes(attribute.Int("upload.files", len(files)), attribute.String("upload.folder", folder))

	// Uploads outlive an early return, so they must not be cancelled with the request.
	uploadCtx := context.WithoutCancel(ctx)
	results := make(chan uploadResult, len(files))
	for _, fh := range files {
		go func(fh *multipart.FileHeader) {
			url, err := s.UploadFile(uploadCtx, fh, folder)
			results <- uploadResult{url: url, err: err}
		}(fh)
	}

	urls := make([]string, 0, len(files))
	for range files {
		res := <-results
		if res.err != nil {
			return nil, res.err
		}
		urls = append(urls, res.url)
	}
	return urls, nil
}

func (s *uploadService) UploadFile(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	path, err := storage.StageMultipartFile(file, s.tempDir)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("failed to remove temp upload", zap.String("path", path), zap.Error(err))
		}
	}()

	if s.maxDimension > 0 {
		resized, err := storage.Downscale(path, s.maxDimension, s.maxPixels)
		if errors.Is(err, storage.ErrTooManyPixels) {
			s.log.Warn("image too large to resize, uploading as is", zap.String("file", file.Filename), zap.Error(err))
		} else if err != nil {
			s.log.Debug("image left unchanged", zap.String("file", file.Filename), zap.Error(err))
		} else if resized {
			s.log.Debug("image downscaled", zap.String("file", file.Filename), zap.Int("max_dimension", s.maxDimension))
		}
	}

	url, err := s.host.Upload(ctx, path, folder)
	if err != nil {
		s.metrics.ImageUploadFailed(folder)
		return "", fmt.Errorf("failed to upload %s: %w", file.Filename, err)
	}
	s.metrics.ImageUploaded(folder)
	return url, nil
}
