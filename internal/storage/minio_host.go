package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"greendrake/carads/internal/config"
)

type minioHost struct {
	client *minio.Client
	bucket string
}

// NewMinioHost creates a MinIO-backed image host, creating the bucket if needed.
func NewMinioHost(ctx context.Context, cfg *config.Config) (ImageHost, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.MinioEndpoint, err)
	}

	if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
		exists, errExists := client.BucketExists(ctx, cfg.MinioBucket)
		if errExists != nil || !exists {
			return nil, fmt.Errorf("failed to make bucket %s: %w", cfg.MinioBucket, err)
		}
	}
	return &minioHost{client: client, bucket: cfg.MinioBucket}, nil
}

func (h *minioHost) Upload(ctx context.Context, path, folder string) (string, error) {
	key := objectKey(folder, path)
	info, err := h.client.FPutObject(ctx, h.bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType(path),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, h.bucket, err)
	}
	return fmt.Sprintf("%s/%s/%s", h.client.EndpointURL().String(), info.Bucket, info.Key), nil
}
