package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"greendrake/carads/internal/config"
)

// s3Host stores images in an S3 bucket served from cfg.ImageBaseURL.
type s3Host struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Host creates an S3-backed image host.
func NewS3Host(ctx context.Context, cfg *config.Config) (ImageHost, error) {
	if cfg.AwsS3Bucket == "" {
		return nil, errors.New("s3 image host requires AWS_S3_BUCKET")
	}
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Host{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.AwsS3Bucket,
		baseURL: cfg.ImageBaseURL,
	}, nil
}

func (h *s3Host) Upload(ctx context.Context, path, folder string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	key := objectKey(folder, path)
	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(path)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return h.baseURL + "/" + key, nil
}
