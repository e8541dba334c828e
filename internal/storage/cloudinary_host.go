package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"greendrake/carads/internal/config"
)

type cloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryHost creates a Cloudinary client from explicit credentials.
func NewCloudinaryHost(cfg *config.Config) (ImageHost, error) {
	if cfg.CloudName == "" || cfg.CloudAPIKey == "" || cfg.CloudAPISecret == "" {
		return nil, errors.New("cloudinary requires CLOUD_NAME, CLOUD_API_KEY and CLOUD_API_SECRET")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &cloudinaryHost{cld: cld}, nil
}

func (h *cloudinaryHost) Upload(ctx context.Context, path, folder string) (string, error) {
	res, err := h.cld.Upload.Upload(ctx, path, uploader.UploadParams{
		Folder:      folder,
		UseFilename: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
