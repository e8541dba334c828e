package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"greendrake/carads/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, "carads", cfg.MongoDbName)
	assert.Equal(t, "5000", cfg.ApiPort)
	assert.Equal(t, "http://localhost:3000", cfg.CorsAllowedOrigin)
	assert.Equal(t, config.ImageHostCloudinary, cfg.ImageHost)
	assert.Equal(t, 2048, cfg.ImageMaxDimension)
	assert.Equal(t, 40_000_000, cfg.ImageMaxPixels)
	assert.Equal(t, 50, cfg.UploadMaxBodyMB)
	assert.Equal(t, 60*time.Second, cfg.CarCacheTTL)
	assert.Equal(t, time.Hour, cfg.TempFileMaxAge)
	assert.Equal(t, 15*time.Minute, cfg.TempSweepInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := config.Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoad_InvalidImageHost(t *testing.T) {
	setRequired(t)
	t.Setenv("IMAGE_HOST", "ftp")

	_, err := config.Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAGE_HOST")
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("IMAGE_MAX_DIMENSION", "big")

	_, err := config.Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAGE_MAX_DIMENSION")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("IMAGE_HOST", "LOCAL")
	t.Setenv("IMAGE_BASE_URL", "http://cdn.example.com/img/")
	t.Setenv("TEMP_SWEEP_INTERVAL", "1m")

	cfg, err := config.Load("bg")
	require.NoError(t, err)
	assert.Equal(t, config.ImageHostLocal, cfg.ImageHost)
	assert.Equal(t, "http://cdn.example.com/img", cfg.ImageBaseURL)
	assert.Equal(t, time.Minute, cfg.TempSweepInterval)
}
