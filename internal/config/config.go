package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for IMAGE_HOST.
const (
	ImageHostCloudinary = "cloudinary"
	ImageHostS3         = "s3"
	ImageHostMinio      = "minio"
	ImageHostLocal      = "local"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CarCacheTTL   time.Duration

	// JWT
	JwtSecret string

	// Server
	ApiPort           string
	ServiceApiPort    string
	CorsAllowedOrigin string

	// Messaging
	NatsURL string

	// Observability
	LogLevel     string
	LogFormat    string
	OtelEndpoint string

	// Image hosting
	ImageHost    string
	ImageBaseURL string

	// Cloudinary
	CloudName      string
	CloudAPIKey    string
	CloudAPISecret string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Local image directory, used when ImageHost is "local"
	LocalImageDir string

	// Uploads
	UploadTempDir     string
	UploadMaxMemoryMB int
	UploadMaxBodyMB   int
	ImageMaxDimension int
	ImageMaxPixels    int
	TempFileMaxAge    time.Duration
	TempSweepInterval time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "carads")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "5000")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CorsAllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.NatsURL = getEnv("NATS_URL", "")
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "json"))
	cfg.OtelEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg.ImageHost = strings.ToLower(getEnv("IMAGE_HOST", ImageHostCloudinary))
	switch cfg.ImageHost {
	case ImageHostCloudinary, ImageHostS3, ImageHostMinio, ImageHostLocal:
	default:
		return nil, fmt.Errorf("invalid IMAGE_HOST: %q", cfg.ImageHost)
	}
	cfg.ImageBaseURL = strings.TrimSuffix(getEnv("IMAGE_BASE_URL", "http://localhost:"+cfg.ApiPort+"/uploads"), "/")
	cfg.CloudName = getEnv("CLOUD_NAME", "")
	cfg.CloudAPIKey = getEnv("CLOUD_API_KEY", "")
	cfg.CloudAPISecret = getEnv("CLOUD_API_SECRET", "")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	cfg.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", "")
	cfg.MinioSecretKey = getEnv("MINIO_SECRET_KEY", "")
	cfg.MinioBucket = getEnv("MINIO_BUCKET", "car-images")
	cfg.LocalImageDir = getEnv("LOCAL_IMAGE_DIR", "./uploads")
	cfg.UploadTempDir = getEnv("UPLOAD_TEMP_DIR", os.TempDir())

	cfg.MinioUseSSL, err = strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	carCacheTTLSeconds, err := strconv.ParseInt(getEnv("CAR_CACHE_TTL_SECONDS", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CAR_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.CarCacheTTL = time.Duration(carCacheTTLSeconds) * time.Second

	cfg.UploadMaxMemoryMB, err = strconv.Atoi(getEnv("UPLOAD_MAX_MEMORY_MB", "32"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_MEMORY_MB: %w", err)
	}

	cfg.UploadMaxBodyMB, err = strconv.Atoi(getEnv("UPLOAD_MAX_BODY_MB", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_BODY_MB: %w", err)
	}

	cfg.ImageMaxDimension, err = strconv.Atoi(getEnv("IMAGE_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
	}

	// 40 megapixels decodes to about 160 MB of RGBA.
	cfg.ImageMaxPixels, err = strconv.Atoi(getEnv("IMAGE_MAX_PIXELS", "40000000"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_MAX_PIXELS: %w", err)
	}

	tempFileMaxAgeMinutes, err := strconv.ParseInt(getEnv("TEMP_FILE_MAX_AGE_MINUTES", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TEMP_FILE_MAX_AGE_MINUTES: %w", err)
	}
	cfg.TempFileMaxAge = time.Duration(tempFileMaxAgeMinutes) * time.Minute

	cfg.TempSweepInterval, err = time.ParseDuration(getEnv("TEMP_SWEEP_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEMP_SWEEP_INTERVAL: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
