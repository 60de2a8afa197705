package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading variables; already-set variables win.
var envFile = ".env"

// parseEnv overlays YEARBOOK_* environment variables. A .env file in the
// working directory is loaded first when present.
func parseEnv(config *Config) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	envString(&config.Addr, "YEARBOOK_ADDR")
	envString(&config.PublicBaseURL, "YEARBOOK_PUBLIC_BASE_URL")
	envString(&config.DatabaseBackend, "YEARBOOK_DATABASE_BACKEND")
	envString(&config.DatabaseDSN, "YEARBOOK_DATABASE_DSN")
	envString(&config.BlobBackend, "YEARBOOK_BLOB_BACKEND")
	envString(&config.MediaDir, "YEARBOOK_MEDIA_DIR")
	envString(&config.S3RootUser, "YEARBOOK_S3_ROOT_USER")
	envString(&config.S3RootPassword, "YEARBOOK_S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "YEARBOOK_S3_BUCKET")
	envString(&config.S3Region, "YEARBOOK_S3_REGION")
	envString(&config.S3BaseEndpoint, "YEARBOOK_S3_BASE_ENDPOINT")
	envString(&config.S3PublicURL, "YEARBOOK_S3_PUBLIC_URL")
	envString(&config.LogLevel, "YEARBOOK_LOG_LEVEL")
	envString(&config.Variant, "YEARBOOK_VARIANT")
	envDuration(&config.PollInterval, "YEARBOOK_POLL_INTERVAL")
	envDuration(&config.ListCacheTTL, "YEARBOOK_LIST_CACHE_TTL")
	envDuration(&config.StreamHeartbeat, "YEARBOOK_STREAM_HEARTBEAT")
	envDuration(&config.AutoAdvance, "YEARBOOK_AUTO_ADVANCE")
	envDuration(&config.FlipDuration, "YEARBOOK_FLIP_DURATION")
	envDuration(&config.BannerTTL, "YEARBOOK_BANNER_TTL")
	envDuration(&config.RedirectDelay, "YEARBOOK_REDIRECT_DELAY")

	if v, ok := os.LookupEnv("YEARBOOK_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadBytes = n
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
