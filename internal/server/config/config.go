// Package config handles configuration for the yearbook server: defaults,
// an optional JSON or YAML file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"strings"
	"time"
)

// Backend names.
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"

	BlobS3    = "s3"
	BlobLocal = "local"
)

// Config holds runtime settings for the yearbook server.
//
// Fields:
//   - Addr: HTTP bind address.
//   - PublicBaseURL: origin guests reach the server at; the QR code points
//     to PublicBaseURL + "/upload".
//   - DatabaseBackend / DatabaseDSN: "postgres" (pgx DSN) or "sqlite" (file path).
//   - BlobBackend: "s3" for an S3-compatible store, "local" for MediaDir.
//   - S3*: object storage settings; S3PublicURL overrides the URL prefix
//     written into entries (defaults to S3BaseEndpoint/S3Bucket).
//   - PollInterval: how often the SQLite change log is polled.
//   - ListCacheTTL: how long a List snapshot may be served; 0 disables it.
//   - StreamHeartbeat: SSE comment interval keeping idle proxies open.
//   - Variant, AutoAdvance, FlipDuration, BannerTTL: browser display
//     behaviour; RedirectDelay is how long the upload confirmation shows.
type Config struct {
	Addr            string
	PublicBaseURL   string
	DatabaseBackend string
	DatabaseDSN     string
	BlobBackend     string
	MediaDir        string
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3PublicURL     string
	PollInterval    time.Duration
	ListCacheTTL    time.Duration
	StreamHeartbeat time.Duration
	MaxUploadBytes  int64
	Variant         string
	AutoAdvance     time.Duration
	FlipDuration    time.Duration
	BannerTTL       time.Duration
	RedirectDelay   time.Duration
	LogLevel        string
}

// LoadDefaults populates Config with development defaults: SQLite and a
// local media directory, so the server runs without any infrastructure.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.PublicBaseURL = "http://localhost:8080"
	c.DatabaseBackend = DatabaseSQLite
	c.DatabaseDSN = "yearbook.db"
	c.BlobBackend = BlobLocal
	c.MediaDir = "media"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "yearbook-images"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.S3PublicURL = ""
	c.PollInterval = 500 * time.Millisecond
	c.ListCacheTTL = 2 * time.Second
	c.StreamHeartbeat = 15 * time.Second
	c.MaxUploadBytes = 10 << 20
	c.Variant = "book"
	c.AutoAdvance = 10 * time.Second
	c.FlipDuration = 1200 * time.Millisecond
	c.BannerTTL = 5 * time.Second
	c.RedirectDelay = 2 * time.Second
	c.LogLevel = "info"
}

// UploadURL is the address encoded in the QR code.
func (c *Config) UploadURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/upload"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
