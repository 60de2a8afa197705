package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/yearbook/internal/flagx"
	"github.com/dmitrijs2005/yearbook/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// strings such as "10s" or integer nanoseconds. Only fields present in the
// file override the current values.
type FileConfig struct {
	Addr            *string         `json:"addr" yaml:"addr"`
	PublicBaseURL   *string         `json:"public_base_url" yaml:"public_base_url"`
	DatabaseBackend *string         `json:"database_backend" yaml:"database_backend"`
	DatabaseDSN     *string         `json:"database_dsn" yaml:"database_dsn"`
	BlobBackend     *string         `json:"blob_backend" yaml:"blob_backend"`
	MediaDir        *string         `json:"media_dir" yaml:"media_dir"`
	S3RootUser      *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword  *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket        *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region        *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PublicURL     *string         `json:"s3_public_url" yaml:"s3_public_url"`
	PollInterval    *timex.Duration `json:"poll_interval" yaml:"poll_interval"`
	ListCacheTTL    *timex.Duration `json:"list_cache_ttl" yaml:"list_cache_ttl"`
	StreamHeartbeat *timex.Duration `json:"stream_heartbeat" yaml:"stream_heartbeat"`
	MaxUploadBytes  *int64          `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	Variant         *string         `json:"variant" yaml:"variant"`
	AutoAdvance     *timex.Duration `json:"auto_advance" yaml:"auto_advance"`
	FlipDuration    *timex.Duration `json:"flip_duration" yaml:"flip_duration"`
	BannerTTL       *timex.Duration `json:"banner_ttl" yaml:"banner_ttl"`
	RedirectDelay   *timex.Duration `json:"redirect_delay" yaml:"redirect_delay"`
	LogLevel        *string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c / -config into config. Files ending
// in .yaml or .yml are read as YAML, everything else as JSON. A missing flag
// means no file; an unreadable or malformed file panics, like flag errors do.
func parseFile(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.Addr, fc.Addr)
	setString(&c.PublicBaseURL, fc.PublicBaseURL)
	setString(&c.DatabaseBackend, fc.DatabaseBackend)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.BlobBackend, fc.BlobBackend)
	setString(&c.MediaDir, fc.MediaDir)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.S3PublicURL, fc.S3PublicURL)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.Variant, fc.Variant)

	setDuration(&c.PollInterval, fc.PollInterval)
	setDuration(&c.ListCacheTTL, fc.ListCacheTTL)
	setDuration(&c.StreamHeartbeat, fc.StreamHeartbeat)
	setDuration(&c.AutoAdvance, fc.AutoAdvance)
	setDuration(&c.FlipDuration, fc.FlipDuration)
	setDuration(&c.BannerTTL, fc.BannerTTL)
	setDuration(&c.RedirectDelay, fc.RedirectDelay)
	if fc.MaxUploadBytes != nil {
		c.MaxUploadBytes = *fc.MaxUploadBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
