package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": "www.example:9000",
		"public_base_url": "https://party.example",
		"database_backend": "postgres",
		"database_dsn": "postgres://u:p@db/yearbook",
		"blob_backend": "s3",
		"s3_root_user": "user",
		"s3_root_password": "password",
		"s3_bucket": "bucket",
		"s3_region": "region",
		"s3_base_endpoint": "http://minio:9000",
		"s3_public_url": "https://cdn.example/bucket",
		"poll_interval": 250000000,
		"list_cache_ttl": "0s",
		"stream_heartbeat": "30s",
		"max_upload_bytes": 1024,
		"log_level": "debug"
	}`), 0o600))

	withArgs(t, "-config", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, "www.example:9000", cfg.Addr)
	assert.Equal(t, "https://party.example", cfg.PublicBaseURL)
	assert.Equal(t, "postgres", cfg.DatabaseBackend)
	assert.Equal(t, "postgres://u:p@db/yearbook", cfg.DatabaseDSN)
	assert.Equal(t, "s3", cfg.BlobBackend)
	assert.Equal(t, "user", cfg.S3RootUser)
	assert.Equal(t, "password", cfg.S3RootPassword)
	assert.Equal(t, "bucket", cfg.S3Bucket)
	assert.Equal(t, "region", cfg.S3Region)
	assert.Equal(t, "http://minio:9000", cfg.S3BaseEndpoint)
	assert.Equal(t, "https://cdn.example/bucket", cfg.S3PublicURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.ListCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.StreamHeartbeat)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "media", cfg.MediaDir, "absent keys keep their value")
}

func TestParseFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8181"
blob_backend: local
media_dir: /srv/yearbook/media
poll_interval: 2s
variant: carousel
auto_advance: 30s
redirect_delay: 1s
`), 0o600))

	withArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, ":8181", cfg.Addr)
	assert.Equal(t, "local", cfg.BlobBackend)
	assert.Equal(t, "/srv/yearbook/media", cfg.MediaDir)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "carousel", cfg.Variant)
	assert.Equal(t, 30*time.Second, cfg.AutoAdvance)
	assert.Equal(t, time.Second, cfg.RedirectDelay)
	assert.Equal(t, 1200*time.Millisecond, cfg.FlipDuration)
	assert.Equal(t, "yearbook.db", cfg.DatabaseDSN)
}

func TestParseFile_NoFlagNoChanges(t *testing.T) {
	withArgs(t)

	cfg := &Config{Addr: "defaults:1234", DatabaseDSN: "x.db"}
	parseFile(cfg)

	assert.Equal(t, "defaults:1234", cfg.Addr)
	assert.Equal(t, "x.db", cfg.DatabaseDSN)
}

func TestParseFile_Panics(t *testing.T) {
	dir := t.TempDir()

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-config", bad)
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("bad duration", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yml")
		require.NoError(t, os.WriteFile(bad, []byte("poll_interval: soon\n"), 0o600))
		withArgs(t, "-config", bad)
		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file", func(t *testing.T) {
		withArgs(t, "-config", filepath.Join(dir, "nope.json"))
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
