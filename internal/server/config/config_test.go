package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"testbin"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func withEnvFile(t *testing.T, path string) {
	t.Helper()
	orig := envFile
	envFile = path
	t.Cleanup(func() { envFile = orig })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "http://localhost:8080", c.PublicBaseURL)
	assert.Equal(t, DatabaseSQLite, c.DatabaseBackend)
	assert.Equal(t, "yearbook.db", c.DatabaseDSN)
	assert.Equal(t, BlobLocal, c.BlobBackend)
	assert.Equal(t, "media", c.MediaDir)
	assert.Equal(t, "yearbook-images", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, 500*time.Millisecond, c.PollInterval)
	assert.Equal(t, 2*time.Second, c.ListCacheTTL)
	assert.Equal(t, 15*time.Second, c.StreamHeartbeat)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)
	assert.Equal(t, "book", c.Variant)
	assert.Equal(t, 10*time.Second, c.AutoAdvance)
	assert.Equal(t, 1200*time.Millisecond, c.FlipDuration)
	assert.Equal(t, 5*time.Second, c.BannerTTL)
	assert.Equal(t, 2*time.Second, c.RedirectDelay)
	assert.Equal(t, "info", c.LogLevel)
}

func TestUploadURL(t *testing.T) {
	c := &Config{PublicBaseURL: "https://party.example/"}
	assert.Equal(t, "https://party.example/upload", c.UploadURL())

	c.PublicBaseURL = "http://10.0.0.5:8080"
	assert.Equal(t, "http://10.0.0.5:8080/upload", c.UploadURL())
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "yearbook.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"addr": ":7000",
		"database_backend": "postgres",
		"database_dsn": "postgres://file",
		"poll_interval": "1s"
	}`), 0o600))

	withEnvFile(t, filepath.Join(dir, "missing.env"))
	withArgs(t, "-c", cfgPath, "-a", ":9000")
	t.Setenv("YEARBOOK_DATABASE_DSN", "postgres://env")

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, ":9000", c.Addr, "flag beats file")
	assert.Equal(t, "postgres://env", c.DatabaseDSN, "env beats file")
	assert.Equal(t, DatabasePostgres, c.DatabaseBackend, "file beats default")
	assert.Equal(t, time.Second, c.PollInterval)
	assert.Equal(t, BlobLocal, c.BlobBackend, "untouched default")
}
