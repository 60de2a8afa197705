package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/yearbook/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-u string   public base URL encoded in the QR code
//	-D string   database backend: postgres | sqlite
//	-d string   database DSN (pgx DSN or SQLite file)
//	-B string   blob backend: s3 | local
//	-m string   local media directory
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000")
//	-v string   display variant: book | carousel
//	-l string   log level
//
// S3 credentials are read from the config file or the environment only
// (YEARBOOK_S3_ROOT_USER, YEARBOOK_S3_ROOT_PASSWORD).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-u", "-D", "-d", "-B", "-m", "-b", "-g", "-e", "-v", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.PublicBaseURL, "u", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.DatabaseBackend, "D", config.DatabaseBackend, "database backend (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "B", config.BlobBackend, "blob backend (s3|local)")
	fs.StringVar(&config.MediaDir, "m", config.MediaDir, "local media directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.Variant, "v", config.Variant, "display variant (book|carousel)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
