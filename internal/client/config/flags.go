package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared with the cobra commands.
const (
	FlagConfig   = "config"
	FlagServer   = "server"
	FlagVariant  = "variant"
	FlagAdvance  = "advance"
	FlagFlip     = "flip"
	FlagBanner   = "banner"
	FlagCamera   = "camera-command"
	FlagFacing   = "facing"
	FlagLogLevel = "log-level"
	FlagLogFile  = "log-file"
)

// RegisterFlags adds the client settings to fs. Defaults shown in help
// come from LoadDefaults; only flags the user sets override the JSON file.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.StringP(FlagServer, "s", d.ServerURL, "yearbook server URL")
	fs.String(FlagVariant, d.Variant, "display variant: book or carousel")
	fs.Duration(FlagAdvance, d.AutoAdvance, "auto-advance interval")
	fs.Duration(FlagFlip, d.FlipDuration, "page flip duration")
	fs.Duration(FlagBanner, d.BannerTTL, "how long change banners stay up")
	fs.String(FlagCamera, d.Camera.Command, "capture command ({device} and {output} are substituted)")
	fs.String(FlagFacing, d.Camera.Facing, "initial camera: user or environment")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFile, d.LogFile, "write logs to this file")
}

// parseFlags copies every explicitly set flag into cfg.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagServer:
			cfg.ServerURL, err = fs.GetString(f.Name)
		case FlagVariant:
			cfg.Variant, err = fs.GetString(f.Name)
		case FlagAdvance:
			cfg.AutoAdvance, err = fs.GetDuration(f.Name)
		case FlagFlip:
			cfg.FlipDuration, err = fs.GetDuration(f.Name)
		case FlagBanner:
			cfg.BannerTTL, err = fs.GetDuration(f.Name)
		case FlagCamera:
			cfg.Camera.Command, err = fs.GetString(f.Name)
		case FlagFacing:
			cfg.Camera.Facing, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagLogFile:
			cfg.LogFile, err = fs.GetString(f.Name)
		}
	})
	return err
}

// LoadConfig builds a Config from defaults, the JSON file named by the
// config flag, then explicitly set flags. fs must have been parsed.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path, _ := fs.GetString(FlagConfig); path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	return cfg, nil
}
