package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/yearbook/internal/timex"
)

// JsonConfig is the on-disk form. Absent keys leave the current value alone.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	Variant             *string         `json:"variant"`
	AutoAdvance         *timex.Duration `json:"auto_advance"`
	FlipDuration        *timex.Duration `json:"flip_duration"`
	BannerTTL           *timex.Duration `json:"banner_ttl"`
	RedirectDelay       *timex.Duration `json:"redirect_delay"`
	Camera              *struct {
		Command           *string `json:"command"`
		UserDevice        *string `json:"user_device"`
		EnvironmentDevice *string `json:"environment_device"`
		Facing            *string `json:"facing"`
	} `json:"camera"`
	LogLevel *string `json:"log_level"`
	LogFile  *string `json:"log_file"`
}

// parseJson overlays cfg with the JSON file at path.
func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.Variant, jc.Variant)
	setDuration(&cfg.AutoAdvance, jc.AutoAdvance)
	setDuration(&cfg.FlipDuration, jc.FlipDuration)
	setDuration(&cfg.BannerTTL, jc.BannerTTL)
	setDuration(&cfg.RedirectDelay, jc.RedirectDelay)
	if cam := jc.Camera; cam != nil {
		setString(&cfg.Camera.Command, cam.Command)
		setString(&cfg.Camera.UserDevice, cam.UserDevice)
		setString(&cfg.Camera.EnvironmentDevice, cam.EnvironmentDevice)
		setString(&cfg.Camera.Facing, cam.Facing)
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFile, jc.LogFile)
	return nil
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
