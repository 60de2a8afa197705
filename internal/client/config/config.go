package config

import (
	"time"

	"github.com/dmitrijs2005/yearbook/internal/client/capture"
	"github.com/dmitrijs2005/yearbook/internal/client/form"
	"github.com/dmitrijs2005/yearbook/internal/display"
)

// Config holds runtime settings for the terminal client.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	// Display
	Variant      string
	AutoAdvance  time.Duration
	FlipDuration time.Duration
	BannerTTL    time.Duration

	// Form
	RedirectDelay time.Duration

	Camera CameraConfig

	LogLevel string
	// LogFile receives logs while the full-screen viewer runs. Empty
	// discards them there.
	LogFile string
}

type CameraConfig struct {
	Command           string
	UserDevice        string
	EnvironmentDevice string
	Facing            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second

	c.Variant = string(display.Book)
	c.AutoAdvance = display.DefaultInterval
	c.FlipDuration = display.DefaultFlipDuration
	c.BannerTTL = 5 * time.Second

	c.RedirectDelay = form.DefaultRedirectDelay

	c.Camera = CameraConfig{
		Command:           capture.DefaultCommand,
		UserDevice:        "/dev/video0",
		EnvironmentDevice: "/dev/video2",
		Facing:            string(capture.FacingUser),
	}

	c.LogLevel = "info"
}

// CameraOptions converts the camera settings for capture.NewCamera.
func (c *Config) CameraOptions() capture.CameraOptions {
	return capture.CameraOptions{
		Command:           c.Camera.Command,
		UserDevice:        c.Camera.UserDevice,
		EnvironmentDevice: c.Camera.EnvironmentDevice,
		Facing:            capture.Facing(c.Camera.Facing),
	}
}

// DisplayOptions converts the display settings for display.NewController.
func (c *Config) DisplayOptions() display.Options {
	return display.Options{
		Variant:      display.ParseVariant(c.Variant),
		Interval:     c.AutoAdvance,
		FlipDuration: c.FlipDuration,
	}
}
