// Package config loads settings for the yearbook terminal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config / -c.
//  3. Command-line flags that were set explicitly.
//
// # JSON schema
//
// Durations are timex.Duration values, so "10s" and integer nanoseconds
// both work:
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "auto_advance": "10s",
//	  "flip_duration": "1.2s",
//	  "variant": "book",
//	  "camera": {"command": "ffmpeg ... {device} ... {output}", "user_device": "/dev/video0"}
//	}
package config
