// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"talksync/internal/log"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it looks for DefaultFileName in the working directory and falls
// back to the built-in defaults when there is none. Environment overrides
// are applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("configuration: loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: log_level %q is not a known level", ErrInvalid, c.LogLevel)
	}
	if c.Correlation.WindowDuration <= 0 {
		return fmt.Errorf("%w: correlation.window_duration must be positive, got %s",
			ErrInvalid, c.Correlation.WindowDuration)
	}
	if c.Correlation.Channel < 0 {
		return fmt.Errorf("%w: correlation.channel must not be negative, got %d",
			ErrInvalid, c.Correlation.Channel)
	}
	if c.Decoder.FFmpegPath == "" {
		return fmt.Errorf("%w: decoder.ffmpeg_path must be set", ErrInvalid)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must be set", ErrInvalid)
	}
	if c.Server.ReadLimit <= 0 {
		return fmt.Errorf("%w: server.read_limit must be positive, got %d",
			ErrInvalid, c.Server.ReadLimit)
	}
	return nil
}

// applyEnvOverrides replaces settings with TALKSYNC_* environment variables.
// Values that fail to parse are ignored.
func (c *Config) applyEnvOverrides() {
	// TALKSYNC_LOG_LEVEL
	if val, ok := os.LookupEnv("TALKSYNC_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Debugf("configuration: overriding log_level from env: %s", val)
	}

	// TALKSYNC_WINDOW_DURATION
	if val, ok := os.LookupEnv("TALKSYNC_WINDOW_DURATION"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Correlation.WindowDuration = dur
			log.Debugf("configuration: overriding correlation.window_duration from env: %s", dur)
		} else {
			log.Warnf("configuration: ignoring TALKSYNC_WINDOW_DURATION=%q: %v", val, err)
		}
	}

	// TALKSYNC_CHANNEL
	if val, ok := os.LookupEnv("TALKSYNC_CHANNEL"); ok {
		if ch, err := strconv.Atoi(val); err == nil {
			c.Correlation.Channel = ch
			log.Debugf("configuration: overriding correlation.channel from env: %d", ch)
		} else {
			log.Warnf("configuration: ignoring TALKSYNC_CHANNEL=%q: %v", val, err)
		}
	}

	// TALKSYNC_FFMPEG_PATH
	if val, ok := os.LookupEnv("TALKSYNC_FFMPEG_PATH"); ok {
		c.Decoder.FFmpegPath = val
		log.Debugf("configuration: overriding decoder.ffmpeg_path from env: %s", val)
	}

	// TALKSYNC_SERVER_ADDR
	if val, ok := os.LookupEnv("TALKSYNC_SERVER_ADDR"); ok {
		c.Server.Addr = val
		log.Debugf("configuration: overriding server.addr from env: %s", val)
	}
}
