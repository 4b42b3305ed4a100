// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults used when neither the config file nor the environment sets a
// value.
const (
	DefaultLogLevel       = "info"
	DefaultWindowDuration = time.Second // one envelope value per second
	DefaultChannel        = 0
	DefaultFFmpegPath     = "ffmpeg"
	DefaultTempDir        = "" // os.TempDir
	DefaultServerAddr     = ":8080"
	DefaultReadLimit      = 64 * 1024 // bytes per request message

	// DefaultFileName is searched for in the working directory when no
	// path is given.
	DefaultFileName = "talksync.yaml"
)

// Config represents the application configuration, loaded from YAML.
type Config struct {
	LogLevel    string            `yaml:"log_level"`   // Logging level (e.g., "debug", "info", "warn", "error").
	Correlation CorrelationConfig `yaml:"correlation"` // Envelope and correlation settings.
	Decoder     DecoderConfig     `yaml:"decoder"`     // Audio extraction settings.
	Server      ServerConfig      `yaml:"server"`      // Websocket service settings.
}

// CorrelationConfig holds the defaults for a correlation request.
type CorrelationConfig struct {
	WindowDuration time.Duration `yaml:"window_duration"` // Length of one energy window (e.g., "1s", "250ms").
	Channel        int           `yaml:"channel"`         // Channel whose envelopes are correlated.
}

// DecoderConfig holds settings for decoding non-WAV inputs.
type DecoderConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"` // ffmpeg binary, looked up on PATH if not absolute.
	TempDir    string `yaml:"temp_dir"`    // Directory for extracted WAV files (empty for the system default).
}

// ServerConfig holds settings for the websocket service.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (e.g., ":8080").
	ReadLimit int64  `yaml:"read_limit"` // Maximum request message size in bytes.
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Correlation: CorrelationConfig{
			WindowDuration: DefaultWindowDuration,
			Channel:        DefaultChannel,
		},
		Decoder: DecoderConfig{
			FFmpegPath: DefaultFFmpegPath,
			TempDir:    DefaultTempDir,
		},
		Server: ServerConfig{
			Addr:      DefaultServerAddr,
			ReadLimit: DefaultReadLimit,
		},
	}
}

// WindowSeconds returns the correlation window in seconds.
func (c *CorrelationConfig) WindowSeconds() float64 {
	return c.WindowDuration.Seconds()
}
