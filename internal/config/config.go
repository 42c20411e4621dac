// Package config loads settings for the dashboard and the mock server.
// Values are layered: defaults, then the YAML file, then LOSTFOUND_*
// environment variables. Command-line flags are applied by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Board   BoardConfig   `yaml:"board"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Session SessionConfig `yaml:"session"`
	Mock    MockConfig    `yaml:"mock"`
}

type ServerConfig struct {
	BaseURL        string        `yaml:"base_url" env:"LOSTFOUND_SERVER_URL"`
	FeedPath       string        `yaml:"feed_path" env:"LOSTFOUND_FEED_PATH"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LOSTFOUND_REQUEST_TIMEOUT"`
}

type StreamConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" env:"LOSTFOUND_HANDSHAKE_TIMEOUT"`
	PingInterval     time.Duration `yaml:"ping_interval" env:"LOSTFOUND_PING_INTERVAL"`
	PongTimeout      time.Duration `yaml:"pong_timeout" env:"LOSTFOUND_PONG_TIMEOUT"`
	ReconnectBase    time.Duration `yaml:"reconnect_base" env:"LOSTFOUND_RECONNECT_BASE"`
	ReconnectMax     time.Duration `yaml:"reconnect_max" env:"LOSTFOUND_RECONNECT_MAX"`
	MaxAttempts      int           `yaml:"max_attempts" env:"LOSTFOUND_RECONNECT_ATTEMPTS"`
}

type BoardConfig struct {
	HighlightDwell time.Duration `yaml:"highlight_dwell" env:"LOSTFOUND_HIGHLIGHT_DWELL"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOSTFOUND_LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"LOSTFOUND_LOG_JSON"`
	File  string `yaml:"file" env:"LOSTFOUND_LOG_FILE"`
}

type MetricsConfig struct {
	// Addr serves /metrics when non-empty.
	Addr string `yaml:"addr" env:"LOSTFOUND_METRICS_ADDR"`
}

type SessionConfig struct {
	File string `yaml:"file" env:"LOSTFOUND_SESSION_FILE"`
}

type MockConfig struct {
	Addr         string        `yaml:"addr" env:"LOSTFOUND_MOCK_ADDR"`
	Secret       string        `yaml:"secret" env:"LOSTFOUND_MOCK_SECRET"`
	EmitInterval time.Duration `yaml:"emit_interval" env:"LOSTFOUND_MOCK_EMIT_INTERVAL"`
	MaxConns     int           `yaml:"max_conns" env:"LOSTFOUND_MOCK_MAX_CONNS"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"LOSTFOUND_MOCK_TOKEN_TTL"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://127.0.0.1:8000",
			FeedPath:       "/ws/admin",
			RequestTimeout: 10 * time.Second,
		},
		Stream: StreamConfig{
			HandshakeTimeout: 10 * time.Second,
			PingInterval:     30 * time.Second,
			PongTimeout:      60 * time.Second,
			ReconnectBase:    time.Second,
			ReconnectMax:     30 * time.Second,
			MaxAttempts:      10,
		},
		Board: BoardConfig{
			HighlightDwell: 3 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			File:  "lostfound-tui.log",
		},
		Session: SessionConfig{
			File: defaultSessionFile(),
		},
		Mock: MockConfig{
			Addr:         "127.0.0.1:8000",
			Secret:       "lostfound-dev-secret",
			EmitInterval: 8 * time.Second,
			MaxConns:     100,
			TokenTTL:     24 * time.Hour,
		},
	}
}

// Default returns the built-in settings.
func Default() *Config {
	return defaultConfig()
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".lostfound-session.yaml"
	}
	return filepath.Join(dir, "lostfound", "session.yaml")
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path or a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.BaseURL == "" {
		errs = append(errs, errors.New("server.base_url is required"))
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"server.request_timeout", c.Server.RequestTimeout},
		{"stream.handshake_timeout", c.Stream.HandshakeTimeout},
		{"stream.ping_interval", c.Stream.PingInterval},
		{"stream.pong_timeout", c.Stream.PongTimeout},
		{"stream.reconnect_base", c.Stream.ReconnectBase},
		{"stream.reconnect_max", c.Stream.ReconnectMax},
		{"board.highlight_dwell", c.Board.HighlightDwell},
	}
	for _, f := range durations {
		if f.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", f.name, f.d))
		}
	}
	if c.Stream.ReconnectMax < c.Stream.ReconnectBase {
		errs = append(errs, fmt.Errorf("stream.reconnect_max (%s) is below reconnect_base (%s)", c.Stream.ReconnectMax, c.Stream.ReconnectBase))
	}
	if c.Stream.PongTimeout <= c.Stream.PingInterval {
		errs = append(errs, fmt.Errorf("stream.pong_timeout (%s) must exceed ping_interval (%s)", c.Stream.PongTimeout, c.Stream.PingInterval))
	}
	if c.Stream.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("stream.max_attempts must be positive, got %d", c.Stream.MaxAttempts))
	}
	return errors.Join(errs...)
}
