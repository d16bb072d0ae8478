// Package config loads the process configuration from the environment,
// optionally seeded from a dotenv file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sebas/lineboard/internal/engine"
)

// Config is the full lineboard process configuration.
type Config struct {
	// SIP account.
	Domain            string `env:"LINEBOARD_SIP_DOMAIN"`
	WebSocketURL      string `env:"LINEBOARD_SIP_WS_URL"`
	AuthorizationUser string `env:"LINEBOARD_SIP_USER"`
	Password          string `env:"LINEBOARD_SIP_PASSWORD"`
	DisplayName       string `env:"LINEBOARD_SIP_DISPLAY_NAME"`

	// Console HTTP/WebSocket endpoint.
	ListenAddr string `env:"LINEBOARD_LISTEN_ADDR" envDefault:"127.0.0.1:8090"`

	// Local media endpoint advertised in SDP.
	MediaAddr string `env:"LINEBOARD_MEDIA_ADDR" envDefault:"127.0.0.1"`
	MediaPort int    `env:"LINEBOARD_MEDIA_PORT" envDefault:"40000"`

	// Tone sink for the local ring/ringback player. Empty disables tones.
	ToneSinkAddr string `env:"LINEBOARD_TONE_SINK_ADDR"`

	// Desktop notifications for incoming calls.
	DesktopNotify bool `env:"LINEBOARD_DESKTOP_NOTIFY" envDefault:"true"`

	// NoticeBuffer bounds the operator notice queue.
	NoticeBuffer int `env:"LINEBOARD_NOTICE_BUFFER" envDefault:"32"`

	// Logging.
	LogLevel string `env:"LINEBOARD_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LINEBOARD_LOG_FILE"`
	Debug    bool   `env:"LINEBOARD_DEBUG" envDefault:"false"`
}

// LoadEnv loads the content of ENV_FILE (default .env) into environment
// variables. A missing default file is not an error.
func LoadEnv() error {
	envfile := os.Getenv("ENV_FILE")
	if envfile == "" {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(envfile)
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the agent cannot run without.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return fmt.Errorf("LINEBOARD_SIP_DOMAIN is required")
	}
	if c.WebSocketURL == "" {
		return fmt.Errorf("LINEBOARD_SIP_WS_URL is required")
	}
	if c.AuthorizationUser == "" {
		return fmt.Errorf("LINEBOARD_SIP_USER is required")
	}
	return nil
}

// EngineConfig returns the SIP account subset for the engine.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Domain:            c.Domain,
		WebSocketURL:      c.WebSocketURL,
		AuthorizationUser: c.AuthorizationUser,
		Password:          c.Password,
		DisplayName:       c.DisplayName,
		Debug:             c.Debug,
	}
}
