// Package appconfig loads server settings from config.yml and the
// environment.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// StorageNone disables snapshot storage
const StorageNone = "none"

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Game    Game    `yaml:"game"`
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Ngrok   Ngrok   `yaml:"ngrok"`
}

type HTTP struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"localhost"`
	Port int    `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type Game struct {
	ConfigDir       string        `yaml:"config-dir" env:"CONFIG_DIR" env-default:"configs"`
	SessionsDir     string        `yaml:"sessions-dir" env:"SESSIONS_DIR" env-default:"sessions"`
	SessionTTL      time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"24h"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"CLEANUP_INTERVAL" env-default:"1h"`
	// Pacing plays turns at human speed; off, turns resolve instantly
	Pacing bool `yaml:"pacing" env:"PACING" env-default:"false"`
	// BotDelay separates consecutive computer turns played in the background
	BotDelay time.Duration `yaml:"bot-delay" env:"BOT_DELAY" env-default:"250ms"`
}

type Storage struct {
	Backend     string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`
	Dir         string `yaml:"dir" env:"SAVES_DIR" env-default:"saves"`
	RedisURL    string `yaml:"redis-url" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	DatabaseURL string `yaml:"database-url" env:"DATABASE_URL"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

type Ngrok struct {
	Enabled   bool   `yaml:"enabled" env:"NGROK_ENABLED" env-default:"false"`
	AuthToken string `yaml:"auth-token" env:"NGROK_AUTHTOKEN"`
	Domain    string `yaml:"domain" env:"NGROK_DOMAIN"`
}

// Addr is the host:port the HTTP server listens on
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Load reads path when it exists and applies environment overrides. A
// missing file is not an error: defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return cfg, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load that panics
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
