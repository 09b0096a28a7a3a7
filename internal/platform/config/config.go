package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv     string `env:"APP_ENV" default:"development"`
	HTTPPort   string `env:"HTTP_PORT" default:"3939"`
	PushPort   string `env:"PUSH_PORT" default:"3940"`
	LogLevel   string `env:"LOG_LEVEL" default:"info"`
	LogFormat  string `env:"LOG_FORMAT" default:"text"`

	// UserDataDir holds persisted settings (TTS, plugin preferences).
	// Empty means <user config dir>/nicomview.
	UserDataDir string `env:"USER_DATA_DIR"`

	// BuiltinPluginDir and ExternalPluginDir are scanned for plugin.json
	// manifests at startup.
	BuiltinPluginDir  string `env:"BUILTIN_PLUGIN_DIR" default:"plugins"`
	ExternalPluginDir string `env:"EXTERNAL_PLUGIN_DIR"`

	// ProviderURL is the base endpoint of the live comment feed gateway.
	ProviderURL string `env:"PROVIDER_URL" default:"wss://live.example.jp/comment"`

	// AudioPlayerCommand plays synthesized WAV audio from stdin. Used by
	// the VOICEVOX adapter; BouyomiChan plays on its own.
	AudioPlayerCommand string `env:"AUDIO_PLAYER_COMMAND" default:"aplay -q"`

	MaxOverlayClients int `env:"MAX_OVERLAY_CLIENTS" default:"50"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.UserDataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		cfg.UserDataDir = filepath.Join(base, "nicomview")
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.HTTPPort == cfg.PushPort {
		return fmt.Errorf("HTTP_PORT and PUSH_PORT must differ (both %s)", cfg.HTTPPort)
	}
	if cfg.MaxOverlayClients <= 0 {
		return fmt.Errorf("MAX_OVERLAY_CLIENTS must be positive, got %d", cfg.MaxOverlayClients)
	}
	if cfg.ProviderURL == "" {
		return fmt.Errorf("PROVIDER_URL is required")
	}
	return nil
}
