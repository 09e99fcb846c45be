package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ClientConfig configures the taskctl command line client.
type ClientConfig struct {
	APIURL    string        `env:"PRIMECODE_API_URL" envDefault:"http://localhost:5000/api"`
	StatePath string        `env:"PRIMECODE_STATE"`
	Timeout   time.Duration `env:"PRIMECODE_TIMEOUT" envDefault:"15s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadClient parses the client environment. An empty PRIMECODE_STATE
// resolves to ~/.primecode/state.db.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StatePath = filepath.Join(home, ".primecode", "state.db")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("PRIMECODE_TIMEOUT must be positive, got %s", cfg.Timeout)
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("PRIMECODE_API_URL %q must start with http:// or https://", cfg.APIURL)
	}
	return cfg, nil
}
