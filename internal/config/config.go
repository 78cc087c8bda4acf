// Package config loads paperd configuration from (in order of increasing
// precedence) built-in defaults, a JSON config file, a .env file in the
// working directory, and PAPERD_* environment variables.
package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Ledger  LedgerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

// LedgerConfig controls the one-time seed bootstrap of a fresh ledger.
type LedgerConfig struct {
	OpeningBalance string // decimal, e.g. "50000"
	SeedDate       string // YYYY-MM-DD
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Ledger: LedgerConfig{
			OpeningBalance: "50000",
			SeedDate:       "2025-01-01",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend, a .env file if one
// exists in the working directory, and PAPERD_* environment variables.
func Load() (Config, error) {
	// A missing .env is the normal case, not an error.
	_ = godotenv.Load()
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
