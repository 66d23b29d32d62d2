package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/selection"
)

const appName = "mesocoach"

type Config struct {
	DB     DBConfig     `toml:"database"`
	Log    LogConfig    `toml:"log"`
	User   UserConfig   `toml:"user"`
	Engine EngineConfig `toml:"engine"`
	Cache  CacheConfig  `toml:"cache"`
}

type DBConfig struct {
	ConnectionString string `toml:"connection_string"` // The entire DB connection string.
	AuthToken        string `toml:"auth_token"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type UserConfig struct {
	ID string `toml:"id"`
}

type EngineConfig struct {
	BeamWidth         int                        `toml:"beam_width"`
	RecencyDays       int                        `toml:"recency_days"`
	LookbackDays      int                        `toml:"lookback_days"`
	SessionsPerMuscle int                        `toml:"sessions_per_muscle"`
	Weights           *selection.Weights         `toml:"weights"`
	RIR               map[string]models.RIRBand  `toml:"rir"` // keyed by week number
	Landmarks         map[string]models.Landmark `toml:"landmarks"`
}

type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
	Size       int `toml:"size"`
}

// GetConfigDir returns ~/.config/mesocoach, creating it if needed.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, ".config", appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Returns the path to the config file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads .env and the config file, then applies environment overrides.
// A missing config file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}

	if cfg.DB.ConnectionString == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.DB.ConnectionString = "file:" + filepath.Join(dir, appName+".db")
	}
	return cfg, nil
}

// LoadFrom decodes one config file and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	for _, key := range []string{"MESOCOACH_DB_URL", "TURSO_DATABASE_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.DB.ConnectionString = v
			break
		}
	}
	if v := os.Getenv("TURSO_AUTH_TOKEN"); v != "" {
		cfg.DB.AuthToken = v
	}
	if v := os.Getenv("MESOCOACH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MESOCOACH_USER"); v != "" {
		cfg.User.ID = v
	}

	// Check for a DEV_MODE environment variable.
	if os.Getenv("DEV_MODE") == "true" {
		cfg.DB.ConnectionString = "file:./local.db"
		cfg.DB.AuthToken = ""
	}
}
