package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/logging"
	"github.com/misterclayt0n/mesocoach/internal/storage"
)

var (
	userFlag   string
	configFlag string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "mesocoach",
	Short:        "Generates training sessions that adapt to your history, block, and readiness",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User id (defaults to [user].id in the config)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (defaults to ~/.config/mesocoach/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to stderr")
}

// env is what most commands need: the config, a logger, and an open database.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	st      *storage.Storage
	dir     string
	logFile *os.File
}

func loadEnv() (*env, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("Failed to resolve config dir: %w", err)
	}

	var cfg *config.Config
	if configFlag != "" {
		cfg, err = config.LoadFrom(configFlag)
		if err == nil && cfg.DB.ConnectionString == "" {
			cfg.DB.ConnectionString = "file:" + filepath.Join(dir, "mesocoach.db")
		}
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("Failed to load config: %w", err)
	}

	e := &env{cfg: cfg, dir: dir}
	if verbose {
		e.log = logging.New(logging.LevelDebug, cfg.Log.Format, os.Stderr)
	} else {
		e.log, e.logFile, err = logging.NewFile(dir, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
	}

	e.st, err = storage.NewStorage(cfg, e.log)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("Failed to open database: %w", err)
	}
	return e, nil
}

func (e *env) close() {
	if e.st != nil {
		e.st.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

func (e *env) userID() (string, error) {
	if userFlag != "" {
		return userFlag, nil
	}
	if e.cfg.User.ID != "" {
		return e.cfg.User.ID, nil
	}
	return "", errors.New("No user set: pass --user or set [user].id in the config")
}

// clock is swapped in tests.
var clock = time.Now
