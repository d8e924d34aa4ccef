package cmd

import (
	"errors"
	"fmt"
	"os"

	"media-assist/infrastructure/config"
	"media-assist/infrastructure/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	cfg       *config.Config
	cfgErr    error
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "media-assist",
	Short: "Accessibility toolkit for sign language, speech, translation and video transcripts",
	Long: `media-assist bundles five accessibility tools:

  - Spell a word with sign-language alphabet images
  - Transcribe speech from the microphone
  - Translate text between languages
  - Convert text to speech (MP3)
  - Extract a transcript from a video file

Run "media-assist menu" for interactive navigation or "media-assist serve"
to expose the same features over HTTP.

Example:
  media-assist transcribe lecture.mp4 --start 00:05:00 --end 00:06:30`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: cannot read .env: %v\n", err)
	}

	cfg, cfgErr = config.Load(cfgFile)
	if cfgErr != nil {
		// Commands that need config will check and error appropriately
		cfg = nil
		logger = logging.NewNop()
		return
	}
	cfg.ApplyEnv(os.Getenv)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger, cfgErr = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfgErr != nil {
		cfg = nil
		logger = logging.NewNop()
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// GetLogger returns the application logger
func GetLogger() *zap.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}

// requireConfig returns the loaded configuration or explains why there is none
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; run 'media-assist setup' first")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s:\n%w", cfgFile, err)
	}
	return cfg, nil
}
