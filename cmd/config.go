package cmd

import (
	"fmt"

	"media-assist/infrastructure/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration settings",
	Long: `Inspect and change individual settings in the configuration file.

Settings are addressed by dotted keys matching the YAML layout.

Examples:
  media-assist config show
  media-assist config get speech.backend
  media-assist config set speech.backend openai
  media-assist config set pipeline.allowed_extensions mp4,mkv
  media-assist config validate`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every setting (API keys are masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	entries := mgr.List()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Key, e.Value})
	}
	fmt.Fprintf(out, "Configuration: %s\n", configPath)
	fmt.Fprint(out, renderTable([]string{"Key", "Value"}, rows))
	return nil
}

// --- GET command ---

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigGetWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigGetWithDependencies runs the get command with injected dependencies
func RunConfigGetWithDependencies(cfg *config.Config, configPath, key string, out OutputWriter) error {
	value, err := config.NewConfigManager(cfg, configPath).Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// reload without environment overrides so they are not written to the file
		fileCfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(fileCfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.Set(key, value); err != nil {
		return err
	}
	current, _ := mgr.Get(key)
	fmt.Fprintf(out, "Set %s = %s\n", key, current)
	return nil
}

// --- VALIDATE command ---

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		return RunConfigValidateWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigValidateWithDependencies runs the validate command with injected dependencies
func RunConfigValidateWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s is invalid:\n%w", configPath, err)
	}
	fmt.Fprintf(out, "%s is valid\n", configPath)
	return nil
}

// loadedConfig returns the configuration without validating it, so that
// invalid files can still be inspected and repaired
func loadedConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; run 'media-assist setup' first")
	}
	return cfg, nil
}
