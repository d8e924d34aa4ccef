package cmd

import (
	"fmt"
	"os"
	"strings"

	"media-assist/infrastructure/config"

	"github.com/spf13/cobra"
)

// Google credential choices offered by setup
const (
	authAPIKey      = "API key"
	authFile        = "Service account or OAuth client file"
	authApplication = "Application default credentials"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through choosing speech and text-to-speech
backends, Google and OpenAI credentials, the sign image directory and
the microphone device.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = "config/config.yaml"
	}
	return RunSetupWithPrompter(DefaultPrompter, path, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, output OutputWriter) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return ErrPromptCancelled
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to media-assist setup!")
	fmt.Fprintln(output)

	cfg := config.Default()

	if err := promptStorage(prompter, cfg); err != nil {
		return err
	}
	if err := promptBackends(prompter, cfg); err != nil {
		return err
	}
	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}
	if err := promptOpenAI(prompter, cfg); err != nil {
		return err
	}
	if err := promptDevices(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Configuration saved to %s\n", configPath)
	return nil
}

func promptStorage(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Where should temporary media files go?", cfg.Storage.TempDir)
	if err != nil {
		return ErrPromptCancelled
	}
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("temporary directory is required")
	}
	cfg.Storage.TempDir = strings.TrimSpace(dir)
	return nil
}

func promptBackends(prompter Prompter, cfg *config.Config) error {
	backends := []string{config.BackendGoogle, config.BackendOpenAI}

	speech, err := prompter.Select("Speech recognition backend?", backends, cfg.Speech.Backend)
	if err != nil {
		return ErrPromptCancelled
	}
	cfg.Speech.Backend = speech

	lang, err := prompter.Input("Language spoken in videos?", cfg.Speech.Language)
	if err != nil {
		return ErrPromptCancelled
	}
	if lang != "" {
		cfg.Speech.Language = lang
	}

	tts, err := prompter.Select("Text-to-speech backend?", backends, cfg.TTS.Backend)
	if err != nil {
		return ErrPromptCancelled
	}
	cfg.TTS.Backend = tts
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	method, err := prompter.Select("How should Google APIs authenticate?",
		[]string{authAPIKey, authFile, authApplication}, authAPIKey)
	if err != nil {
		return ErrPromptCancelled
	}

	switch method {
	case authAPIKey:
		key, err := prompter.Password("Google API key (leave empty to use GOOGLE_API_KEY):")
		if err != nil {
			return ErrPromptCancelled
		}
		cfg.Google.APIKey = strings.TrimSpace(key)

	case authFile:
		credentials, err := prompter.Input("Path to Google credentials file?", "credentials.json")
		if err != nil {
			return ErrPromptCancelled
		}
		if credentials == "" {
			credentials = "credentials.json"
		}
		cfg.Google.CredentialsFile = credentials

		token, err := prompter.Input("Where should the OAuth token be stored (ignored for service accounts)?", "config/token.json")
		if err != nil {
			return ErrPromptCancelled
		}
		cfg.Google.TokenFile = token
	}
	return nil
}

func promptOpenAI(prompter Prompter, cfg *config.Config) error {
	if cfg.Speech.Backend != config.BackendOpenAI && cfg.TTS.Backend != config.BackendOpenAI {
		return nil
	}

	key, err := prompter.Password("OpenAI API key (leave empty to use OPENAI_API_KEY):")
	if err != nil {
		return ErrPromptCancelled
	}
	cfg.OpenAI.APIKey = strings.TrimSpace(key)

	baseURL, err := prompter.Input("OpenAI-compatible base URL (leave empty for api.openai.com)?", "")
	if err != nil {
		return ErrPromptCancelled
	}
	cfg.OpenAI.BaseURL = strings.TrimSpace(baseURL)
	return nil
}

func promptDevices(prompter Prompter, cfg *config.Config) error {
	images, err := prompter.Input("Directory with sign-language letter images?", cfg.Sign.ImageDir)
	if err != nil {
		return ErrPromptCancelled
	}
	if images != "" {
		cfg.Sign.ImageDir = images
	}

	device, err := prompter.Input(fmt.Sprintf("Microphone device for %s input?", cfg.Microphone.InputFormat), cfg.Microphone.Device)
	if err != nil {
		return ErrPromptCancelled
	}
	if device != "" {
		cfg.Microphone.Device = device
	}
	return nil
}
