package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Speech      SpeechConfig      `yaml:"speech"`
	TTS         TTSConfig         `yaml:"tts"`
	Translation TranslationConfig `yaml:"translation"`
	Google      GoogleConfig      `yaml:"google"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Microphone  MicrophoneConfig  `yaml:"microphone"`
	Sign        SignConfig        `yaml:"sign"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StorageConfig controls where transient artifacts live
type StorageConfig struct {
	TempDir    string        `yaml:"temp_dir"`
	SweepAfter time.Duration `yaml:"sweep_after"`
}

// PipelineConfig contains the video transcription settings
type PipelineConfig struct {
	SampleRate        int           `yaml:"sample_rate"`
	Channels          int           `yaml:"channels"`
	DecodeTimeout     time.Duration `yaml:"decode_timeout"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
}

// FFmpegConfig contains executable paths
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// SpeechConfig selects the speech recognition backend
type SpeechConfig struct {
	Backend  string `yaml:"backend"`
	Language string `yaml:"language"`
}

// TTSConfig selects the text-to-speech backend
type TTSConfig struct {
	Backend  string `yaml:"backend"`
	Language string `yaml:"language"`
}

// TranslationConfig contains translation defaults
type TranslationConfig struct {
	DefaultTarget string `yaml:"default_target"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	APIKey          string `yaml:"api_key"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	Endpoint        string `yaml:"endpoint"`
}

// OpenAIConfig contains OpenAI API settings
type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	TranscriptionModel string `yaml:"transcription_model"`
	TTSModel           string `yaml:"tts_model"`
	Voice              string `yaml:"voice"`
}

// MicrophoneConfig contains live capture settings
type MicrophoneConfig struct {
	InputFormat string        `yaml:"input_format"`
	Device      string        `yaml:"device"`
	Duration    time.Duration `yaml:"duration"`
	Language    string        `yaml:"language"`
}

// SignConfig contains sign-language image settings
type SignConfig struct {
	ImageDir    string `yaml:"image_dir"`
	FilePattern string `yaml:"file_pattern"`
	Width       int    `yaml:"width"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Backend names
const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
)

// Default returns a configuration with every setting filled in
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their default values
func (c *Config) ApplyDefaults() {
	setString(&c.Storage.TempDir, filepath.Join(os.TempDir(), "media-assist"))
	setDuration(&c.Storage.SweepAfter, time.Hour)

	setInt(&c.Pipeline.SampleRate, 16000)
	setInt(&c.Pipeline.Channels, 1)
	setDuration(&c.Pipeline.DecodeTimeout, 2*time.Minute)
	setDuration(&c.Pipeline.TranscribeTimeout, time.Minute)
	if c.Pipeline.MaxUploadBytes == 0 {
		c.Pipeline.MaxUploadBytes = 200 << 20
	}
	if len(c.Pipeline.AllowedExtensions) == 0 {
		c.Pipeline.AllowedExtensions = []string{"mp4", "avi", "mov", "mkv"}
	}

	setString(&c.FFmpeg.FFmpegPath, "ffmpeg")
	setString(&c.FFmpeg.FFprobePath, "ffprobe")

	setString(&c.Speech.Backend, BackendGoogle)
	setString(&c.Speech.Language, "en-US")
	setString(&c.TTS.Backend, BackendGoogle)
	setString(&c.TTS.Language, "en")
	setString(&c.Translation.DefaultTarget, "en")

	setString(&c.OpenAI.TranscriptionModel, "whisper-1")
	setString(&c.OpenAI.TTSModel, "tts-1")
	setString(&c.OpenAI.Voice, "alloy")

	format, device := defaultCaptureDevice()
	setString(&c.Microphone.InputFormat, format)
	setString(&c.Microphone.Device, device)
	setDuration(&c.Microphone.Duration, 5*time.Second)
	setString(&c.Microphone.Language, "en-IN")

	setString(&c.Sign.ImageDir, "signs")
	setString(&c.Sign.FilePattern, "%s_test.jpg")

	setString(&c.Server.Addr, ":8080")
	setInt(&c.Server.RequestsPerMinute, 60)
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "console")
}

func defaultCaptureDevice() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=Microphone"
	default:
		return "alsa", "default"
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.TempDir == "" {
		errs = append(errs, errors.New("storage.temp_dir is required"))
	}
	if c.Storage.SweepAfter <= 0 {
		errs = append(errs, errors.New("storage.sweep_after must be positive"))
	}
	if c.Pipeline.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.sample_rate must be positive, got %d", c.Pipeline.SampleRate))
	}
	if c.Pipeline.Channels < 1 || c.Pipeline.Channels > 8 {
		errs = append(errs, fmt.Errorf("pipeline.channels must be between 1 and 8, got %d", c.Pipeline.Channels))
	}
	if c.Pipeline.DecodeTimeout <= 0 {
		errs = append(errs, errors.New("pipeline.decode_timeout must be positive"))
	}
	if c.Pipeline.TranscribeTimeout <= 0 {
		errs = append(errs, errors.New("pipeline.transcribe_timeout must be positive"))
	}
	if c.Pipeline.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("pipeline.max_upload_bytes must be positive"))
	}
	if len(c.Pipeline.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("pipeline.allowed_extensions must not be empty"))
	}
	if !validBackend(c.Speech.Backend) {
		errs = append(errs, fmt.Errorf("speech.backend must be google or openai, got %q", c.Speech.Backend))
	}
	if !validBackend(c.TTS.Backend) {
		errs = append(errs, fmt.Errorf("tts.backend must be google or openai, got %q", c.TTS.Backend))
	}
	if c.Microphone.Duration <= 0 {
		errs = append(errs, errors.New("microphone.duration must be positive"))
	}
	if strings.Count(c.Sign.FilePattern, "%s") != 1 {
		errs = append(errs, fmt.Errorf("sign.file_pattern must contain exactly one %%s, got %q", c.Sign.FilePattern))
	}
	if c.Sign.Width < 0 {
		errs = append(errs, errors.New("sign.width must not be negative"))
	}
	if c.Server.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("server.requests_per_minute must be positive"))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func validBackend(name string) bool {
	return name == BackendGoogle || name == BackendOpenAI
}

// ApplyEnv overrides API credentials from the environment
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("GOOGLE_API_KEY"); v != "" {
		c.Google.APIKey = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := getenv("MEDIA_ASSIST_TEMP_DIR"); v != "" {
		c.Storage.TempDir = v
	}
}

// Load reads and parses the configuration from the specified YAML file.
// A missing file is not an error: the defaults are returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// API keys may be stored here
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setString(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

func setInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func setDuration(field *time.Duration, value time.Duration) {
	if *field == 0 {
		*field = value
	}
}
