package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Workspace contains the directory layout for pipeline artifacts. Every
// stage reads from and writes into its own directory under RootDir unless a
// directory is overridden explicitly.
type Workspace struct {
	RootDir       string `toml:"root_dir"`
	InputDir      string `toml:"input_dir"`
	AudioDir      string `toml:"audio_dir"`
	TextDir       string `toml:"text_dir"`
	RecordDir     string `toml:"record_dir"`
	StructuredDir string `toml:"structured_dir"`
	LogDir        string `toml:"log_dir"`
}

// Audio contains configuration for the ffmpeg extraction stage.
type Audio struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	Format       string `toml:"format"`
	SampleRate   int    `toml:"sample_rate"`
}

// Transcription contains configuration for the speech-to-text stage.
type Transcription struct {
	Engine     string `toml:"engine"`
	Binary     string `toml:"binary"`
	ModelPath  string `toml:"model_path"`
	ModelName  string `toml:"model_name"`
	Language   string `toml:"language"`
	ExtractSRT bool   `toml:"extract_srt"`
}

// Prompts holds the named fragments assembled into the structuring prompt.
// Each fragment can be overridden independently; empty values fall back to
// the repository defaults.
type Prompts struct {
	Context           string `toml:"context"`
	Main              string `toml:"main"`
	Additional        string `toml:"additional"`
	MathSpecific      string `toml:"math_specific"`
	Example           string `toml:"example"`
	Tone              string `toml:"tone"`
	TimestampDialogue string `toml:"timestamp_dialogue"`
}

// Structuring contains configuration for the chat-completion restructuring
// stage.
type Structuring struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	RequestDelaySeconds int     `toml:"request_delay_seconds"`
	TokenRangeMin       float64 `toml:"token_range_min"`
	TokenRangeMax       float64 `toml:"token_range_max"`
	Language            string  `toml:"language"`
	Style               string  `toml:"style"`
	Prompts             Prompts `toml:"prompts"`
}

// Download contains configuration for the yt-dlp media downloader.
type Download struct {
	Binary string `toml:"binary"`
}

// Workflow contains timing knobs for pipeline and watch-mode behavior.
type Workflow struct {
	WatchDebounceSeconds int `toml:"watch_debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lectern.
//
// Configuration sections by subsystem:
//   - Workspace: directory layout for stage artifacts, ledger, and catalog
//   - Audio: ffmpeg extraction settings
//   - Transcription: speech-to-text engine selection and model settings
//   - Structuring: chat-completion API connection, prompts, token bounds
//   - Download: yt-dlp settings
//   - Workflow: watch-mode debounce
//   - Logging: log format and level
type Config struct {
	Workspace     Workspace     `toml:"workspace"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Structuring   Structuring   `toml:"structuring"`
	Download      Download      `toml:"download"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	finalized, err := Finalize(cfg)
	if err != nil {
		return nil, "", err
	}
	return finalized, resolvedPath, nil
}

// Finalize normalizes and validates an in-memory configuration, returning it
// ready for use. Load applies it to file-based configs; tests and embedders
// can call it directly.
func Finalize(cfg Config) (*Config, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates every workspace directory the pipeline writes
// into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Workspace.RootDir,
		c.Workspace.InputDir,
		c.Workspace.AudioDir,
		c.Workspace.TextDir,
		c.Workspace.RecordDir,
		c.Workspace.StructuredDir,
		c.Workspace.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath is the CSV stage ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Workspace.RootDir, "pipeline_log.csv")
}

// CatalogPath is the sqlite download/run catalog location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Workspace.RootDir, "catalog.db")
}

// LockPath is the workspace lock file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Workspace.RootDir, ".lectern.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
