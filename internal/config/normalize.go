package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWorkspace(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeTranscription()
	c.normalizeStructuring()
	c.normalizeDownload()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeWorkspace() error {
	var err error
	if strings.TrimSpace(c.Workspace.RootDir) == "" {
		c.Workspace.RootDir = defaultRootDir
	}
	if c.Workspace.RootDir, err = expandPath(c.Workspace.RootDir); err != nil {
		return fmt.Errorf("workspace.root_dir: %w", err)
	}

	// Stage directories default to conventional names under the root.
	defaults := map[*string]string{
		&c.Workspace.InputDir:      "input",
		&c.Workspace.AudioDir:      "extracted_audio",
		&c.Workspace.TextDir:       "transcribed",
		&c.Workspace.RecordDir:     "record_text_raw",
		&c.Workspace.StructuredDir: "structured",
		&c.Workspace.LogDir:        "logs",
	}
	for field, name := range defaults {
		if strings.TrimSpace(*field) == "" {
			*field = filepath.Join(c.Workspace.RootDir, name)
			continue
		}
		if *field, err = expandPath(*field); err != nil {
			return fmt.Errorf("workspace directory %q: %w", name, err)
		}
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.Format = strings.ToLower(strings.TrimSpace(c.Audio.Format))
	if c.Audio.Format == "" {
		c.Audio.Format = defaultAudioFormat
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Engine = strings.ToLower(strings.TrimSpace(c.Transcription.Engine))
	if c.Transcription.Engine == "" {
		c.Transcription.Engine = defaultEngine
	}
	c.Transcription.Binary = strings.TrimSpace(c.Transcription.Binary)
	c.Transcription.ModelPath = strings.TrimSpace(c.Transcription.ModelPath)
	c.Transcription.ModelName = strings.TrimSpace(c.Transcription.ModelName)
	if c.Transcription.ModelName == "" {
		c.Transcription.ModelName = defaultModelName
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLang
	}
}

func (c *Config) normalizeStructuring() {
	if c.Structuring.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Structuring.APIKey = strings.TrimSpace(value)
		}
	}
	c.Structuring.APIKey = strings.TrimSpace(c.Structuring.APIKey)
	c.Structuring.BaseURL = strings.TrimSpace(c.Structuring.BaseURL)
	if c.Structuring.BaseURL == "" {
		c.Structuring.BaseURL = defaultStructuringBaseURL
	}
	c.Structuring.Model = strings.TrimSpace(c.Structuring.Model)
	if c.Structuring.Model == "" {
		c.Structuring.Model = defaultStructuringModel
	}
	if c.Structuring.TimeoutSeconds <= 0 {
		c.Structuring.TimeoutSeconds = defaultStructuringTimeout
	}
	if c.Structuring.RequestDelaySeconds < 0 {
		c.Structuring.RequestDelaySeconds = defaultRequestDelaySeconds
	}
	if c.Structuring.TokenRangeMin <= 0 {
		c.Structuring.TokenRangeMin = defaultTokenRangeMin
	}
	if c.Structuring.TokenRangeMax <= 0 {
		c.Structuring.TokenRangeMax = defaultTokenRangeMax
	}
	if strings.TrimSpace(c.Structuring.Language) == "" {
		c.Structuring.Language = defaultOutputLanguage
	}
	if strings.TrimSpace(c.Structuring.Style) == "" {
		c.Structuring.Style = defaultOutputStyle
	}
	c.normalizePrompts()
}

func (c *Config) normalizePrompts() {
	p := &c.Structuring.Prompts
	fallbacks := map[*string]string{
		&p.Context:           defaultPromptContext,
		&p.Main:              defaultPromptMain,
		&p.Additional:        defaultPromptAdditional,
		&p.MathSpecific:      defaultPromptMathSpecific,
		&p.Example:           defaultPromptExample,
		&p.Tone:              defaultPromptTone,
		&p.TimestampDialogue: defaultPromptTimestampDialogue,
	}
	for field, fallback := range fallbacks {
		if strings.TrimSpace(*field) == "" {
			*field = fallback
		}
	}
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultYtdlpBinary
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.WatchDebounceSeconds <= 0 {
		c.Workflow.WatchDebounceSeconds = defaultWatchDebounce
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
