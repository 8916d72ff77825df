package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// TranscriptionEngines lists the supported speech-to-text engine names.
var TranscriptionEngines = []string{"whisper-cpp", "whisper", "whisperx"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateStructuring(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Format {
	case "wav", "mp3":
	default:
		return fmt.Errorf("audio.format must be wav or mp3, got %q", c.Audio.Format)
	}
	if c.Audio.SampleRate < 8000 {
		return errors.New("audio.sample_rate must be at least 8000")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	valid := false
	for _, engine := range TranscriptionEngines {
		if c.Transcription.Engine == engine {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("transcription.engine must be one of %v, got %q", TranscriptionEngines, c.Transcription.Engine)
	}
	if _, err := language.Parse(c.Transcription.Language); err != nil {
		return fmt.Errorf("transcription.language %q is not a valid language tag: %w", c.Transcription.Language, err)
	}
	return nil
}

func (c *Config) validateStructuring() error {
	if c.Structuring.TokenRangeMin >= c.Structuring.TokenRangeMax {
		return errors.New("structuring.token_range_min must be less than structuring.token_range_max")
	}
	if c.Structuring.TimeoutSeconds <= 0 {
		return errors.New("structuring.timeout_seconds must be positive")
	}
	// The API key is deliberately not validated here: the structuring stage
	// performs its own health check and only that stage needs credentials.
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
