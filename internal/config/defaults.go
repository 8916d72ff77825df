package config

const (
	defaultRootDir             = "~/lectern"
	defaultFFmpegBinary        = "ffmpeg"
	defaultAudioFormat         = "wav"
	defaultSampleRate          = 16000
	defaultEngine              = "whisper-cpp"
	defaultModelName           = "base"
	defaultTranscriptionLang   = "ko"
	defaultStructuringBaseURL  = "https://api.openai.com/v1/chat/completions"
	defaultStructuringModel    = "gpt-5-mini"
	defaultStructuringTimeout  = 300
	defaultRequestDelaySeconds = 1
	defaultTokenRangeMin       = 0.5
	defaultTokenRangeMax       = 1.5
	defaultOutputLanguage      = "Korean"
	defaultOutputStyle         = "Markdown"
	defaultYtdlpBinary         = "yt-dlp"
	defaultWatchDebounce       = 5
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default prompt fragments assembled into the structuring request. Each can
// be overridden per-deployment in the [structuring.prompts] table.
const (
	defaultPromptContext = "[Context]\n" +
		"You are an expert editor who turns raw speech-to-text transcriptions of " +
		"lectures and meetings into well-organized study documents."

	defaultPromptMain = "[Main Request]\n" +
		"Restructure the transcription into a coherent document: correct obvious " +
		"transcription errors, merge fragmented sentences, and organize the content " +
		"under meaningful section headings that follow the flow of the original talk."

	defaultPromptAdditional = "[Additional Request]\n" +
		"Preserve every substantive point from the source. Do not invent content " +
		"that is not supported by the transcription."

	defaultPromptMathSpecific = "[Mathematical Notation]\n" +
		"Render every formula, equation, and mathematical symbol in LaTeX, using " +
		"$...$ for inline math and $$...$$ for display math."

	defaultPromptExample = "[Examples]\n" +
		"When the speaker works through an example, keep it as a distinct worked " +
		"example block with its setup, steps, and conclusion."

	defaultPromptTone = "[Tone]\n" +
		"Write in a clear, neutral, professional register appropriate for study " +
		"notes."

	defaultPromptTimestampDialogue = "[Timestamped Dialogue]\n" +
		"The source is a time-stamped dialogue with chronological speaker markers " +
		"(e.g. \"Speaker 1 00:30\"). Preserve the chronological order of the " +
		"discussion and attribute key points to their speakers where that aids " +
		"understanding."
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Workspace: Workspace{
			RootDir: defaultRootDir,
		},
		Audio: Audio{
			FFmpegBinary: defaultFFmpegBinary,
			Format:       defaultAudioFormat,
			SampleRate:   defaultSampleRate,
		},
		Transcription: Transcription{
			Engine:    defaultEngine,
			ModelName: defaultModelName,
			Language:  defaultTranscriptionLang,
		},
		Structuring: Structuring{
			BaseURL:             defaultStructuringBaseURL,
			Model:               defaultStructuringModel,
			TimeoutSeconds:      defaultStructuringTimeout,
			RequestDelaySeconds: defaultRequestDelaySeconds,
			TokenRangeMin:       defaultTokenRangeMin,
			TokenRangeMax:       defaultTokenRangeMax,
			Language:            defaultOutputLanguage,
			Style:               defaultOutputStyle,
			Prompts: Prompts{
				Context:           defaultPromptContext,
				Main:              defaultPromptMain,
				Additional:        defaultPromptAdditional,
				MathSpecific:      defaultPromptMathSpecific,
				Example:           defaultPromptExample,
				Tone:              defaultPromptTone,
				TimestampDialogue: defaultPromptTimestampDialogue,
			},
		},
		Download: Download{
			Binary: defaultYtdlpBinary,
		},
		Workflow: Workflow{
			WatchDebounceSeconds: defaultWatchDebounce,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
