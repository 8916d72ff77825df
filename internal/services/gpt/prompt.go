package gpt

import (
	"encoding/json"
	"fmt"
	"strings"

	"lectern/internal/config"
)

// PromptBuilder assembles the structuring prompt from the configured
// fragments, the transcript, and a token length target derived from the
// transcript's own token count.
type PromptBuilder struct {
	cfg config.Structuring
}

// NewPromptBuilder creates a builder over the structuring configuration.
func NewPromptBuilder(cfg config.Structuring) *PromptBuilder {
	return &PromptBuilder{cfg: cfg}
}

type transcriptEntry struct {
	Title         string `json:"title"`
	Transcription string `json:"transcription"`
}

// Build renders the full prompt for one transcript. The timestamped flag
// switches in the extra instructions for dialogue records that carry
// chronological speaker markers.
func (b *PromptBuilder) Build(title, transcript string, timestamped bool) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", fmt.Errorf("build prompt: empty transcript for %q", title)
	}

	encoded, err := json.MarshalIndent([]transcriptEntry{{Title: title, Transcription: transcript}}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("build prompt: encode transcript: %w", err)
	}

	tokenCount := CountTokens(transcript)
	minTokens := int(b.cfg.TokenRangeMin * float64(tokenCount))
	maxTokens := int(b.cfg.TokenRangeMax * float64(tokenCount))

	prompts := b.cfg.Prompts
	contextFragment := prompts.Context
	mathFragment := prompts.MathSpecific
	if timestamped {
		contextFragment += "\n\n**Important**: This content is from a time-stamped dialogue recording with chronological markers (e.g., \"Speaker 1 00:30\")."
		mathFragment = strings.TrimSpace(mathFragment + "\n\n" + prompts.TimestampDialogue)
	}

	sections := []string{
		contextFragment,
		prompts.Main,
		prompts.Additional,
		mathFragment,
		prompts.Example,
		prompts.Tone,
		b.requirement(string(encoded), minTokens, maxTokens),
	}

	var nonEmpty []string
	for _, section := range sections {
		if section = strings.TrimSpace(section); section != "" {
			nonEmpty = append(nonEmpty, section)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

func (b *PromptBuilder) requirement(encodedTranscript string, minTokens, maxTokens int) string {
	return fmt.Sprintf(`[Requirement]

Please use the provided transcription file as %s.

1. The response should follow the %s format.
2. The content must be written in %s.
   - If most of the content is in another language, translate it first, then summarize and reorganize it accordingly.
3. The number of tokens in the answer should fall between %d and %d, depending on the quality of the content.
   - Exceeding the maximum token limit is acceptable, but the total length should not exceed more than twice the maximum length required.
4. Ensure concise, professional organization by:
   - Distinguishing core messages from detailed messages.
   - Using tables, bullet points, or diagrams, where applicable, to enhance understanding.
5. Highlight actionable insights and label them as "Key Takeaways."
6. Add relevant external knowledge or examples to deepen insights, marked as "Insights."
7. Identify recurring themes or patterns and analyze their significance.
8. Do not return any meta-information about your response; provide only the answer related to the given content.`,
		encodedTranscript, b.cfg.Style, b.cfg.Language, minTokens, maxTokens)
}
