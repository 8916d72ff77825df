package gpt

import (
	"context"

	"lectern/internal/config"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// Structurer combines the prompt builder and the completion client into the
// one operation the pipeline needs: transcript in, structured markdown out.
type Structurer struct {
	client  *Client
	builder *PromptBuilder
}

// NewStructurer wires a Structurer from the structuring configuration.
func NewStructurer(cfg config.Structuring, opts ...Option) *Structurer {
	client := NewClient(Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, opts...)
	return &Structurer{client: client, builder: NewPromptBuilder(cfg)}
}

// Probe reports configuration readiness without touching the network.
func (s *Structurer) Probe() stage.Health { return s.client.Probe() }

// HealthCheck verifies the endpoint and credentials with a minimal request.
func (s *Structurer) HealthCheck(ctx context.Context) error { return s.client.HealthCheck(ctx) }

// Structure turns one transcript into a structured markdown document.
func (s *Structurer) Structure(ctx context.Context, title, transcript string, timestamped bool) (string, error) {
	prompt, err := s.builder.Build(title, transcript, timestamped)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, string(stage.Structured), "prompt", "", err)
	}
	return s.client.Complete(ctx, "", prompt)
}
