package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lectern/internal/config"
	"lectern/internal/services"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-5-mini"})
	return server, client
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "# Structured\n\nresult"}},
			},
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Fatal(err)
		}
	})

	content, err := client.Complete(context.Background(), "system here", "user here")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "# Structured\n\nresult" {
		t.Fatalf("content = %q", content)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.Model != "gpt-5-mini" || len(gotBody.Messages) != 2 {
		t.Fatalf("request body = %+v", gotBody)
	}
}

func TestCompleteAuthFailureIsFatal(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(), "", "prompt")
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth marker, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("auth failure should be fatal")
	}
}

func TestCompleteServerErrorIsNotFatal(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), "", "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if services.IsFatal(err) {
		t.Fatal("server error should not be fatal")
	}
}

func TestCompleteSingleAttempt(t *testing.T) {
	calls := 0
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "try again later", http.StatusTooManyRequests)
	})

	if _, err := client.Complete(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Complete(context.Background(), "", "prompt")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		response := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		}
		json.NewEncoder(w).Encode(response)
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestHealthCheckPropagatesAuthMarker(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth marker, got %v", err)
	}
}

func TestProbeWithoutKey(t *testing.T) {
	client := NewClient(Config{})
	if health := client.Probe(); health.Ready {
		t.Fatal("probe should fail without api key")
	}
}

func TestPromptBuildEmbedsTranscriptAndBounds(t *testing.T) {
	cfg := config.Structuring{
		TokenRangeMin: 0.5,
		TokenRangeMax: 1.5,
		Language:      "Korean",
		Style:         "Markdown",
		Prompts: config.Prompts{
			Context: "You are a note organizer.",
			Main:    "Organize the content.",
		},
	}
	builder := NewPromptBuilder(cfg)

	transcript := "hello world this is a lecture about graphs"
	prompt, err := builder.Build("lecture_01.txt", transcript, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{
		"You are a note organizer.",
		"Organize the content.",
		"[Requirement]",
		`"title": "lecture_01.txt"`,
		"Markdown format",
		"written in Korean",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	tokens := CountTokens(transcript)
	if tokens <= 0 {
		t.Fatal("token count should be positive")
	}
}

func TestPromptBuildTimestampedAddsDialogueInstructions(t *testing.T) {
	cfg := config.Structuring{
		TokenRangeMin: 0.5, TokenRangeMax: 1.5,
		Language: "Korean", Style: "Markdown",
		Prompts: config.Prompts{
			Context:           "ctx",
			TimestampDialogue: "Preserve chronological order of the dialogue.",
		},
	}
	prompt, err := NewPromptBuilder(cfg).Build("meeting.txt", "some dialogue", true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "Preserve chronological order") {
		t.Fatal("timestamp dialogue fragment missing")
	}
	if !strings.Contains(prompt, "time-stamped dialogue recording") {
		t.Fatal("timestamped context note missing")
	}
}

func TestPromptBuildRejectsEmptyTranscript(t *testing.T) {
	if _, err := NewPromptBuilder(config.Structuring{}).Build("x", "   ", false); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestCountTokensFallbackNonZero(t *testing.T) {
	if CountTokens("") != 0 {
		t.Fatal("empty text should count zero tokens")
	}
	if CountTokens("word") == 0 {
		t.Fatal("non-empty text should count at least one token")
	}
}
