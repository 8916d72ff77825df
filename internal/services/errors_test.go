package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "transcribed", "whisper", "engine failed", base)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("marker not preserved")
	}
	if !errors.Is(err, base) {
		t.Fatal("cause not preserved")
	}
	msg := err.Error()
	for _, want := range []string{"transcribed", "whisper", "engine failed", "exit status 1"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	auth := Wrap(ErrAuth, "structured", "health", "api key rejected", nil)
	if !IsFatal(auth) {
		t.Fatal("auth error should be fatal")
	}
	if IsFatal(Wrap(ErrExternalTool, "transcribed", "whisper", "crash", nil)) {
		t.Fatal("tool error should not be fatal")
	}
	if IsFatal(nil) {
		t.Fatal("nil should not be fatal")
	}
}
