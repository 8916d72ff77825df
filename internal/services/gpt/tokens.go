package gpt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens returns the cl100k_base token count for text. When the encoding
// tables cannot be loaded it falls back to a four-bytes-per-token estimate so
// the prompt's length bounds stay usable offline.
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		encoding, _ = tiktoken.GetEncoding("cl100k_base")
	})
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
