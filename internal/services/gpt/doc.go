// Package gpt talks to an OpenAI-compatible chat completion endpoint to turn
// raw transcripts into structured markdown documents. It owns prompt assembly
// from the configured fragments and token counting for the length bounds the
// prompt asks the model to honor.
package gpt
