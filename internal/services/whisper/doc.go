// Package whisper selects and drives the supported speech-to-text command
// line engines (whisper.cpp, openai-whisper, WhisperX) behind one Engine
// interface, and provides SubRip parsing and formatting helpers for subtitle
// output.
package whisper
