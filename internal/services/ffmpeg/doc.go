// Package ffmpeg wraps the ffmpeg command line tool for extracting mono
// speech-ready audio tracks from video and audio recordings.
package ffmpeg
