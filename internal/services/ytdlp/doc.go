// Package ytdlp downloads audio from streaming URLs with the yt-dlp command
// line tool so downloaded talks can join the transcription pipeline.
package ytdlp
