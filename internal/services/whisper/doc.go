// Package whisper wraps the whisper CLI for transcription and spoken
// language identification, plus the ffmpeg audio extraction that feeds it.
package whisper
