// Package subtitles parses, renders, and classifies SRT subtitle tracks.
// It knows nothing about external tools; extraction and transcription live
// in the services packages.
package subtitles
