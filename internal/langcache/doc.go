// Package langcache stores language detection and transcription results in
// a SQLite database keyed by content digest, letting repeated runs over the
// same files skip speech model invocations.
package langcache
