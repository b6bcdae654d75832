// Package pipeline chains media post-processing commands over probed
// stream aggregates.
//
// A run parses an ordered action list, probes the input file into a
// FileStreams value, and threads that value through each command. Commands
// never mutate their input aggregate; each returns a fresh value describing
// the file it wrote. Intermediate files live in a per-run workspace that is
// deleted on every exit path, and only the final step's artifacts move to
// the requested output location. Directories run as batches on a bounded
// worker pool with per-file failure isolation.
package pipeline
