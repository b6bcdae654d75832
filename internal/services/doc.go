// Package services defines the shared error taxonomy for external tool
// boundaries and hosts the clients that wrap them (ffmpeg, ffprobe output
// consumers, HandBrakeCLI, speech and translation models).
//
// Validation failures are tagged ErrInvalidInput and are always raised before
// an external process is launched. Tool failures are tagged ErrExternalTool
// and carry the exact argument list for reproducibility. Detection
// uncertainty is deliberately not an error anywhere in this module: language
// and forced-subtitle detection degrade to sentinels so a pipeline run can
// finish with imperfect metadata.
package services
