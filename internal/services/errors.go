package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks failures detected before any external tool ran:
	// missing files, bad track indices, malformed language codes, negative
	// time values, wrong output containers.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalTool marks a transcoder, prober, preset-tool, or model call
	// that returned a non-zero status or malformed output.
	ErrExternalTool = errors.New("external tool error")

	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes command context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, command, operation, message string, err error) error {
	detail := buildDetail(command, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(command, operation, message string) string {
	parts := make([]string, 0, 3)
	if command = strings.TrimSpace(command); command != "" {
		parts = append(parts, command)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
