package translate

import (
	"context"
	"strings"

	"vpipe/internal/services"
)

// Separator joins subtitle lines into one request and splits the response
// back apart. U+2063 (invisible separator) survives translation engines
// that would rewrite ordinary punctuation.
const Separator = "\u2063"

// Translator converts subtitle lines between languages. Implementations
// must return exactly one output line per input line.
type Translator interface {
	Translate(ctx context.Context, lines []string, from, to string) ([]string, error)
}

func validatePair(from, to string) error {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return services.Wrap(services.ErrInvalidInput, "translate", "validate", "source and target languages required", nil)
	}
	if from == to {
		return services.Wrap(services.ErrInvalidInput, "translate", "validate", "source and target languages are identical", nil)
	}
	return nil
}

// joinLines glues lines with the separator for a single round trip.
func joinLines(lines []string) string {
	return strings.Join(lines, " "+Separator+" ")
}

// splitLines undoes joinLines on translated text. A count mismatch means the
// engine swallowed a separator.
func splitLines(text string, want int) ([]string, bool) {
	parts := strings.Split(text, Separator)
	if len(parts) != want {
		return nil, false
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = strings.TrimSpace(part)
	}
	return out, true
}
