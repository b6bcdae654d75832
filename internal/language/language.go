package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

// Unknown is the sentinel for streams whose language could not be determined.
// It is never the empty string.
const Unknown = "unk"

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-3 primary (3-letter)
	alt3    string // ISO 639-2 bibliographic alternate (e.g. "fre" vs "fra")
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"es", "spa", "", "Spanish"},
	{"gl", "glg", "", "Galician"},
	{"it", "ita", "", "Italian"},
	{"zh", "zho", "chi", "Chinese"},
	{"ja", "jpn", "", "Japanese"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return nil
}

// Normalize converts a language code to ISO 639-3. Empty, "und", "unknown",
// and "none" map to the Unknown sentinel. Known 2-letter codes convert via
// the table; unmapped 2-letter codes pass through unchanged (callers log a
// warning when that matters). 3-letter codes pass through unchanged, so
// Normalize is idempotent.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case "", "und", "unknown", "none", Unknown:
		return Unknown
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	return code
}

// Known reports whether code normalizes to something other than Unknown.
func Known(code string) bool {
	return Normalize(code) != Unknown
}

// ToISO1 converts a code to ISO 639-1 for tools that want 2-letter codes
// (whisper, translation backends). Unmapped codes pass through unchanged.
func ToISO1(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	return strings.ToLower(strings.TrimSpace(code))
}

// DisplayName returns a human-readable name for a language code.
func DisplayName(code string) string {
	if e := lookup(code); e != nil {
		return e.display
	}
	code = strings.TrimSpace(code)
	if code == "" || code == Unknown {
		return "Unknown"
	}
	return cases.Title(xlang.English).String(code)
}

// FromTags extracts and normalizes a language from container metadata tags.
// Checks the tag keys ffprobe commonly reports.
func FromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return Unknown
	}
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
			if value != "" {
				return Normalize(value)
			}
		}
	}
	return Unknown
}
