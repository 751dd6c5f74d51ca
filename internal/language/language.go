package language

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical codes for the supported languages. The set is closed: detection
// results that normalize to anything else are unsupported.
const (
	English  = "en-IN"
	Hindi    = "hi-IN"
	Marathi  = "mr-IN"
	Gujarati = "gu-IN"
)

type entry struct {
	code    string
	display string   // Native-script name shown to users
	aliases []string // Full name spellings, lowercase; participate in substring matching
	short   []string // Bare ISO codes; exact lookup only
}

// Table order matters: the substring fallback in Normalize resolves ties by
// document order.
var languages = []entry{
	{English, "English", []string{
		"english",
		"english (india)",
		"अंग्रेज़ी",
		"अंग्रेजी",
	}, []string{"en", "eng"}},
	{Hindi, "हिंदी", []string{
		"hindi",
		"hindi (india)",
		"हिंदी",
		"हिन्दी",
	}, []string{"hi", "hin"}},
	{Marathi, "मराठी", []string{
		"marathi",
		"marathi (india)",
		"मराठी",
	}, []string{"mr", "mar"}},
	{Gujarati, "ગુજરાતી", []string{
		"gujarati",
		"gujarati (india)",
		"ગુજરાતી",
	}, []string{"gu", "guj"}},
}

// Index maps built at init time. byAlias keys are NFC-composed; byCompat keys
// are NFKD-decomposed to tolerate diacritic variants of the same name.
var (
	byAlias  map[string]string
	byCompat map[string]string
	byCode   map[string]*entry
)

func init() {
	byAlias = make(map[string]string, len(languages)*8)
	byCompat = make(map[string]string, len(languages)*6)
	byCode = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		byAlias[strings.ToLower(e.code)] = e.code
		for _, code := range e.short {
			if _, ok := byAlias[code]; !ok {
				byAlias[code] = e.code
			}
		}
		for _, alias := range e.aliases {
			composed := norm.NFC.String(alias)
			if _, ok := byAlias[composed]; !ok {
				byAlias[composed] = e.code
			}
			decomposed := norm.NFKD.String(alias)
			if _, ok := byCompat[decomposed]; !ok {
				byCompat[decomposed] = e.code
			}
		}
	}
}

// Normalize maps a free-text language name onto a canonical code. Returns
// ok=false when nothing in the catalog matches; callers must treat that as
// "language unsupported" rather than guessing.
func Normalize(raw string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}

	composed := norm.NFC.String(cleaned)
	if code, ok := byAlias[composed]; ok {
		return code, true
	}

	// Compatibility decomposition tolerates diacritic variants the exact
	// table misses.
	if code, ok := byCompat[norm.NFKD.String(cleaned)]; ok {
		return code, true
	}

	// Substring containment in both directions tolerates extra or missing
	// qualifiers ("Hindi (India)" vs "hindi"). First match in table order wins.
	for _, e := range languages {
		for _, alias := range e.aliases {
			if strings.Contains(composed, alias) || strings.Contains(alias, composed) {
				return e.code, true
			}
		}
	}

	return "", false
}

// Supported reports whether code is one of the canonical supported codes.
func Supported(code string) bool {
	_, ok := byCode[strings.TrimSpace(code)]
	return ok
}

// DisplayName returns the native-script name registered for a canonical code,
// or the code itself when nothing is registered.
func DisplayName(code string) string {
	if e, ok := byCode[strings.TrimSpace(code)]; ok {
		return e.display
	}
	return code
}

// Codes returns the supported canonical codes in table order.
func Codes() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code)
	}
	return out
}
