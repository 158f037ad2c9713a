package simplify

// DefaultLanguage is used when a request names no target language.
const DefaultLanguage = "Deutsch"

// allowedLanguages is the closed set of supported target languages. The
// names are German because the upstream prompt addresses the model in German.
var allowedLanguages = map[string]bool{
	"Deutsch":        true,
	"Englisch":       true,
	"Türkisch":       true,
	"Ukrainisch":     true,
	"Arabisch":       true,
	"Polnisch":       true,
	"Russisch":       true,
	"Serbokroatisch": true,
	"Rumänisch":      true,
	"Italienisch":    true,
	"Spanisch":       true,
	"Französisch":    true,
}

// LanguageAllowed reports whether lang is a supported target language.
// Matching is exact; the client sends the canonical names.
func LanguageAllowed(lang string) bool {
	return allowedLanguages[lang]
}

// Languages returns the supported target languages for listings.
func Languages() []string {
	out := make([]string, 0, len(allowedLanguages))
	for l := range allowedLanguages {
		out = append(out, l)
	}
	return out
}
