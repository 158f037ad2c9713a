// Package redact removes personal data from extracted text before it leaves
// the process. The rules are deliberately over-broad: a false positive costs
// readability, a false negative leaks personal data to a third party.
package redact

import "regexp"

// Placeholders inserted in place of matched personal data.
const (
	PlaceholderContact  = "[CONTACT]"
	PlaceholderIBAN     = "[IBAN]"
	PlaceholderLocation = "[LOCATION]"
	PlaceholderAddress  = "[ADDRESS]"
	PlaceholderRedacted = "[REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rule order matters: contact channels first, then account numbers, then
// location shapes, then labeled header fields as a catch-all.
var rules = []rule{
	// Email addresses.
	{regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`), PlaceholderContact},
	// Phone numbers, simple and permissive.
	{regexp.MustCompile(`(?:\+?\d{1,3}[\s-]?)?(?:\(?\d{2,5}\)?[\s-]?)?\d{3,}[\s-]?\d{2,}(?:[\s-]?\d{2,})`), PlaceholderContact},
	// IBANs.
	{regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`), PlaceholderIBAN},
	// German/Austrian postal code followed by a city name.
	{regexp.MustCompile(`\b\d{4,5}\s+[A-ZÄÖÜ][A-Za-zÄÖÜäöüß\- ]{2,}\b`), PlaceholderLocation},
	// Street plus house number.
	{regexp.MustCompile(`(?i)\b[A-ZÄÖÜ][A-Za-zÄÖÜäöüß\- ]{2,}(?:straße|strasse|gasse|weg|platz|allee|ring|damm|ufer|promenade)\s+\d+[A-Za-z]?\b`), PlaceholderAddress},
	// Labeled header fields of official letters, label preserved.
	{regexp.MustCompile(`(?im)^(\s*)(name|vorname|nachname|adresse|anschrift|straße|strasse|plz|ort|telefon|tel\.|e-mail|email|iban|kontoinhaber|empfänger|absender)\s*:\s*.*$`), "${1}${2}: " + PlaceholderRedacted},
}

// Redact applies every rule in order and returns the sanitized text.
// The function is pure and idempotent: no placeholder matches any rule, so
// redacting already-redacted text is a no-op.
func Redact(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}
