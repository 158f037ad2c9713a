package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	got := Redact("Bitte antworten Sie an Max.Mustermann@beispiel.de danke.")
	assert.NotContains(t, got, "@")
	assert.Contains(t, got, PlaceholderContact)
}

func TestRedactPhone(t *testing.T) {
	tests := []string{
		"Rufen Sie uns an: +49 30 2014 3333",
		"Tel 030-123 45 67",
		"call +1 555-123-4567",
	}
	for _, in := range tests {
		got := Redact(in)
		assert.Contains(t, got, PlaceholderContact, "input: %s", in)
	}
}

func TestRedactIBAN(t *testing.T) {
	// The contact rule runs first and consumes the digit run of a bare
	// account number; the country prefix stays, the digits never survive.
	got := Redact("Konto: DE89370400440532013000 bei der Bank.")
	assert.Equal(t, "Konto: DE"+PlaceholderContact+" bei der Bank.", got)
	assert.Equal(t, got, Redact(got))
}

func TestRedactPostalCodeCity(t *testing.T) {
	got := Redact("wohnhaft in 10115 Berlin seit 2020")
	assert.NotContains(t, got, "10115 Berlin")
	assert.Contains(t, got, PlaceholderLocation)
}

func TestRedactStreetAddress(t *testing.T) {
	tests := []string{
		"Musterstraße 12a",
		"Lindenallee 7",
		"Hauptstrasse 101",
	}
	for _, in := range tests {
		got := Redact("Anschrift " + in + " im Brief")
		assert.NotContains(t, got, in)
		assert.Contains(t, got, PlaceholderAddress, "input: %s", in)
	}
}

func TestRedactLabeledFields(t *testing.T) {
	in := "Name: Erika Musterfrau\nAktenzeichen: 12-AB\nIBAN: DE89370400440532013000"
	got := Redact(in)

	assert.Contains(t, got, "Name: "+PlaceholderRedacted)
	assert.Contains(t, got, "IBAN: "+PlaceholderRedacted)
	assert.NotContains(t, got, "Erika")
	// Unlabeled reference numbers survive.
	assert.Contains(t, got, "Aktenzeichen:")
}

func TestRedactEndToEnd(t *testing.T) {
	got := Redact("Hello, my email is a@b.com, call +1 555-123-4567")
	assert.NotContains(t, got, "a@b.com")
	assert.NotContains(t, got, "555-123-4567")
	assert.Equal(t, 2, strings.Count(got, PlaceholderContact))
}

func TestRedactIdempotent(t *testing.T) {
	in := "Name: Erika\nE-Mail: a@b.de\nMusterstraße 12, 10115 Berlin, IBAN DE89370400440532013000, Tel +49 30 901820"
	once := Redact(in)
	twice := Redact(once)
	assert.Equal(t, once, twice)
}

func TestRedactLeavesCleanTextAlone(t *testing.T) {
	in := "Ihr Antrag auf Kindergeld wurde bewilligt. Die Zahlung beginnt im Folgemonat."
	assert.Equal(t, in, Redact(in))
}
