// Package ocr defines the text recognition engine boundary and its
// Tesseract-backed default implementation.
package ocr

import "context"

// Input is one recognition request: an encoded image plus engine tuning.
type Input struct {
	// Image is the encoded image bytes (PNG after normalization).
	Image []byte
	// Languages are recognition language codes, e.g. "deu", "eng".
	Languages []string
	// Variables are engine-specific tuning knobs passed through verbatim.
	Variables map[string]string
}

// Result is the recognized text for one input.
type Result struct {
	Text string
}

// Engine recognizes text from a single image. Implementations must be safe
// for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
