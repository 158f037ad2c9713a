// Package extract orchestrates text extraction from uploaded documents:
// plain text pass-through, PDF text layer with OCR fallback, and direct
// image OCR with a preprocessing retry ladder.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/imaging"
	"github.com/klarpost/klarpost/internal/observability"
	"github.com/klarpost/klarpost/internal/ocr"
)

// PageImage is one rasterized PDF page, PNG-encoded, in document order.
type PageImage struct {
	Index int
	PNG   []byte
}

// TextLayerReader reads the embedded text layer of a PDF.
type TextLayerReader interface {
	ReadText(data []byte) (string, error)
}

// Rasterizer renders PDF pages to images for recognition.
type Rasterizer interface {
	Render(ctx context.Context, data []byte, maxPages int, scale float64) ([]PageImage, error)
}

// Progress reports pipeline advancement in [0,1] with a coarse stage label.
type Progress struct {
	Stage    string
	Fraction float64
}

// ProgressFunc receives progress updates. May be nil.
type ProgressFunc func(Progress)

// Options tunes the extraction pipeline.
type Options struct {
	// TextLayerMinChars is the minimum non-whitespace character count for a
	// PDF text layer to be trusted without OCR.
	TextLayerMinChars int
	// MaxOCRPages caps how many PDF pages are rasterized for OCR.
	MaxOCRPages int
	// RenderScale is the rasterization scale relative to 72 DPI.
	RenderScale float64
	// MaxImageDimension caps the longer edge during normalization. Zero keeps
	// the preprocessing ladder's built-in cap.
	MaxImageDimension int
	// Languages are the recognition languages passed to the engine.
	Languages []string
	// PageWorkers bounds concurrent page recognition within one attempt.
	PageWorkers int
	// AttemptTimeout bounds one full recognition attempt. Zero disables it.
	AttemptTimeout time.Duration
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		TextLayerMinChars: 80,
		MaxOCRPages:       5,
		RenderScale:       2.0,
		MaxImageDimension: 1800,
		Languages:         []string{"deu", "eng"},
		PageWorkers:       1,
	}
}

// Service runs the extraction pipeline.
type Service struct {
	reader TextLayerReader
	raster Rasterizer
	engine ocr.Engine
	opts   Options
	logger *observability.Logger
}

// NewService wires the extraction pipeline from its collaborators.
func NewService(reader TextLayerReader, raster Rasterizer, engine ocr.Engine, opts Options, logger *observability.Logger) *Service {
	if opts.PageWorkers < 1 {
		opts.PageWorkers = 1
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		reader: reader,
		raster: raster,
		engine: engine,
		opts:   opts,
		logger: logger.WithComponent("extract"),
	}
}

// Extract resolves the document's media kind and runs the matching strategy.
// The returned text is normalized and guaranteed non-empty; an empty outcome
// surfaces as a no-text-recognized error with upload guidance.
func (s *Service) Extract(ctx context.Context, doc domain.UploadedDocument, onProgress ProgressFunc) (string, error) {
	report := monotonic(onProgress)
	report(Progress{Stage: "detect", Fraction: 0.02})

	kind := doc.Kind()
	s.logger.WithContext(ctx).Debug().
		Str("kind", kind.String()).
		Str("filename", doc.Filename).
		Int("bytes", len(doc.Data)).
		Msg("extraction started")

	var (
		text string
		err  error
	)
	switch kind {
	case domain.MediaPlainText:
		text, err = s.extractPlainText(doc.Data, report)
	case domain.MediaPDF:
		text, err = s.extractPDF(ctx, doc.Data, report)
	case domain.MediaImage:
		text, err = s.extractImage(ctx, doc.Data, report)
	default:
		return "", domain.UnsupportedFormatError(
			fmt.Sprintf("unsupported upload; please send %s", domain.AcceptedKinds), nil)
	}
	if err != nil {
		return "", err
	}

	if utf8.RuneCountInString(text) > domain.MaxTextChars {
		return "", domain.InputTooLargeError(
			fmt.Sprintf("document text exceeds %d characters", domain.MaxTextChars), nil)
	}

	report(Progress{Stage: "done", Fraction: 1.0})
	return text, nil
}

func (s *Service) extractPlainText(data []byte, report ProgressFunc) (string, error) {
	text := normalizeText(string(data))
	if text == "" {
		return "", domain.NoTextRecognizedError("the file contains no readable text", nil)
	}
	report(Progress{Stage: "text", Fraction: 0.9})
	return text, nil
}

func (s *Service) extractPDF(ctx context.Context, data []byte, report ProgressFunc) (string, error) {
	layer, err := s.reader.ReadText(data)
	if err != nil {
		return "", domain.UnsupportedFormatError("the PDF could not be opened", err)
	}
	report(Progress{Stage: "text-layer", Fraction: 0.15})

	if nonWhitespaceCount(layer) >= s.opts.TextLayerMinChars {
		s.logger.WithContext(ctx).Debug().Msg("pdf text layer accepted")
		return normalizeText(layer), nil
	}

	s.logger.WithContext(ctx).Debug().
		Int("layer_chars", nonWhitespaceCount(layer)).
		Msg("pdf text layer too sparse, falling back to recognition")

	pages, err := s.raster.Render(ctx, data, s.opts.MaxOCRPages, s.opts.RenderScale)
	if err != nil {
		return "", domain.UnsupportedFormatError("the PDF pages could not be rendered", err)
	}
	report(Progress{Stage: "render", Fraction: 0.25})

	return s.recognize(ctx, pages, report)
}

func (s *Service) extractImage(ctx context.Context, data []byte, report ProgressFunc) (string, error) {
	report(Progress{Stage: "prepare", Fraction: 0.1})
	return s.recognize(ctx, []PageImage{{Index: 0, PNG: data}}, report)
}

// recognize runs the preprocessing ladder over all pages: each attempt
// normalizes every page with one parameter set, recognizes them, and accepts
// the first attempt that yields any text. The final attempt uses the raw
// decoded image with no preprocessing.
func (s *Service) recognize(ctx context.Context, pages []PageImage, report ProgressFunc) (string, error) {
	variants := s.ocrVariants()
	total := len(variants) * len(pages)

	// pageDone runs on worker goroutines.
	var mu sync.Mutex
	completed := 0
	pageDone := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		report(Progress{Stage: "recognize", Fraction: 0.25 + 0.7*float64(completed)/float64(total)})
	}

	for attempt, params := range variants {
		text, err := s.recognizeAttempt(ctx, pages, params, pageDone)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.WithContext(ctx).Warn().
				Int("attempt", attempt+1).
				Err(err).
				Msg("recognition attempt failed")
			continue
		}
		if text != "" {
			s.logger.WithContext(ctx).Debug().
				Int("attempt", attempt+1).
				Int("chars", utf8.RuneCountInString(text)).
				Msg("recognition succeeded")
			return text, nil
		}
	}

	return "", domain.NoTextRecognizedError(
		"no text could be recognized; try a sharper photo taken straight-on in good light, or upload the original PDF", nil)
}

// ocrVariants returns the preprocessing ladder, with the configured dimension
// cap applied to every preprocessing attempt. The final raw attempt stays
// untouched.
func (s *Service) ocrVariants() []imaging.Params {
	variants := append([]imaging.Params{imaging.DefaultParams()}, imaging.RetryVariants()...)
	if s.opts.MaxImageDimension > 0 {
		for i := range variants {
			if variants[i] != (imaging.Params{}) {
				variants[i].MaxDimension = s.opts.MaxImageDimension
			}
		}
	}
	return variants
}

// recognizeAttempt processes all pages with one parameter set. Pages run
// concurrently up to PageWorkers; output order follows document order.
func (s *Service) recognizeAttempt(ctx context.Context, pages []PageImage, params imaging.Params, pageDone func()) (string, error) {
	if s.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AttemptTimeout)
		defer cancel()
	}

	results := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.PageWorkers)

	for i, page := range pages {
		g.Go(func() error {
			prepared, err := imaging.Normalize(page.PNG, params)
			if err != nil {
				return fmt.Errorf("prepare page %d: %w", page.Index+1, err)
			}
			res, err := s.engine.Recognize(gctx, ocr.Input{
				Image:     prepared,
				Languages: s.opts.Languages,
			})
			if err != nil {
				return fmt.Errorf("recognize page %d: %w", page.Index+1, err)
			}
			results[i] = res.Text
			pageDone()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var parts []string
	for _, r := range results {
		if r != "" {
			parts = append(parts, r)
		}
	}
	return normalizeText(strings.Join(parts, "\n\n")), nil
}

// normalizeText unifies line endings and trims surrounding whitespace.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// nonWhitespaceCount counts the characters that remain after removing all
// whitespace. Used as the text layer density measure.
func nonWhitespaceCount(s string) int {
	count := 0
	for _, f := range strings.Fields(s) {
		count += utf8.RuneCountInString(f)
	}
	return count
}

// monotonic wraps a progress callback so reported fractions never decrease.
func monotonic(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(Progress) {}
	}
	var high float64
	return func(p Progress) {
		if p.Fraction < high {
			p.Fraction = high
		} else {
			high = p.Fraction
		}
		fn(p)
	}
}
