package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzDocument reads PDF text layers and rasterizes pages using MuPDF.
// It implements both TextLayerReader and Rasterizer.
type FitzDocument struct{}

// NewFitzDocument returns the MuPDF-backed PDF adapter.
func NewFitzDocument() *FitzDocument {
	return &FitzDocument{}
}

// ReadText concatenates the embedded text layer of every page.
func (f *FitzDocument) ReadText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("read page %d text: %w", n+1, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Render rasterizes up to maxPages pages as PNG at the given scale factor
// relative to the PDF's native 72 DPI.
func (f *FitzDocument) Render(ctx context.Context, data []byte, maxPages int, scale float64) ([]PageImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	dpi := 72 * scale
	out := make([]PageImage, 0, pages)
	for n := 0; n < pages; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", n+1, err)
		}
		out = append(out, PageImage{Index: n, PNG: buf.Bytes()})
	}
	return out, nil
}
