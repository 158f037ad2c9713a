package extract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/imaging"
	"github.com/klarpost/klarpost/internal/ocr"
)

// fakeEngine returns canned texts in call order and records call count.
type fakeEngine struct {
	texts []string
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ ocr.Input) (ocr.Result, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.texts) {
		return ocr.Result{Text: f.texts[idx]}, nil
	}
	return ocr.Result{}, nil
}

// fakeReader returns a fixed text layer.
type fakeReader struct {
	text string
	err  error
}

func (f *fakeReader) ReadText(_ []byte) (string, error) { return f.text, f.err }

// spyRasterizer records whether rendering happened.
type spyRasterizer struct {
	pages  []PageImage
	called bool
}

func (s *spyRasterizer) Render(_ context.Context, _ []byte, _ int, _ float64) ([]PageImage, error) {
	s.called = true
	return s.pages, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(1, 1, color.Gray{Y: 0})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(reader TextLayerReader, raster Rasterizer, engine ocr.Engine) *Service {
	return NewService(reader, raster, engine, DefaultOptions(), nil)
}

func TestOCRVariantsApplyDimensionCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxImageDimension = 900
	svc := NewService(&fakeReader{}, &spyRasterizer{}, &fakeEngine{}, opts, nil)

	variants := svc.ocrVariants()
	require.Len(t, variants, 4)
	for _, v := range variants[:3] {
		assert.Equal(t, 900, v.MaxDimension)
	}
	assert.Equal(t, imaging.Params{}, variants[3], "the raw attempt stays unprocessed")
}

func TestExtractPlainText(t *testing.T) {
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, &fakeEngine{})

	text, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("  Sehr geehrte Damen und Herren,\r\nhiermit...  "),
		DeclaredType: "text/plain",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Sehr geehrte Damen und Herren,\nhiermit...", text)
}

func TestExtractPlainTextEmpty(t *testing.T) {
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, &fakeEngine{})

	_, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("   \n\t  "),
		DeclaredType: "text/plain",
	}, nil)

	assert.Equal(t, domain.KindNoTextRecognized, domain.KindOf(err))
}

func TestExtractUnsupported(t *testing.T) {
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, &fakeEngine{})

	_, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("x"),
		DeclaredType: "application/zip",
	}, nil)

	assert.Equal(t, domain.KindUnsupportedFormat, domain.KindOf(err))
}

func TestPDFTextLayerAcceptedWithoutRasterizing(t *testing.T) {
	layer := strings.Repeat("Bescheid ", 20) // well above the density floor
	raster := &spyRasterizer{}
	svc := newTestService(&fakeReader{text: layer}, raster, &fakeEngine{})

	text, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("%PDF-"),
		DeclaredType: "application/pdf",
	}, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.False(t, raster.called, "text layer above the floor must skip rendering")
}

func TestPDFSparseLayerFallsBackToRecognition(t *testing.T) {
	raster := &spyRasterizer{pages: []PageImage{{Index: 0, PNG: tinyPNG(t)}}}
	engine := &fakeEngine{texts: []string{"Ihr Antrag wurde bewilligt."}}
	svc := newTestService(&fakeReader{text: "Seite 1"}, raster, engine)

	text, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("%PDF-"),
		DeclaredType: "application/pdf",
	}, nil)

	require.NoError(t, err)
	assert.True(t, raster.called)
	assert.Equal(t, "Ihr Antrag wurde bewilligt.", text)
	assert.Equal(t, 1, engine.calls, "first attempt succeeded, no retries expected")
}

func TestImageRetryLadderStopsOnSuccess(t *testing.T) {
	// First two attempts yield nothing; the third succeeds. The fourth
	// (raw) variant must not run.
	engine := &fakeEngine{texts: []string{"", "", "Kindergeld wird gezahlt."}}
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, engine)

	text, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         tinyPNG(t),
		DeclaredType: "image/png",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Kindergeld wird gezahlt.", text)
	assert.Equal(t, 3, engine.calls)
}

func TestImageAllVariantsEmpty(t *testing.T) {
	engine := &fakeEngine{}
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, engine)

	_, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         tinyPNG(t),
		DeclaredType: "image/png",
	}, nil)

	assert.Equal(t, domain.KindNoTextRecognized, domain.KindOf(err))
	assert.Equal(t, 4, engine.calls, "all four variants must be attempted")
}

func TestExtractTooLarge(t *testing.T) {
	huge := strings.Repeat("a", domain.MaxTextChars+1)
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, &fakeEngine{})

	_, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte(huge),
		DeclaredType: "text/plain",
	}, nil)

	assert.Equal(t, domain.KindInputTooLarge, domain.KindOf(err))
}

func TestProgressIsMonotonic(t *testing.T) {
	engine := &fakeEngine{texts: []string{"", "", "", ""}}
	svc := newTestService(&fakeReader{}, &spyRasterizer{}, engine)

	var fractions []float64
	_, _ = svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         tinyPNG(t),
		DeclaredType: "image/png",
	}, func(p Progress) {
		fractions = append(fractions, p.Fraction)
	})

	require.NotEmpty(t, fractions)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
}

func TestMultiPageOrderPreserved(t *testing.T) {
	raster := &spyRasterizer{pages: []PageImage{
		{Index: 0, PNG: tinyPNG(t)},
		{Index: 1, PNG: tinyPNG(t)},
	}}
	engine := &fakeEngine{texts: []string{"Seite eins Inhalt.", "Seite zwei Inhalt."}}
	svc := newTestService(&fakeReader{text: ""}, raster, engine)

	text, err := svc.Extract(context.Background(), domain.UploadedDocument{
		Data:         []byte("%PDF-"),
		DeclaredType: "application/pdf",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Seite eins Inhalt.\n\nSeite zwei Inhalt.", text)
}

func TestNonWhitespaceCount(t *testing.T) {
	assert.Equal(t, 0, nonWhitespaceCount("  \n\t "))
	assert.Equal(t, 10, nonWhitespaceCount("ab cd ef gh ij"))
	assert.Equal(t, 4, nonWhitespaceCount("üöäß"))
}
