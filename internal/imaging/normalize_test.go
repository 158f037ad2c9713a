package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// solidImage returns a w x h image filled with a single color.
func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNormalizeBinarizes(t *testing.T) {
	// Left half dark, right half light: binarization must split them into
	// pure black and pure white.
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				img.Set(x, y, color.Gray{Y: 40})
			} else {
				img.Set(x, y, color.Gray{Y: 220})
			}
		}
	}

	out, err := Normalize(encodePNG(t, img), DefaultParams())
	require.NoError(t, err)

	result := decodePNG(t, out)
	left := color.GrayModel.Convert(result.At(1, 5)).(color.Gray)
	right := color.GrayModel.Convert(result.At(8, 5)).(color.Gray)
	assert.Equal(t, uint8(0), left.Y)
	assert.Equal(t, uint8(255), right.Y)
}

func TestNormalizeDownscales(t *testing.T) {
	wide := solidImage(3600, 1200, color.White)

	out, err := Normalize(encodePNG(t, wide), DefaultParams())
	require.NoError(t, err)

	result := decodePNG(t, out)
	assert.Equal(t, 1800, result.Bounds().Dx())
	assert.Equal(t, 600, result.Bounds().Dy())
}

func TestNormalizeNeverUpscales(t *testing.T) {
	small := solidImage(100, 50, color.White)

	out, err := Normalize(encodePNG(t, small), DefaultParams())
	require.NoError(t, err)

	result := decodePNG(t, out)
	assert.Equal(t, 100, result.Bounds().Dx())
	assert.Equal(t, 50, result.Bounds().Dy())
}

func TestNormalizeRawPassThrough(t *testing.T) {
	// Zero params: decode and re-encode only, colors preserved.
	img := solidImage(4, 4, color.RGBA{R: 200, G: 30, B: 30, A: 255})

	out, err := Normalize(encodePNG(t, img), Params{})
	require.NoError(t, err)

	result := decodePNG(t, out)
	r, g, _, _ := result.At(2, 2).RGBA()
	assert.Greater(t, r>>8, g>>8, "red channel should survive raw pass")
}

func TestNormalizeDecodesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(8, 8, color.White), nil))

	_, err := Normalize(buf.Bytes(), DefaultParams())
	assert.NoError(t, err)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image at all"), DefaultParams())
	assert.Error(t, err)
}

func TestRetryVariantsEndWithRaw(t *testing.T) {
	variants := RetryVariants()
	require.Len(t, variants, 3)
	last := variants[len(variants)-1]
	assert.Zero(t, last.Threshold)
	assert.Zero(t, last.MaxDimension)
}
