// Package imaging prepares raster input for text recognition: decode,
// downscale, grayscale, contrast stretch, and binarize.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Params controls one normalization attempt. The zero value is not useful;
// use DefaultParams or one of the retry variants.
type Params struct {
	// MaxDimension caps the longer image edge; larger input is downscaled.
	MaxDimension int
	// Threshold is the binarization cutoff on the 0-255 gray scale.
	// Zero disables binarization and keeps the grayscale image.
	Threshold int
	// Contrast is the multiplier applied around the mid-gray pivot.
	// Values <= 0 are treated as 1.0 (no change).
	Contrast float64
}

// DefaultParams is the first normalization attempt of the recognition ladder.
func DefaultParams() Params {
	return Params{MaxDimension: 1800, Threshold: 175, Contrast: 1.25}
}

// RetryVariants returns the remaining attempts, mildest last. The final
// empty Params means raw decode with no preprocessing at all.
func RetryVariants() []Params {
	return []Params{
		{MaxDimension: 1800, Threshold: 150, Contrast: 1.10},
		{MaxDimension: 1800, Threshold: 200, Contrast: 1.35},
		{},
	}
}

// Normalize decodes data and applies the preprocessing described by p,
// returning the result re-encoded as PNG. With zero-value Params the image
// is decoded and re-encoded untouched.
func Normalize(data []byte, p Params) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if p.MaxDimension > 0 {
		img = downscale(img, p.MaxDimension)
	}
	if p.Contrast > 0 || p.Threshold > 0 {
		img = grayscale(img, p.Contrast)
	}
	if p.Threshold > 0 {
		img = binarize(img.(*image.Gray), p.Threshold)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// decode tries the registered decoders first and falls back to the explicit
// ones for formats whose magic bytes image.Decode may not recognize.
func decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := png.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := bmp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := tiff.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("unrecognized image data")
}

// downscale shrinks img so its longer edge is at most maxDim. Images already
// within bounds are returned unchanged; upscaling is never performed.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(longer)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// grayscale converts img to 8-bit gray using ITU-R BT.601 luma weights and
// applies a contrast stretch around the mid-gray pivot.
func grayscale(img image.Image, contrast float64) *image.Gray {
	if contrast <= 0 {
		contrast = 1.0
	}

	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			v := (luma-128)*contrast + 128
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: clampByte(v)})
		}
	}
	return out
}

// binarize maps every pixel at or above threshold to white and the rest to
// black. The input is modified in place.
func binarize(img *image.Gray, threshold int) *image.Gray {
	for i, v := range img.Pix {
		if int(v) >= threshold {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
	return img
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
