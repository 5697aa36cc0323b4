// Package imaging decodes item photos and derives their perceptual
// signatures: a difference hash over a luminance grid and the average color
// of the photo's center.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrImageDecode is returned when image bytes cannot be decoded or the
// decoded image has no pixels.
var ErrImageDecode = errors.New("image decode failed")

// MaxDimension is the default maximum width or height for stored images.
const MaxDimension = 1024

// MaxPixels caps the decoded size of an image. Compressed formats can
// expand a small upload into gigabytes of pixels.
const MaxPixels = 40_000_000

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProcessResult contains the processed image data and the decoded source
// the signature should be computed from.
type ProcessResult struct {
	Data   []byte
	MIME   string
	Source image.Image
}

// Decode decodes an image, wrapping any failure in ErrImageDecode. Images
// whose header declares more than MaxPixels pixels are rejected before any
// pixel data is decoded.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrImageDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageDecode, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if empty(img) {
		return nil, fmt.Errorf("%w: zero dimensions", ErrImageDecode)
	}
	return img, nil
}

// Process reads image data, validates the format by sniffing bytes,
// downscales if larger than maxDim, and re-encodes as JPEG.
func Process(r io.Reader, maxDim int) (*ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: unsupported image format %s", ErrImageDecode, detected)
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if maxDim <= 0 {
		maxDim = MaxDimension
	}
	scaled := downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &ProcessResult{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Source: img,
	}, nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func empty(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}
