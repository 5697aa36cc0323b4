package imaging

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// ErrInvalidGrid is returned for non-positive grid sizes.
var ErrInvalidGrid = errors.New("grid size must be positive")

// ComputeHash returns the difference hash of img as a string of grid*grid
// '0'/'1' characters. The image is resampled to (grid+1)×grid; each bit is
// 1 when a pixel is brighter than its right neighbour.
func ComputeHash(img image.Image, grid int) (string, error) {
	if grid <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidGrid, grid)
	}
	if empty(img) {
		return "", fmt.Errorf("%w: zero dimensions", ErrImageDecode)
	}

	w := grid + 1
	dst := image.NewRGBA(image.Rect(0, 0, w, grid))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sb strings.Builder
	sb.Grow(grid * grid)
	for y := 0; y < grid; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < grid; x++ {
			if luminance(row[x*4:]) > luminance(row[(x+1)*4:]) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String(), nil
}

// luminance applies the Rec. 601 weights to an RGBA pixel.
func luminance(px []uint8) float64 {
	return 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
}
