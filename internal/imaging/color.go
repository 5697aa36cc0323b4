package imaging

import (
	"image"

	"github.com/erazemk/reunite/internal/model"
)

// SampleDominantColor averages the central 50%×50% of img, where the
// photographed object usually is. Returns nil for empty images.
func SampleDominantColor(img image.Image) *model.Color {
	if empty(img) {
		return nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	region := image.Rect(
		b.Min.X+w/4, b.Min.Y+h/4,
		b.Min.X+w/4+max(w/2, 1), b.Min.Y+h/4+max(h/2, 1),
	).Intersect(b)
	if region.Empty() {
		region = b
	}

	var sr, sg, sb, n uint64
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sr += uint64(r >> 8)
			sg += uint64(g >> 8)
			sb += uint64(bl >> 8)
			n++
		}
	}

	return &model.Color{
		R: uint8((sr + n/2) / n),
		G: uint8((sg + n/2) / n),
		B: uint8((sb + n/2) / n),
	}
}
