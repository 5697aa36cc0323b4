package imaging

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/model"
)

// gradient returns a w×h grayscale image whose brightness falls (or rises)
// steadily from left to right.
func gradient(w, h int, falling bool) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		v := uint8(x * 255 / (w - 1))
		if falling {
			v = 255 - v
		}
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeHashLength(t *testing.T) {
	img := gradient(170, 90, true)
	for _, grid := range []int{8, 16, 5} {
		h, err := ComputeHash(img, grid)
		require.NoError(t, err, "ComputeHash(%d)", grid)
		assert.Len(t, h, grid*grid, "grid %d", grid)
		assert.Empty(t, strings.Trim(h, "01"), "grid %d: hash contains non-binary characters", grid)
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	img := gradient(123, 77, false)
	first, err := ComputeHash(img, 16)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, _ := ComputeHash(img, 16)
		require.Equal(t, first, again, "hash changed between runs")
	}
}

func TestComputeHashGradients(t *testing.T) {
	falling, err := ComputeHash(gradient(170, 80, true), 8)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("1", 64), falling, "falling gradient")

	rising, _ := ComputeHash(gradient(170, 80, false), 8)
	assert.Equal(t, strings.Repeat("0", 64), rising, "rising gradient")

	flat, _ := ComputeHash(solid(50, 50, color.RGBA{10, 200, 30, 255}), 16)
	assert.Equal(t, strings.Repeat("0", 256), flat, "solid image")
}

func TestComputeHashErrors(t *testing.T) {
	_, err := ComputeHash(gradient(20, 20, true), 0)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	_, err = ComputeHash(image.NewRGBA(image.Rect(0, 0, 0, 10)), 8)
	assert.ErrorIs(t, err, ErrImageDecode, "empty image")

	_, err = ComputeHash(nil, 8)
	assert.ErrorIs(t, err, ErrImageDecode, "nil image")
}

func TestSampleDominantColorCenter(t *testing.T) {
	// Blue frame around a red center: only the center should count.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for x := 0; x < 100; x++ {
		for y := 0; y < 100; y++ {
			c := color.RGBA{0, 0, 255, 255}
			if x >= 25 && x < 75 && y >= 25 && y < 75 {
				c = color.RGBA{200, 20, 10, 255}
			}
			img.Set(x, y, c)
		}
	}

	assert.Equal(t, &model.Color{R: 200, G: 20, B: 10}, SampleDominantColor(img))
}

func TestSampleDominantColorTinyAndEmpty(t *testing.T) {
	assert.Equal(t, &model.Color{R: 1, G: 2, B: 3}, SampleDominantColor(solid(1, 1, color.RGBA{1, 2, 3, 255})))
	assert.Nil(t, SampleDominantColor(image.NewRGBA(image.Rect(0, 0, 0, 0))))
	assert.Nil(t, SampleDominantColor(nil))
}
