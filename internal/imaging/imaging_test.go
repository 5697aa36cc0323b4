package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// pngHeader returns a PNG signature followed by an IHDR chunk declaring a
// w×h 8-bit grayscale image and a single empty IDAT chunk.
func pngHeader(w, h uint32) []byte {
	chunk := func(buf *bytes.Buffer, typ string, data []byte) {
		binary.Write(buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(buf, binary.BigEndian, crc.Sum32())
	}

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	chunk(&buf, "IHDR", ihdr)
	chunk(&buf, "IDAT", nil)
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(100, 100)), MaxDimension)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.MIME)
	assert.NotEmpty(t, result.Data)
	assert.NotNil(t, result.Source, "expected decoded source image")
}

func TestProcessPNG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestPNG(100, 100)), MaxDimension)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.MIME, "always outputs JPEG")
}

func TestProcessDownscale(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(2048, 1024)), 512)
	require.NoError(t, err)

	w, h := decodeSize(t, result.Data)
	assert.Equal(t, 512, w)
	assert.Equal(t, 256, h)
	// The signature source keeps full resolution.
	assert.Equal(t, 2048, result.Source.Bounds().Dx())
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(50, 50)), MaxDimension)
	require.NoError(t, err)

	w, h := decodeSize(t, result.Data)
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")), MaxDimension)
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestProcessTruncatedImage(t *testing.T) {
	data := createTestPNG(40, 40)
	_, err := Process(bytes.NewReader(data[:len(data)/2]), MaxDimension)
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	data := pngHeader(20000, 20000)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err, "header should parse")
	require.Equal(t, 20000, cfg.Width)
	require.Equal(t, 20000, cfg.Height)

	// The header alone must be enough to refuse it; the pixel data is never read.
	_, err = Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrImageDecode)
	assert.ErrorContains(t, err, "exceeds")

	_, err = Process(bytes.NewReader(data), MaxDimension)
	assert.ErrorIs(t, err, ErrImageDecode)

	_, err = Thumbnail(data, 100)
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestDecodeSmallImage(t *testing.T) {
	img, err := Decode(bytes.NewReader(createTestPNG(64, 48)))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestThumbnail(t *testing.T) {
	thumb, err := Thumbnail(createTestPNG(600, 300), 100)
	require.NoError(t, err)

	w, h := decodeSize(t, thumb)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestThumbnailInvalid(t *testing.T) {
	_, err := Thumbnail([]byte("junk"), 100)
	assert.ErrorIs(t, err, ErrImageDecode)
}
