package imaging

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// DefaultThumbnailSize bounds both sides of a thumbnail.
const DefaultThumbnailSize = 256

// Thumbnail decodes stored image data and returns a JPEG no larger than
// size×size, preserving aspect ratio. Smaller images are re-encoded as is.
func Thumbnail(data []byte, size int) ([]byte, error) {
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	thumb := resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
