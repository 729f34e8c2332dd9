package imaging

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// maxWidth bounds the stored image; aspect ratio is preserved and
	// smaller images are never enlarged.
	maxWidth = 1200

	jpegQuality = 80
)

// Compress re-encodes a receipt photo for storage: resized to at most
// maxWidth pixels wide and converted to JPEG.
func Compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("Compress: decode image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("Compress: encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
