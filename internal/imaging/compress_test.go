package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	lib "github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestCompress_ResizesWideImages(t *testing.T) {
	out, err := Compress(encodePNG(t, 2400, 600))
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	decoded, err := lib.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != maxWidth {
		t.Errorf("output width = %d, want %d", got, maxWidth)
	}
	// Aspect ratio preserved: 2400x600 -> 1200x300.
	if got := decoded.Bounds().Dy(); got != 300 {
		t.Errorf("output height = %d, want 300", got)
	}
}

func TestCompress_NeverEnlarges(t *testing.T) {
	out, err := Compress(encodePNG(t, 640, 480))
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	decoded, err := lib.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != 640 {
		t.Errorf("output width = %d, want 640 (unchanged)", got)
	}
}

func TestCompress_OutputIsJPEG(t *testing.T) {
	out, err := Compress(encodePNG(t, 100, 100))
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output config: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}
}

func TestCompress_RejectsGarbage(t *testing.T) {
	if _, err := Compress([]byte("not an image")); err == nil {
		t.Error("Compress() accepted non-image bytes")
	}
}
