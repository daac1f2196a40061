package extractorstage

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/e7canasta/distimaging/internal/envelope"
)

func TestRenderAnnotatedDrawsMarkersWithoutChangingDimensions(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	keypoints := []envelope.Keypoint{{X: 10, Y: 10}}
	out, err := renderAnnotated(buf.Bytes(), keypoints)
	if err != nil {
		t.Fatalf("renderAnnotated: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode annotated output: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 20 {
		t.Fatalf("expected dimensions unchanged at 20x20, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	r, g, b, _ := decoded.At(10, 10).RGBA()
	if g == 0 || (r != 0 && b != 0) {
		t.Fatalf("expected a green marker at the keypoint center, got rgb(%d,%d,%d)", r, g, b)
	}
}

func TestRenderAnnotatedRejectsUndecodableImage(t *testing.T) {
	if _, err := renderAnnotated([]byte("not a png"), nil); err == nil {
		t.Fatal("expected an error for an undecodable image")
	}
}

func TestRenderAnnotatedWithNoKeypointsLeavesImageUnchanged(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	out, err := renderAnnotated(buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("renderAnnotated: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty PNG output even with no keypoints")
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode annotated output: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if r, g, b, _ := decoded.At(x, y).RGBA(); r != 0 || g != 0 || b != 0 {
				t.Fatalf("expected pixel (%d,%d) to stay black, got rgb(%d,%d,%d)", x, y, r, g, b)
			}
		}
	}
}
