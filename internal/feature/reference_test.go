package feature

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// verticalEdgePNG produces an image split by a single sharp vertical
// edge at column edgeX: columns left of it are white, at and right of
// it are black. The coarse corner grid samples columns at
// margin, margin+stride, margin+2*stride, ... so edgeX is chosen to
// land squarely on one of those sample columns.
func verticalEdgePNG(t *testing.T, size, edgeX int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x < edgeX {
				img.SetGray(x, y, color.Gray{Y: 255})
			} else {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestReferenceExtractFindsKeypointsAcrossASharpEdge(t *testing.T) {
	r := NewReference(Tuning{NFeatures: 0, ContrastThreshold: 0.04, EdgeThreshold: 10})
	result, err := r.Extract(verticalEdgePNG(t, 32, 17))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keypoints) == 0 {
		t.Fatal("expected at least one keypoint at the high-contrast edge")
	}
	if result.DescriptorCols != descriptorCols {
		t.Fatalf("expected descriptor width %d, got %d", descriptorCols, result.DescriptorCols)
	}
	if len(result.Descriptors) != result.DescriptorRows*result.DescriptorCols {
		t.Fatalf("descriptor blob size mismatch: got %d bytes for %d rows", len(result.Descriptors), result.DescriptorRows)
	}
}

func TestReferenceExtractRespectsNFeaturesLimit(t *testing.T) {
	r := NewReference(Tuning{NFeatures: 1, ContrastThreshold: 0.04, EdgeThreshold: 10})
	result, err := r.Extract(verticalEdgePNG(t, 64, 33))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keypoints) > 1 {
		t.Fatalf("expected at most 1 keypoint, got %d", len(result.Keypoints))
	}
}

func TestReferenceExtractFlatImageHasNoKeypoints(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test PNG: %v", err)
	}

	r := NewReference(Tuning{ContrastThreshold: 0.04, EdgeThreshold: 10})
	result, err := r.Extract(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Keypoints) != 0 {
		t.Fatalf("expected no keypoints on a flat image, got %d", len(result.Keypoints))
	}
	if result.Descriptors != nil {
		t.Fatal("expected nil descriptor blob when there are no keypoints")
	}
}

func TestReferenceExtractRejectsUndecodableImage(t *testing.T) {
	r := NewReference(Tuning{})
	if _, err := r.Extract([]byte("not a png")); err == nil {
		t.Fatal("expected an error for an undecodable image")
	}
}
