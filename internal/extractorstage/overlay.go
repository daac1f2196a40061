package extractorstage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/e7canasta/distimaging/internal/envelope"
)

// overlayMarkerRadius bounds the cross drawn at each keypoint.
const overlayMarkerRadius = 4

// renderAnnotated decodes the canonical PNG payload, draws a small
// cross at every keypoint's (x, y) onto a copy, and re-encodes to PNG,
// standing in for the original's cv::drawKeypoints call. No
// image-drawing library is available, so this stays on stdlib
// primitives rather than reaching for a dependency for a purely
// cosmetic feature.
func renderAnnotated(payload []byte, keypoints []envelope.Keypoint) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}

	marker := color.RGBA{R: 0, G: 255, B: 0, A: 255}
	for _, kp := range keypoints {
		drawCross(dst, int(kp.X), int(kp.Y), overlayMarkerRadius, marker)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawCross(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	bounds := img.Bounds()
	for dx := -radius; dx <= radius; dx++ {
		setIfInBounds(img, bounds, cx+dx, cy, c)
	}
	for dy := -radius; dy <= radius; dy++ {
		setIfInBounds(img, bounds, cx, cy+dy, c)
	}
}

func setIfInBounds(img *image.RGBA, bounds image.Rectangle, x, y int, c color.RGBA) {
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	img.Set(x, y, c)
}
