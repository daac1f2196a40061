package feature

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/e7canasta/distimaging/internal/envelope"
)

// descriptorCols is the fixed descriptor width the reference extractor
// emits per keypoint: a patch-intensity sample, not a SIFT descriptor.
const descriptorCols = 32

// descriptorTypeUint8 mirrors OpenCV's CV_8U constant (0), which the
// original extractor's descriptor_type field carries verbatim.
const descriptorTypeUint8 = 0

// maxKeypointsDefault bounds the reference extractor's output when the
// configured NFeatures is zero ("auto"), matching cv::SIFT::create's
// convention of 0 meaning "unlimited" in principle but needing a sane
// cap for a toy corner detector.
const maxKeypointsDefault = 500

// Reference is a minimal, dependency-free stand-in for the opaque
// feature-extractor function: a gradient-magnitude corner picker with
// a fixed-width intensity-patch descriptor. It exists so the worker
// has a working default; swapping in a real detector only requires a
// new Extractor, not a change to internal/extractorstage.
type Reference struct {
	tuning Tuning
}

// NewReference builds a Reference extractor from the worker's
// configured FEATURE_EXTRACTOR_SIFT_* tuning knobs.
func NewReference(tuning Tuning) *Reference {
	return &Reference{tuning: tuning}
}

// Extract implements Extractor.
func (r *Reference) Extract(encoded []byte) (Result, error) {
	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	gray := toGray(img)
	candidates := findCorners(gray, r.tuning.ContrastThreshold)

	limit := r.tuning.NFeatures
	if limit <= 0 {
		limit = maxKeypointsDefault
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	keypoints := make([]envelope.Keypoint, len(candidates))
	descriptors := make([]byte, len(candidates)*descriptorCols)
	for i, c := range candidates {
		keypoints[i] = envelope.Keypoint{
			X:        float64(c.x),
			Y:        float64(c.y),
			Size:     r.tuning.EdgeThreshold,
			Angle:    -1,
			Response: c.response,
			Octave:   0,
			ClassID:  -1,
		}
		copy(descriptors[i*descriptorCols:(i+1)*descriptorCols], patchDescriptor(gray, c.x, c.y))
	}

	result := Result{
		Keypoints:      keypoints,
		DescriptorRows: len(candidates),
		DescriptorCols: descriptorCols,
		DescriptorType: descriptorTypeUint8,
	}
	if len(candidates) > 0 {
		result.Descriptors = descriptors
		result.DescriptorElemSize = 1
	}
	return result, nil
}

type corner struct {
	x, y     int
	response float64
}

// findCorners scores every pixel on a coarse grid by its squared
// central-difference gradient magnitude and keeps those above
// threshold squared, sorted strongest first.
// This stays intentionally simple: no CV library is available to build
// a faithful SIFT port from, and a real detector is a drop-in Extractor
// away whenever one is needed.
func findCorners(gray *image.Gray, contrastThreshold float64) []corner {
	bounds := gray.Bounds()
	const stride = 8
	const margin = 1
	threshold := contrastThreshold * 255

	var corners []corner
	for y := bounds.Min.Y + margin; y < bounds.Max.Y-margin; y += stride {
		for x := bounds.Min.X + margin; x < bounds.Max.X-margin; x += stride {
			gx := float64(gray.GrayAt(x+1, y).Y) - float64(gray.GrayAt(x-1, y).Y)
			gy := float64(gray.GrayAt(x, y+1).Y) - float64(gray.GrayAt(x, y-1).Y)
			mag := gx*gx + gy*gy
			if mag <= threshold*threshold {
				continue
			}
			corners = append(corners, corner{x: x, y: y, response: mag})
		}
	}

	sort.Slice(corners, func(i, j int) bool { return corners[i].response > corners[j].response })
	return corners
}

// patchDescriptor samples an 8x4 neighborhood grayscale patch around
// (x, y), producing a fixed descriptorCols-byte descriptor.
func patchDescriptor(gray *image.Gray, x, y int) []byte {
	patch := make([]byte, descriptorCols)
	i := 0
	for dy := -2; dy <= 1; dy++ {
		for dx := -4; dx <= 3; dx++ {
			patch[i] = gray.GrayAt(x+dx, y+dy).Y
			i++
		}
	}
	return patch
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
