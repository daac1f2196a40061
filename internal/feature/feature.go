// Package feature defines the feature-extractor contract the worker
// calls into. The interface has exactly one operation so any
// SIFT-equivalent implementation — or, in tests, a fixed-output fake —
// can be swapped in without touching internal/extractorstage.
package feature

import "github.com/e7canasta/distimaging/internal/envelope"

// Tuning carries the opaque SIFT-style knobs surfaced verbatim from
// config; the interface treats their meaning as entirely up to the
// implementation.
type Tuning struct {
	NFeatures         int
	ContrastThreshold float64
	EdgeThreshold     float64
}

// Result is the decode-and-extract outcome for one image.
type Result struct {
	Keypoints          []envelope.Keypoint
	Descriptors        []byte
	DescriptorRows     int
	DescriptorCols     int
	DescriptorElemSize int
	DescriptorType     int
}

// Extractor decodes an encoded image and returns its keypoints and
// descriptor blob, or an error if the image cannot be decoded.
type Extractor interface {
	Extract(image []byte) (Result, error)
}
