package feature

import "github.com/e7canasta/distimaging/internal/envelope"

// Fake is a deterministic Extractor for tests: it substitutes a fixed
// set of keypoints instead of running real detection.
type Fake struct {
	// Keypoints is returned verbatim on every call.
	Keypoints []envelope.Keypoint
	// DescriptorCols/ElemSize/Type are echoed into Result alongside a
	// descriptor blob sized len(Keypoints)*DescriptorCols*ElemSize.
	DescriptorCols int
	ElemSize       int
	Type           int
	// Err, if set, is returned instead of a Result (simulates an
	// undecodable image).
	Err error
}

// Extract implements Extractor.
func (f *Fake) Extract(_ []byte) (Result, error) {
	if f.Err != nil {
		return Result{}, f.Err
	}
	cols := f.DescriptorCols
	elemSize := f.ElemSize
	if elemSize == 0 {
		elemSize = 1
	}
	var descriptors []byte
	if len(f.Keypoints) > 0 && cols > 0 {
		descriptors = make([]byte, len(f.Keypoints)*cols*elemSize)
	}
	return Result{
		Keypoints:          f.Keypoints,
		Descriptors:        descriptors,
		DescriptorRows:     len(f.Keypoints),
		DescriptorCols:     cols,
		DescriptorElemSize: elemSize,
		DescriptorType:     f.Type,
	}, nil
}
