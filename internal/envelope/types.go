// Package envelope defines the JSON header schemas that ride on the
// upstream and downstream multipart buses, plus the 50 MiB envelope
// size cap both the worker and the caller-side checks share.
package envelope

import "encoding/json"

// MaxEnvelopeBytes is the size cap enforced before any transmit: the sum
// of descriptor + image + annotated bytes (or, for the upstream side,
// just the encoded image) must not exceed this or the envelope is
// dropped with a warning.
const MaxEnvelopeBytes = 50 * 1024 * 1024

// Encoding is the only image codec this pipeline speaks end to end.
const Encoding = "png"

// UpstreamHeader is the first part of the producer → worker envelope.
type UpstreamHeader struct {
	FrameID        uint64 `json:"frame_id"`
	LoopIteration  uint64 `json:"loop_iteration"`
	Timestamp      string `json:"timestamp"`
	Filename       string `json:"filename"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Channels       int    `json:"channels"`
	Encoding       string `json:"encoding"`
	Bytes          int    `json:"bytes"`
}

// Keypoint mirrors one cv::KeyPoint-shaped entry in the extractor's
// output; field names match the wire contract the feature-extractor
// function returns.
type Keypoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Angle    float64 `json:"angle"`
	Response float64 `json:"response"`
	Octave   int     `json:"octave"`
	ClassID  int     `json:"class_id"`
}

// DownstreamHeader is the first part of the worker → sink envelope. The
// upstream header is nested verbatim under Source so the sink can
// recover every original field.
type DownstreamHeader struct {
	// Source is the original upstream header, nested verbatim. It is
	// carried as raw JSON (rather than re-decoded into UpstreamHeader
	// and re-encoded) so an older/newer producer's extra or missing
	// fields survive the worker hop untouched.
	Source             json.RawMessage `json:"source"`
	ProcessedTimestamp string          `json:"processed_timestamp"`
	KeypointCount      uint64          `json:"keypoint_count"`
	DescriptorRows     int             `json:"descriptor_rows"`
	DescriptorCols     int             `json:"descriptor_cols"`
	DescriptorElemSize int             `json:"descriptor_elem_size"`
	DescriptorType     int             `json:"descriptor_type"`
	DescriptorsBytes   int             `json:"descriptors_bytes"`
	AnnotatedBytes     int             `json:"annotated_bytes"`
	Keypoints          []Keypoint      `json:"keypoints"`
	// AnnotatedPath is absent from the header as emitted by the worker;
	// the sink augments it in place after a successful annotated write.
	AnnotatedPath string `json:"annotated_path,omitempty"`
}
