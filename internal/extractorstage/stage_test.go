package extractorstage

import (
	"encoding/json"
	"testing"

	"github.com/e7canasta/distimaging/internal/envelope"
	"github.com/e7canasta/distimaging/internal/feature"
)

func TestBuildDownstreamNestsSourceHeaderVerbatim(t *testing.T) {
	sourceHeader := []byte(`{"frame_id":3,"filename":"a.png","future_field":"kept"}`)
	fake := &feature.Fake{
		Keypoints: []envelope.Keypoint{
			{X: 1, Y: 2, Size: 10, Angle: -1, Response: 0.5, Octave: 0, ClassID: -1},
			{X: 3, Y: 4, Size: 10, Angle: -1, Response: 0.4, Octave: 0, ClassID: -1},
		},
		DescriptorCols: 32,
	}
	result, err := fake.Extract(nil)
	if err != nil {
		t.Fatalf("fake extract: %v", err)
	}

	parts, totalBytes, err := buildDownstream(sourceHeader, []byte("image-bytes"), result, nil)
	if err != nil {
		t.Fatalf("buildDownstream: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts without an annotated overlay, got %d", len(parts))
	}
	if totalBytes != len(result.Descriptors)+len("image-bytes") {
		t.Fatalf("unexpected totalBytes %d", totalBytes)
	}

	fields, err := envelope.ParseFields(parts[0])
	if err != nil {
		t.Fatalf("parse built header: %v", err)
	}
	source := fields.Object("source")
	if got := source.Int("frame_id", -1); got != 3 {
		t.Fatalf("expected nested source frame_id 3, got %d", got)
	}
	if got := source.String("future_field", ""); got != "kept" {
		t.Fatal("expected unknown upstream fields to survive the worker hop verbatim")
	}
	if got := fields.Uint64("keypoint_count", 0); got != 2 {
		t.Fatalf("expected keypoint_count 2, got %d", got)
	}
	if got := fields.Int("descriptor_rows", -1); got != 2 {
		t.Fatalf("expected descriptor_rows to equal keypoint count, got %d", got)
	}
	if got := fields.Int("descriptors_bytes", -1); got != 2*32 {
		t.Fatalf("expected descriptors_bytes = rows*cols*elem_size = 64, got %d", got)
	}
	if string(parts[2]) != "image-bytes" {
		t.Fatal("expected the upstream image payload echoed as part 3")
	}
}

func TestBuildDownstreamAppendsAnnotatedPartOnlyWhenNonEmpty(t *testing.T) {
	result, err := (&feature.Fake{}).Extract(nil)
	if err != nil {
		t.Fatalf("fake extract: %v", err)
	}

	parts, _, err := buildDownstream([]byte(`{}`), []byte("img"), result, []byte("overlay"))
	if err != nil {
		t.Fatalf("buildDownstream: %v", err)
	}
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts with an annotated overlay, got %d", len(parts))
	}
	if string(parts[3]) != "overlay" {
		t.Fatal("expected the overlay bytes as the fourth part")
	}

	parts, _, err = buildDownstream([]byte(`{}`), []byte("img"), result, nil)
	if err != nil {
		t.Fatalf("buildDownstream: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts with no overlay, got %d", len(parts))
	}
	var header envelope.DownstreamHeader
	if err := json.Unmarshal(parts[0], &header); err != nil {
		t.Fatalf("unmarshal built header: %v", err)
	}
	if header.AnnotatedBytes != 0 {
		t.Fatalf("expected annotated_bytes 0 with no overlay, got %d", header.AnnotatedBytes)
	}
}

func TestBuildDownstreamEmptyDescriptorsKeepShapeFieldsZero(t *testing.T) {
	result, err := (&feature.Fake{}).Extract(nil)
	if err != nil {
		t.Fatalf("fake extract: %v", err)
	}

	parts, _, err := buildDownstream([]byte(`{}`), []byte("img"), result, nil)
	if err != nil {
		t.Fatalf("buildDownstream: %v", err)
	}
	fields, err := envelope.ParseFields(parts[0])
	if err != nil {
		t.Fatalf("parse built header: %v", err)
	}
	if got := fields.Int("descriptors_bytes", -1); got != 0 {
		t.Fatalf("expected descriptors_bytes 0 for an empty blob, got %d", got)
	}
	if len(parts[1]) != 0 {
		t.Fatal("expected an empty descriptors part for a keypoint-free frame")
	}
}
