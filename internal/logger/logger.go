// Package logger implements the sink stage: receive downstream
// envelopes, write raw/annotated images, and record one durable row
// per frame.
package logger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envelope"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/msgbus"
	"github.com/e7canasta/distimaging/internal/shutdown"
	"github.com/e7canasta/distimaging/internal/store"
)

const waitingLogInterval = 5 * time.Second

// Run creates the sink's output directories, opens the durable store,
// and drives the receive/persist loop until shutdown.
func Run(h *shutdown.Handle, cfg config.Logger, log *slog.Logger) error {
	for _, dir := range []string{cfg.RawImageDir, cfg.AnnotatedDir, filepath.Dir(cfg.DBPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open durable store: %w", err)
	}
	defer db.Close()
	log.Info("opened durable store", "path", cfg.DBPath)

	sub, err := msgbus.ConnectSubscriber(h, cfg.SubEndpoint)
	if err != nil {
		return fmt.Errorf("connect downstream bus: %w", err)
	}
	defer sub.Close()
	log.Info("connected to downstream bus", "endpoint", cfg.SubEndpoint)

	var lastWaitingLog time.Time

	for h.Running() {
		parts, recvErr, timedOut := sub.Recv(3)
		if timedOut {
			if time.Since(lastWaitingLog) >= waitingLogInterval {
				log.Info("waiting for downstream frames")
				lastWaitingLog = time.Now()
			}
			continue
		}
		if recvErr != nil {
			log.Warn("malformed downstream envelope", "error", recvErr)
			continue
		}

		processFrame(parts, cfg, db, log)
	}

	return nil
}

func processFrame(parts [][]byte, cfg config.Logger, db *store.Store, log *slog.Logger) {
	fields, err := envelope.ParseFields(parts[0])
	if err != nil {
		log.Warn("malformed downstream header; dropping frame", "error", err)
		return
	}

	source := fields.Object("source")
	frameID := source.Int("frame_id", -1)
	loopIteration := source.Int("loop_iteration", 0)
	processedTimestamp := fields.String("processed_timestamp", envlog.NowISO8601())

	descriptors := parts[1]
	rawImage := parts[2]
	var annotatedImage []byte
	if len(parts) >= 4 {
		annotatedImage = parts[3]
	}

	paddedFrameID := frameID
	if paddedFrameID < 0 {
		paddedFrameID = 0
	}
	sanitizedTS := sanitizeFilename(processedTimestamp)
	rawFilename := fmt.Sprintf("frame_%06d_%s.png", paddedFrameID, sanitizedTS)

	rawPath := filepath.Join(cfg.RawImageDir, rawFilename)
	if err := os.WriteFile(rawPath, rawImage, 0o644); err != nil {
		log.Error("write raw image failed; skipping frame", "frame_id", frameID, "path", rawPath, "error", err)
		return
	}

	metadataJSON := parts[0]
	var annotatedPath string
	if len(annotatedImage) > 0 {
		annotatedFilename := fmt.Sprintf("frame_%06d_%s_annotated.png", paddedFrameID, sanitizedTS)
		candidate := filepath.Join(cfg.AnnotatedDir, annotatedFilename)
		if err := os.WriteFile(candidate, annotatedImage, 0o644); err != nil {
			log.Warn("write annotated image failed; continuing without it", "frame_id", frameID, "path", candidate, "error", err)
		} else {
			annotatedPath = candidate
			if augmented, err := withAnnotatedPath(parts[0], annotatedPath); err == nil {
				metadataJSON = augmented
			}
		}
	}

	record := store.Record{
		FrameID:            frameID,
		LoopIteration:      loopIteration,
		SourceTimestamp:    source.String("timestamp", ""),
		ProcessedTimestamp: processedTimestamp,
		Filename:           source.String("filename", "frame.png"),
		Width:              source.Int("width", 0),
		Height:             source.Int("height", 0),
		Channels:           source.Int("channels", 0),
		Encoding:           source.String("encoding", envelope.Encoding),
		KeypointCount:      fields.Uint64("keypoint_count", 0),
		DescriptorRows:     fields.Int("descriptor_rows", 0),
		DescriptorCols:     fields.Int("descriptor_cols", 0),
		DescriptorElemSize: fields.Int("descriptor_elem_size", 0),
		DescriptorType:     fields.Int("descriptor_type", 0),
		DescriptorsBytes:   len(descriptors),
		ImagePath:          rawPath,
		MetadataJSON:       string(metadataJSON),
		Descriptors:        descriptors,
		CreatedAt:          envlog.NowISO8601(),
	}

	if err := db.Insert(record); err != nil {
		log.Error("insert frame record failed", "frame_id", frameID, "error", err)
		return
	}
}

// withAnnotatedPath augments the raw header JSON with an
// "annotated_path" field after a successful annotated write. Augmenting
// in place avoids carrying a separate sidecar field through the rest
// of the pipeline.
func withAnnotatedPath(headerJSON []byte, path string) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal(headerJSON, &fields); err != nil {
		return nil, err
	}
	fields["annotated_path"] = path
	return json.Marshal(fields)
}

func sanitizeFilename(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
