// Package extractorstage implements the worker stage: connect upstream,
// invoke the feature extractor, emit downstream envelopes with the
// same subscriber-aware backpressure the producer uses.
package extractorstage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envelope"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/feature"
	"github.com/e7canasta/distimaging/internal/msgbus"
	"github.com/e7canasta/distimaging/internal/pending"
	"github.com/e7canasta/distimaging/internal/shutdown"
)

// sndhwm matches the original's publisher.set(zmq::sockopt::sndhwm, 100)
// for the downstream bus.
const sndhwm = 100

const backpressureBackoff = 500 * time.Millisecond
const waitingLogInterval = 5 * time.Second

// envelopeItem is one ready-to-send downstream envelope waiting in the
// pending queue for a subscriber to reappear.
type envelopeItem struct {
	frameID int
	parts   [][]byte
}

// Run connects to cfg.SubEndpoint, binds cfg.PubEndpoint, and drives
// the worker's receive/extract/emit loop until shutdown. annotated
// gates whether a keypoint overlay is rendered and attached as a
// fourth envelope part.
func Run(h *shutdown.Handle, cfg config.Extractor, extractor feature.Extractor, annotated bool, log *slog.Logger) error {
	sub, err := msgbus.ConnectSubscriber(h, cfg.SubEndpoint)
	if err != nil {
		return fmt.Errorf("connect upstream bus: %w", err)
	}
	defer sub.Close()
	log.Info("connected to upstream bus", "endpoint", cfg.SubEndpoint)

	pub, err := msgbus.BindPublisher(h.Context(), cfg.PubEndpoint, sndhwm)
	if err != nil {
		return fmt.Errorf("bind downstream bus: %w", err)
	}
	defer pub.Close()
	log.Info("bound downstream bus", "endpoint", cfg.PubEndpoint)

	queue := pending.New[envelopeItem](cfg.QueueDepth, func(ev envelopeItem) {
		log.Warn("pending queue full; dropping oldest frame", "frame_id", ev.frameID)
	})

	var lastWaitingLog time.Time

	for h.Running() {
		queue.FlushWhile(pub.HasSubscriber, func(ev envelopeItem) bool {
			ok, sendErr := pub.Send(ev.parts)
			if sendErr != nil {
				log.Warn("flush send failed", "frame_id", ev.frameID, "error", sendErr)
				return false
			}
			return ok
		})

		parts, recvErr, timedOut := sub.Recv(2)
		if timedOut {
			if time.Since(lastWaitingLog) >= waitingLogInterval {
				log.Info("waiting for upstream frames")
				lastWaitingLog = time.Now()
			}
			continue
		}
		if recvErr != nil {
			log.Warn("malformed upstream envelope", "error", recvErr)
			continue
		}

		fields, err := envelope.ParseFields(parts[0])
		if err != nil {
			log.Warn("malformed upstream header; dropping frame", "error", err)
			continue
		}
		frameID := fields.Int("frame_id", -1)

		result, err := extractor.Extract(parts[1])
		if err != nil {
			log.Warn("feature extraction failed; dropping frame", "frame_id", frameID, "error", err)
			continue
		}

		var annotatedBytes []byte
		if annotated {
			annotatedBytes, err = renderAnnotated(parts[1], result.Keypoints)
			if err != nil {
				log.Warn("annotated overlay render failed; continuing without it", "frame_id", frameID, "error", err)
				annotatedBytes = nil
			}
		}

		sendParts, totalBytes, err := buildDownstream(parts[0], parts[1], result, annotatedBytes)
		if err != nil {
			log.Error("marshal downstream header failed", "frame_id", frameID, "error", err)
			continue
		}
		if totalBytes > envelope.MaxEnvelopeBytes {
			log.Warn("skip frame: downstream envelope exceeds size cap", "frame_id", frameID, "size", humanize.Bytes(uint64(totalBytes)))
			continue
		}
		item := envelopeItem{frameID: frameID, parts: sendParts}

		switch {
		case !pub.HasSubscriber():
			log.Warn("no downstream subscriber; queuing frame", "frame_id", frameID)
			queue.Push(item)
			h.Sleep(backpressureBackoff)
		default:
			ok, sendErr := pub.Send(sendParts)
			switch {
			case sendErr != nil:
				log.Error("downstream send failed", "frame_id", frameID, "error", sendErr)
			case !ok:
				log.Warn("downstream send would block; queuing frame", "frame_id", frameID)
				queue.Push(item)
				h.Sleep(backpressureBackoff)
			}
		}
	}

	return nil
}

// buildDownstream assembles the worker's outgoing multipart envelope:
// the enriched header (with the upstream header nested verbatim under
// source), the descriptor blob, the echoed image payload, and — only
// when non-empty — the annotated overlay as a fourth part. totalBytes
// is the payload sum checked against the envelope size cap.
func buildDownstream(sourceHeader, imagePayload []byte, result feature.Result, annotatedBytes []byte) (parts [][]byte, totalBytes int, err error) {
	header := envelope.DownstreamHeader{
		Source:             json.RawMessage(sourceHeader),
		ProcessedTimestamp: envlog.NowISO8601(),
		KeypointCount:      uint64(len(result.Keypoints)),
		DescriptorRows:     result.DescriptorRows,
		DescriptorCols:     result.DescriptorCols,
		DescriptorElemSize: result.DescriptorElemSize,
		DescriptorType:     result.DescriptorType,
		DescriptorsBytes:   len(result.Descriptors),
		AnnotatedBytes:     len(annotatedBytes),
		Keypoints:          result.Keypoints,
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, 0, err
	}

	parts = [][]byte{headerJSON, result.Descriptors, imagePayload}
	if len(annotatedBytes) > 0 {
		parts = append(parts, annotatedBytes)
	}
	totalBytes = len(result.Descriptors) + len(imagePayload) + len(annotatedBytes)
	return parts, totalBytes, nil
}
