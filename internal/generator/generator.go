package generator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envelope"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/msgbus"
	"github.com/e7canasta/distimaging/internal/pending"
	"github.com/e7canasta/distimaging/internal/shutdown"
)

// sndhwm matches the original's publisher.set(zmq::sockopt::sndhwm, 10)
// for the upstream bus: a small high-water mark keeps a slow worker
// from letting the kernel buffer run away before the presence monitor
// and pending queue take over.
const sndhwm = 10

const backpressureBackoff = 500 * time.Millisecond
const subscriberPollInterval = 50 * time.Millisecond

// envelopeItem is one (header, payload) pair waiting in the pending
// queue for a subscriber to reappear.
type envelopeItem struct {
	frameID uint64
	header  []byte
	payload []byte
}

// Run discovers cfg.InputDir, binds the upstream bus, and drives the
// producer main loop until shutdown. once mirrors the
// --once flag: the outer sweep runs exactly one iteration.
func Run(h *shutdown.Handle, cfg config.Generator, log *slog.Logger, once bool) error {
	files, err := Discover(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("discover input dir %s: %w", cfg.InputDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("input dir %s contains no supported images", cfg.InputDir)
	}
	log.Info("discovered input images", "count", len(files), "dir", cfg.InputDir)

	pub, err := msgbus.BindPublisher(h.Context(), cfg.PubEndpoint, sndhwm)
	if err != nil {
		return fmt.Errorf("bind upstream bus: %w", err)
	}
	defer pub.Close()
	log.Info("bound upstream bus", "endpoint", cfg.PubEndpoint)

	h.Sleep(time.Duration(cfg.StartDelayMS) * time.Millisecond)
	waitForSubscriber(h, pub, cfg.SubscriberWaitMS, log)

	queue := pending.New[envelopeItem](cfg.QueueDepth, func(ev envelopeItem) {
		log.Warn("pending queue full; dropping oldest frame", "frame_id", ev.frameID)
	})

	var frameID uint64
	var framesSent uint64
	var bytesSent uint64
	lastHeartbeat := time.Now()
	heartbeatInterval := time.Duration(cfg.HeartbeatMS) * time.Millisecond
	loopDelay := time.Duration(cfg.LoopDelayMS) * time.Millisecond

	for loopIteration := uint64(0); h.Running(); loopIteration++ {
		// The progress bar only covers the first sweep: it exists to
		// give an operator watching stderr a sense of the initial
		// directory scan, not to track the producer's steady state.
		var bar *progressbar.ProgressBar
		if loopIteration == 0 {
			bar = progressbar.NewOptions(len(files),
				progressbar.OptionSetDescription("image-generator: scanning input directory"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}

		for _, path := range files {
			if !h.Running() {
				break
			}
			if bar != nil {
				_ = bar.Add(1)
			}

			queue.FlushWhile(pub.HasSubscriber, func(ev envelopeItem) bool {
				ok, sendErr := pub.Send([][]byte{ev.header, ev.payload})
				if sendErr != nil {
					log.Warn("flush send failed", "frame_id", ev.frameID, "error", sendErr)
					return false
				}
				if ok {
					framesSent++
					bytesSent += uint64(len(ev.payload))
				}
				return ok
			})

			id := frameID
			frameID++

			enc, err := EncodePNG(path)
			if err != nil {
				log.Warn("skip frame: decode/encode failed", "path", path, "error", err)
				continue
			}
			if len(enc.PNG) > envelope.MaxEnvelopeBytes {
				log.Warn("skip frame: encoded size exceeds cap", "path", path, "size", humanize.Bytes(uint64(len(enc.PNG))))
				continue
			}

			header := envelope.UpstreamHeader{
				FrameID:       id,
				LoopIteration: loopIteration,
				Timestamp:     envlog.NowISO8601(),
				Filename:      filepath.Base(path),
				Width:         enc.Width,
				Height:        enc.Height,
				Channels:      enc.Channels,
				Encoding:      envelope.Encoding,
				Bytes:         len(enc.PNG),
			}
			headerJSON, err := json.Marshal(header)
			if err != nil {
				log.Error("marshal upstream header failed", "frame_id", id, "error", err)
				continue
			}
			item := envelopeItem{frameID: id, header: headerJSON, payload: enc.PNG}

			switch {
			case !pub.HasSubscriber():
				queue.Push(item)
				h.Sleep(backpressureBackoff)
			default:
				ok, sendErr := pub.Send([][]byte{item.header, item.payload})
				switch {
				case sendErr != nil:
					log.Error("send failed", "frame_id", id, "error", sendErr)
				case !ok:
					queue.Push(item)
					h.Sleep(backpressureBackoff)
				default:
					framesSent++
					bytesSent += uint64(len(item.payload))
				}
			}

			if time.Since(lastHeartbeat) >= heartbeatInterval {
				log.Info("heartbeat", "frames_sent", framesSent, "loop_iteration", loopIteration, "bytes_sent", humanize.Bytes(bytesSent))
				lastHeartbeat = time.Now()
			}

			h.Sleep(loopDelay)
		}

		if once {
			break
		}
	}

	return nil
}

// waitForSubscriber polls every subscriberPollInterval until a
// subscriber connects or waitMS elapses, then proceeds regardless.
func waitForSubscriber(h *shutdown.Handle, pub *msgbus.Publisher, waitMS int, log *slog.Logger) {
	deadline := time.Duration(waitMS) * time.Millisecond
	var waited time.Duration
	for waited < deadline && h.Running() {
		if pub.HasSubscriber() {
			return
		}
		h.Sleep(subscriberPollInterval)
		waited += subscriberPollInterval
	}
	if !pub.HasSubscriber() {
		log.Warn("no subscriber connected after warmup; proceeding anyway", "waited_ms", waitMS)
	}
}
