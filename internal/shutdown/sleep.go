package shutdown

import "time"

// Sleep blocks for d or until the handle's context is cancelled,
// whichever comes first. The no-subscriber backoff, inter-frame delay,
// startup/subscriber-wait delays and connect backoff go through this so
// shutdown is never stuck behind a sleep; the bind backoff in msgbus
// waits on the same context directly.
func (h *Handle) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-h.ctx.Done():
	}
}
