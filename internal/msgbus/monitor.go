package msgbus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// monitorPollInterval bounds how long the monitor's RecvEvent call
// blocks before re-checking for shutdown, mirroring the original
// zmq::monitor_t subclass's 250ms check_event cadence.
const monitorPollInterval = 250 * time.Millisecond

// Monitor tracks whether a bound PUB socket has at least one connected
// subscriber, so a producer can distinguish "no consumers" from
// "consumers present but slow".
//
// It runs as a dedicated goroutine consuming socket-lifecycle events
// (connected, accepted, disconnected, closed) from ZeroMQ's monitor
// socket — a PAIR socket the library publishes connect/disconnect
// events to over an inproc:// endpoint — and maintains a signed
// counter: +1 on connect/accept, -1 on disconnect/close.
type Monitor struct {
	counter atomic.Int64
	pair    *zmq.Socket
	done    chan struct{}
	wg      sync.WaitGroup
}

// monitorEvents is the set of lifecycle events the presence counter
// cares about: connection/acceptance increments it, disconnection/
// closure decrements it.
const monitorEvents = zmq.EVENT_CONNECTED | zmq.EVENT_ACCEPTED | zmq.EVENT_DISCONNECTED | zmq.EVENT_CLOSED

// StartMonitor begins monitoring sock and returns once the monitor
// goroutine is attached. It must be started only after sock is bound.
func StartMonitor(sock *zmq.Socket) (*Monitor, error) {
	addr := fmt.Sprintf("inproc://monitor-%p", sock)
	if err := sock.Monitor(addr, monitorEvents); err != nil {
		return nil, fmt.Errorf("attach monitor: %w", err)
	}

	pair, err := zmq.NewSocket(zmq.PAIR)
	if err != nil {
		return nil, fmt.Errorf("create monitor pair socket: %w", err)
	}
	if err := pair.Connect(addr); err != nil {
		pair.Close()
		return nil, fmt.Errorf("connect monitor pair socket: %w", err)
	}
	_ = pair.SetRcvtimeo(monitorPollInterval)

	m := &Monitor{pair: pair, done: make(chan struct{})}
	m.wg.Add(1)
	go m.run()
	return m, nil
}

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		default:
		}

		event, _, _, err := m.pair.RecvEvent(0)
		if err != nil {
			// Recv timeout (EAGAIN) is expected while idle; any other
			// error most likely means the socket is being torn down.
			continue
		}

		switch event {
		case zmq.EVENT_CONNECTED, zmq.EVENT_ACCEPTED:
			m.counter.Add(1)
		case zmq.EVENT_DISCONNECTED, zmq.EVENT_CLOSED:
			m.counter.Add(-1)
		}
	}
}

// HasSubscriber reports counter > 0.
func (m *Monitor) HasSubscriber() bool {
	return m.counter.Load() > 0
}

// Stop joins the monitor goroutine. Callers must stop the monitor
// before closing the monitored socket to avoid a shutdown hang.
func (m *Monitor) Stop() {
	close(m.done)
	m.wg.Wait()
	if m.pair != nil {
		m.pair.Close()
	}
}
