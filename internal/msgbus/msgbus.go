// Package msgbus wraps the ZeroMQ PUB/SUB transport that binds the
// three pipeline stages together. It owns the bind/connect retry state
// machines, the atomic multipart envelope contract, and the
// subscriber presence monitor.
//
// The transport is github.com/pebbe/zmq4, a cgo binding over libzmq —
// the same ZeroMQ library the original C++ implementation links
// against, down to the monitor-socket mechanism used for presence
// detection (ZMQ_EVENT_CONNECTED/ACCEPTED/DISCONNECTED/CLOSED).
package msgbus

import (
	"context"
	"fmt"
	"syscall"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/e7canasta/distimaging/internal/shutdown"
)

// Retry tuning shared by every bind/connect call site.
const (
	RetryAttempts = 3
	RetryBackoff  = time.Second
	RecvTimeout   = 500 * time.Millisecond
	SendTimeout   = 1000 * time.Millisecond
)

// ErrMalformed is returned by Recv when a message arrives without the
// expected number of multipart frames. Callers discard it with a
// warning; it is never treated as fatal.
type ErrMalformed struct {
	// Part is the 0-based index of the frame that was missing or
	// unexpectedly terminal.
	Part int
	Want int
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed envelope: expected at least %d parts, stopped at part %d", e.Want, e.Part)
}

// Publisher is a bound PUB socket with a presence monitor attached.
type Publisher struct {
	sock    *zmq.Socket
	monitor *Monitor
}

// BindPublisher binds a PUB socket at endpoint with up to RetryAttempts
// tries separated by RetryBackoff. Failure after all attempts is
// fatal, which callers surface as a nonzero exit.
func BindPublisher(ctx context.Context, endpoint string, sndhwm int) (*Publisher, error) {
	sock, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, fmt.Errorf("create PUB socket: %w", err)
	}
	_ = sock.SetSndhwm(sndhwm)
	_ = sock.SetSndtimeo(SendTimeout)
	_ = sock.SetLinger(0)

	if err := bindWithRetry(ctx, sock, endpoint); err != nil {
		sock.Close()
		return nil, err
	}

	monitor, err := StartMonitor(sock)
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("start subscriber monitor: %w", err)
	}

	return &Publisher{sock: sock, monitor: monitor}, nil
}

func bindWithRetry(ctx context.Context, sock *zmq.Socket, endpoint string) error {
	var lastErr error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		if err := sock.Bind(endpoint); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt == RetryAttempts {
			break
		}
		select {
		case <-time.After(RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("bind %s after %d attempts: %w", endpoint, RetryAttempts, lastErr)
}

// HasSubscriber reports whether at least one peer is currently
// connected, per the presence monitor's counter.
func (p *Publisher) HasSubscriber() bool {
	return p.monitor.HasSubscriber()
}

// Send transmits one multipart envelope atomically. A would-block
// condition (EAGAIN, from SendTimeout expiring with a backed-up peer)
// is reported via ok=false, never as a fatal error.
func (p *Publisher) Send(parts [][]byte) (ok bool, err error) {
	_, sendErr := p.sock.SendMessage(toSendable(parts)...)
	if sendErr == nil {
		return true, nil
	}
	if zmq.AsErrno(sendErr) == zmq.Errno(syscall.EAGAIN) {
		return false, nil
	}
	return false, sendErr
}

func toSendable(parts [][]byte) []interface{} {
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// Close stops the presence monitor before tearing down the socket;
// this ordering avoids a shutdown hang.
func (p *Publisher) Close() {
	if p.monitor != nil {
		p.monitor.Stop()
	}
	if p.sock != nil {
		p.sock.Close()
	}
}

// Subscriber is a connected SUB socket.
type Subscriber struct {
	sock *zmq.Socket
}

// ConnectSubscriber connects a SUB socket subscribed to all messages,
// with a 500ms receive timeout. Unlike BindPublisher, connect failures
// are retried until shutdown rather than treated as fatal after a
// fixed attempt count — a SUB socket can connect lazily once the peer
// appears, so there's no hard upper bound on how long to wait.
func ConnectSubscriber(h *shutdown.Handle, endpoint string) (*Subscriber, error) {
	sock, err := zmq.NewSocket(zmq.SUB)
	if err != nil {
		return nil, fmt.Errorf("create SUB socket: %w", err)
	}
	_ = sock.SetRcvtimeo(RecvTimeout)
	_ = sock.SetLinger(0)
	_ = sock.SetSubscribe("")

	for h.Running() {
		if err := sock.Connect(endpoint); err == nil {
			return &Subscriber{sock: sock}, nil
		}
		h.Sleep(RetryBackoff)
	}
	sock.Close()
	return nil, fmt.Errorf("connect %s: shutdown requested before connect succeeded", endpoint)
}

// Recv reads one multipart envelope, expecting at least minParts parts.
// Returns (nil, nil, true) on a plain timeout (the common, expected
// case while idle). Returns a *ErrMalformed when fewer than minParts
// frames arrive before the "more" flag clears.
func (s *Subscriber) Recv(minParts int) (parts [][]byte, err error, timedOut bool) {
	msg, err := s.sock.RecvMessageBytes(0)
	if err != nil {
		if zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN) {
			return nil, nil, true
		}
		return nil, err, false
	}
	if len(msg) < minParts {
		return nil, &ErrMalformed{Part: len(msg), Want: minParts}, false
	}
	return msg, nil, false
}

// Close closes the subscriber socket.
func (s *Subscriber) Close() {
	if s.sock != nil {
		s.sock.Close()
	}
}
