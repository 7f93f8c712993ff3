package mqtt

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// BufferSize is how many messages are held while the broker is unreachable.
const BufferSize = 256

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// Not safe for concurrent use; the publisher holds its lock around every call.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any message was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == r.capacity {
		if !r.overflow {
			log.Warnf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		// head already points at the oldest entry
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	result := make([]bufferedMsg, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}

// outbox sends messages while the broker is connected and buffers them
// otherwise. replay flushes the buffer in order once the link is back.
type outbox struct {
	mu        sync.Mutex
	buf       *ringBuffer
	connected func() bool
	send      func(msg bufferedMsg) error
}

func newOutbox(capacity int, connected func() bool, send func(bufferedMsg) error) *outbox {
	return &outbox{
		buf:       newRingBuffer(capacity),
		connected: connected,
		send:      send,
	}
}

// publish sends msg, or buffers it while disconnected. A message that
// fails to send is buffered too and the error is returned.
func (o *outbox) publish(msg bufferedMsg) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.connected() {
		o.buf.push(msg)
		return nil
	}
	if err := o.send(msg); err != nil {
		o.buf.push(msg)
		return err
	}
	return nil
}

// replay sends every buffered message. It stops at the first failure and
// keeps the unsent remainder.
func (o *outbox) replay() (sent int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	msgs := o.buf.drainAll()
	for i, msg := range msgs {
		if err := o.send(msg); err != nil {
			for _, rest := range msgs[i:] {
				o.buf.push(rest)
			}
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.len()
}
