package mqtt

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds the most recent messages published while offline.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	buf     []bufferedMsg
	start   int // oldest message
	count   int
	dropped int // messages overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

// push appends msg, overwriting the oldest message when full.
// It reports whether a message was dropped.
func (r *ringBuffer) push(msg bufferedMsg) bool {
	if r.count == len(r.buf) {
		r.buf[r.start] = msg
		r.start = (r.start + 1) % len(r.buf)
		r.dropped++
		return true
	}
	r.buf[(r.start+r.count)%len(r.buf)] = msg
	r.count++
	return false
}

// drainAll returns buffered messages oldest first and empties the buffer.
// The second result is the number of messages lost to overflow.
func (r *ringBuffer) drainAll() ([]bufferedMsg, int) {
	dropped := r.dropped
	if r.count == 0 {
		r.dropped = 0
		return nil, dropped
	}

	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}

	r.start, r.count, r.dropped = 0, 0, 0
	return out, dropped
}

func (r *ringBuffer) len() int {
	return r.count
}
