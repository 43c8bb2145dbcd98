package canio

// FIFO is a fixed capacity byte queue that behaves like a hardware FIFO:
// Write fails with BufferExhausted when it is full and ReadUntil fails with
// BufferExhausted when it is empty. Storage is allocated once by NewFIFO.
//
// FIFO is not safe for concurrent use.
type FIFO struct {
	buf   []byte
	head  int
	count int
}

// NewFIFO returns an empty FIFO holding at most capacity bytes.
func NewFIFO(capacity int) *FIFO {
	if capacity <= 0 {
		panic("canio: fifo capacity must be positive")
	}
	return &FIFO{buf: make([]byte, capacity)}
}

func (q *FIFO) Len() int { return q.count }

func (q *FIFO) Cap() int { return len(q.buf) }

// Write accepts as many bytes of p as fit.
func (q *FIFO) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	free := len(q.buf) - q.count
	if free == 0 {
		return 0, NewError(BufferExhausted, "fifo write", nil)
	}
	n := min(free, len(p))
	tail := (q.head + q.count) % len(q.buf)
	for i := 0; i < n; i++ {
		q.buf[(tail+i)%len(q.buf)] = p[i]
	}
	q.count += n
	return n, nil
}

// ReadUntil moves queued bytes into p up to and including delim.
func (q *FIFO) ReadUntil(delim byte, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if q.count == 0 {
		return 0, NewError(BufferExhausted, "fifo read", nil)
	}
	n := 0
	for n < len(p) && q.count > 0 {
		b := q.buf[q.head]
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		p[n] = b
		n++
		if b == delim {
			break
		}
	}
	return n, nil
}

// Reset discards all queued bytes.
func (q *FIFO) Reset() {
	q.head = 0
	q.count = 0
}
