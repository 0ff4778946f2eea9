package threadpool

import "sync"

// Buffer is binary data handed to a worker by ownership transfer. Once the job
// carrying it is dispatched the buffer is detached: the bytes belong to the
// worker and Bytes returns nil on the submitting side.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	detached bool
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the content, or nil once the buffer was transferred.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

func (b *Buffer) Detached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detached
}

// detachAll transfers every buffer or none of them. Buffers are locked in
// order; only the control goroutine ever holds more than one lock.
func detachAll(bufs []*Buffer) ([][]byte, error) {
	for _, b := range bufs {
		b.mu.Lock()
	}
	defer func() {
		for _, b := range bufs {
			b.mu.Unlock()
		}
	}()

	for _, b := range bufs {
		if b.detached {
			return nil, errBufferTransferred
		}
	}

	out := make([][]byte, 0, len(bufs))
	for _, b := range bufs {
		out = append(out, b.data)
		b.data = nil
		b.detached = true
	}
	return out, nil
}

// reattach gives data detached by detachAll back to its buffers.
func reattach(bufs []*Buffer, data [][]byte) {
	for i, b := range bufs {
		if i >= len(data) {
			return
		}
		b.mu.Lock()
		b.data = data[i]
		b.detached = false
		b.mu.Unlock()
	}
}
