package utils

import (
	"bytes"
	"sync"
)

// MaxBufferSize caps buffers returned to the pool to prevent memory hoarding.
const MaxBufferSize = 64 * 1024

// BufferPool manages reusable bytes.Buffer objects to reduce allocations
// during high-throughput minification.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put returns a buffer to the pool, resetting it for reuse.
// Oversized buffers are discarded.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > MaxBufferSize {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}
