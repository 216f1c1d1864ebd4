package mctext

import (
	"bytes"
	"sync"
)

type byteBufferPool struct {
	pool sync.Pool
}

func newByteBufferPool(initialSize int) *byteBufferPool {
	return &byteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
	}
}

func (p *byteBufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put returns buf to the pool. Buffers grown past maxPooledSize are dropped
// so a single large value does not pin memory.
func (p *byteBufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledSize {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

const maxPooledSize = 64 * 1024
