package streamio

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// copyBufferSize is sized for streaming whole loose objects through the
// compression codecs without reallocating.
const copyBufferSize = 64 * 1024

var (
	copyBuffers = sync.Pool{
		New: func() any {
			b := make([]byte, copyBufferSize)
			return &b
		},
	}
	scratchBuffers = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(nil)
		},
	}
	lineReaders = sync.Pool{
		New: func() any {
			return bufio.NewReader(nil)
		},
	}
)

// Copy copies src to dst through a pooled transfer buffer, avoiding the
// per-call allocation of io.Copy.
func Copy(dst io.Writer, src io.Reader) (written int64, err error) {
	buf := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// GetBytesBuffer returns an empty *bytes.Buffer from the pool. Return it
// with PutBytesBuffer once its contents have been consumed.
func GetBytesBuffer() *bytes.Buffer {
	buf := scratchBuffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBytesBuffer hands buf back to the pool.
func PutBytesBuffer(buf *bytes.Buffer) {
	scratchBuffers.Put(buf)
}

// GetBufioReader returns a pooled *bufio.Reader reset to read from r. The
// object parsers lean on it for header scanning; return it with
// PutBufioReader before the underlying reader is released.
func GetBufioReader(r io.Reader) *bufio.Reader {
	br := lineReaders.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

// PutBufioReader hands br back to the pool.
func PutBufioReader(br *bufio.Reader) {
	lineReaders.Put(br)
}
