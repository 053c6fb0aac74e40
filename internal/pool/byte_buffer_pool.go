package pool

import (
	"io"
	"sync"
)

const (
	// TraceBufferDefaultSize is the default capacity of buffers used to
	// assemble trace files. Typical traces with a few thousand blocks fit
	// without reallocation.
	TraceBufferDefaultSize = 1024 * 64 // 64KiB

	// TraceBufferMaxThreshold is the largest buffer the pool retains.
	// Buffers grown past this by multi-megabyte traces are dropped
	// instead of pooled.
	TraceBufferMaxThreshold = 1024 * 1024 * 4 // 4MiB
)

// ByteBuffer is a reusable byte slice wrapper for assembling trace files.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// WriteString appends s to the buffer.
func (bb *ByteBuffer) WriteString(s string) {
	bb.B = append(bb.B, s...)
}

// WriteByte appends a single byte to the buffer.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

var traceBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(TraceBufferDefaultSize)
	},
}

// GetTraceBuffer retrieves a reset ByteBuffer from the pool.
func GetTraceBuffer() *ByteBuffer {
	bb, _ := traceBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutTraceBuffer returns a ByteBuffer to the pool. Buffers that grew past
// TraceBufferMaxThreshold are dropped to avoid retaining oversized memory.
func PutTraceBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > TraceBufferMaxThreshold {
		return
	}
	traceBufferPool.Put(bb)
}
