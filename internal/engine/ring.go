package engine

import (
	"encoding/binary"
	"sync/atomic"
)

// byteRing is a bounded single-producer/single-consumer byte ring carrying
// length-prefixed message records. The producer is the application goroutine
// calling Send; the consumer is the backend's realtime transmit callback.
// head and tail are free-running byte counters: the consumer only advances
// head, the producer only advances tail, so no lock is needed and neither
// side ever blocks the other.
type byteRing struct {
	buf  []byte
	head atomic.Uint64 // Total bytes consumed.
	tail atomic.Uint64 // Total bytes produced.
}

// ringHeaderSize is the little-endian uint32 length prefix of each record.
const ringHeaderSize = 4

func newByteRing(size int) *byteRing {
	if size <= 0 {
		return nil
	}
	return &byteRing{buf: make([]byte, size)}
}

// Push copies one record into the ring. It fails fast with false when the
// ring lacks space for the prefix plus payload; the producer must not be
// made to wait on the realtime consumer.
func (r *byteRing) Push(payload []byte) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	need := uint64(ringHeaderSize + len(payload))
	if uint64(len(r.buf))-(tail-head) < need {
		return false
	}

	var hdr [ringHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	r.copyIn(tail, hdr[:])
	r.copyIn(tail+ringHeaderSize, payload)
	r.tail.Store(tail + need)
	return true
}

// Pop removes the oldest record, appending its payload to dst. It returns
// dst unchanged and false when the ring is empty.
func (r *byteRing) Pop(dst []byte) ([]byte, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head < ringHeaderSize {
		return dst, false
	}

	var hdr [ringHeaderSize]byte
	r.copyOut(head, hdr[:])
	n := uint64(binary.LittleEndian.Uint32(hdr[:]))

	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	r.copyOut(head+ringHeaderSize, dst[start:])
	r.head.Store(head + ringHeaderSize + n)
	return dst, true
}

// Pending reports whether at least one record is buffered.
func (r *byteRing) Pending() bool {
	return r.tail.Load()-r.head.Load() >= ringHeaderSize
}

func (r *byteRing) copyIn(pos uint64, p []byte) {
	at := int(pos % uint64(len(r.buf)))
	n := copy(r.buf[at:], p)
	if n < len(p) {
		copy(r.buf, p[n:])
	}
}

func (r *byteRing) copyOut(pos uint64, p []byte) {
	at := int(pos % uint64(len(r.buf)))
	n := copy(p, r.buf[at:])
	if n < len(p) {
		copy(p[n:], r.buf)
	}
}
