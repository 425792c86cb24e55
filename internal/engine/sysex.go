package engine

import "github.com/leandrodaf/midistream/sdk/contracts"

// sysexInitialSize is the starting capacity of the reassembly buffer. The
// buffer grows to fit the largest message seen and is never shrunk; a sysex
// larger than the current capacity is a growth event, not a truncation.
const sysexInitialSize = 32

// sysexAssembler concatenates transport-level sysex fragments into one
// logical message. It is owned exclusively by the capture context: exactly
// one sysex stream is in flight at a time, and interleaving another sysex
// into a running burst is a transport protocol violation outside this
// engine's contract.
type sysexAssembler struct {
	buf        []byte
	continuing bool
}

func newSysexAssembler() sysexAssembler {
	return sysexAssembler{buf: make([]byte, 0, sysexInitialSize)}
}

// Feed appends one fragment. It returns the completed payload and true when
// the fragment's final byte is the sysex terminator; otherwise it returns
// nil and false with the continuation state retained. An empty fragment
// leaves the state untouched. The returned slice aliases the internal buffer
// and is only valid until the next Feed, so deliver-or-copy immediately.
func (a *sysexAssembler) Feed(fragment []byte) ([]byte, bool) {
	if len(fragment) == 0 {
		return nil, false
	}
	if !a.continuing {
		a.buf = a.buf[:0]
	}
	a.buf = append(a.buf, fragment...)
	if a.buf[len(a.buf)-1] == contracts.StatusSysexEnd {
		a.continuing = false
		return a.buf, true
	}
	a.continuing = true
	return nil, false
}

// Continuing reports whether a sysex message is mid-stream.
func (a *sysexAssembler) Continuing() bool {
	return a.continuing
}

// Reset discards any in-progress message. Used when capture restarts or when
// a fragment is dropped by the ingestion filter.
func (a *sysexAssembler) Reset() {
	a.buf = a.buf[:0]
	a.continuing = false
}
