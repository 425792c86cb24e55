package engine

import (
	"fmt"

	"github.com/leandrodaf/midistream/internal/logger"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

// codecInitialSize is the starting capacity of the transmit scratch buffer.
// Matches the common case of short channel messages; a larger sysex grows
// the buffer once and it stays grown.
const codecInitialSize = 32

var _ contracts.Output = (*Output)(nil)

// Output moves application-constructed messages into a backend's
// transmission mechanism without ever blocking a realtime context. Two
// strategies exist: a synchronous transmitter that encodes and submits on
// the calling goroutine, and a bounded byte ring drained by the backend's
// own realtime callback.
type Output struct {
	logger  contracts.Logger
	tx      contracts.Transmitter
	ring    *byteRing
	scratch []byte

	drain []byte // Consumer-side reuse buffer for ring records.
}

// NewOutput builds a synchronous encode-and-transmit output.
func NewOutput(log contracts.Logger, tx contracts.Transmitter) *Output {
	if log == nil {
		log = logger.NewNop()
	}
	return &Output{
		logger:  log,
		tx:      tx,
		scratch: make([]byte, 0, codecInitialSize),
	}
}

// NewRingOutput builds an asynchronous output backed by a byte ring of the
// given size. The backend's realtime callback drains it via Drain.
func NewRingOutput(log contracts.Logger, ringSize int) *Output {
	if log == nil {
		log = logger.NewNop()
	}
	return &Output{
		logger: log,
		ring:   newByteRing(ringSize),
	}
}

// Send accepts one complete outbound message from the calling goroutine.
// Zero-length payloads are invalid. With the ring strategy a full ring fails
// fast instead of blocking; with the synchronous strategy Send returns after
// the native submission, reporting any rejection.
func (o *Output) Send(payload []byte) error {
	if len(payload) == 0 {
		return contracts.ErrEmptyMessage
	}

	if o.ring != nil {
		if !o.ring.Push(payload) {
			o.logger.Warn("output ring full; message not sent",
				o.logger.Field().Int("bytes", len(payload)))
			return contracts.ErrOutputRingFull
		}
		return nil
	}

	if len(payload) > cap(o.scratch) {
		o.logger.Debug("growing transmit buffer",
			o.logger.Field().Int("from", cap(o.scratch)),
			o.logger.Field().Int("to", len(payload)))
		o.scratch = make([]byte, 0, len(payload))
	}
	o.scratch = append(o.scratch[:0], payload...)

	if err := o.tx.Transmit(o.scratch); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrTransmit, err)
	}
	return nil
}

// Drain empties the ring, invoking transmit once per buffered message. It is
// called from the backend's realtime transmit callback, which is the single
// consumer of the ring. Transmit failures are logged and the drain continues
// so one bad message cannot dam the ring.
func (o *Output) Drain(transmit func(payload []byte) error) {
	if o.ring == nil {
		return
	}
	for {
		rec, ok := o.ring.Pop(o.drain[:0])
		if !ok {
			return
		}
		o.drain = rec
		if err := transmit(rec); err != nil {
			o.logger.Error("transmit failed during ring drain",
				o.logger.Field().Error("error", err))
		}
	}
}

// Pending reports whether ring-buffered output is waiting to be drained.
func (o *Output) Pending() bool {
	return o.ring != nil && o.ring.Pending()
}
