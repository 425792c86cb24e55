package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midistream/internal/logger"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

// ErrNoBackend is returned when capture is started before a backend is attached.
var ErrNoBackend = errors.New("no capture backend attached")

var (
	_ contracts.Input     = (*Input)(nil)
	_ contracts.EventSink = (*Input)(nil)
)

// deliveryMode is the exclusive delivery state of a connection.
type deliveryMode int

const (
	modeUnset deliveryMode = iota
	modeCallback
	modePolling
)

// deliveryState is the snapshot the capture context reads per event. It is
// swapped atomically so delivery never holds an engine lock, which lets a
// callback re-enter configuration methods without deadlocking.
type deliveryState struct {
	mode     deliveryMode
	callback contracts.Callback
}

// InputConfig carries the fixed parameters of an input connection.
type InputConfig struct {
	Logger        contracts.Logger
	QueueCapacity int     // Delivery queue slots; 0 disables polling mode.
	ClockScale    float64 // Seconds per raw timestamp unit; 0 for unstamped backends.
	Flags         contracts.IngestionFlags
}

// Input is the ingestion engine for one open connection. A capture backend
// drives OnEventCaptured from its own context; the application configures
// delivery and polls from its own. Clock, filter flags and reassembly state
// are touched only by the capture context; the delivery queue and the
// delivery-mode snapshot are the only cross-context state.
type Input struct {
	logger  contracts.Logger
	backend contracts.CaptureBackend
	queue   *messageQueue

	// Capture-context-owned state.
	clock deltaClock
	sysex sysexAssembler
	flags contracts.IngestionFlags

	state atomic.Pointer[deliveryState]

	mu        sync.Mutex // Serializes configuration and lifecycle calls.
	capturing bool
	wg        sync.WaitGroup
}

// NewInput builds an input engine. With a zero queue capacity the connection
// is callback-only and polling reports a configuration error.
func NewInput(cfg InputConfig) *Input {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	in := &Input{
		logger: log,
		queue:  newMessageQueue(cfg.QueueCapacity),
		clock:  newDeltaClock(cfg.ClockScale),
		sysex:  newSysexAssembler(),
		flags:  cfg.Flags,
	}
	in.state.Store(&deliveryState{mode: modeUnset})
	return in
}

// Attach binds the capture backend. Must happen before StartCapture.
func (in *Input) Attach(backend contracts.CaptureBackend) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.backend = backend
}

// ConfigureIngestion installs the ignore flags. Calling this while capture
// is running has no defined ordering against in-flight events.
func (in *Input) ConfigureIngestion(flags contracts.IngestionFlags) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.capturing {
		in.logger.Warn("ingestion flags changed while capture is running")
	}
	in.flags = flags
}

// SetCallback switches delivery into callback mode. The handler runs
// synchronously on the capture path, so it must not block.
func (in *Input) SetCallback(cb contracts.Callback) error {
	if cb == nil {
		return contracts.ErrNilCallback
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	switch in.state.Load().mode {
	case modeCallback:
		return contracts.ErrCallbackAlreadySet
	case modePolling:
		return contracts.ErrPollingModeActive
	}
	in.state.Store(&deliveryState{mode: modeCallback, callback: cb})
	return nil
}

// CancelCallback returns delivery to the unset mode.
func (in *Input) CancelCallback() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state.Load().mode != modeCallback {
		return contracts.ErrNoCallbackSet
	}
	in.state.Store(&deliveryState{mode: modeUnset})
	return nil
}

// GetMessage pops the oldest queued message. An empty queue yields a zero
// Message and no error. The first successful call locks the connection into
// polling mode.
func (in *Input) GetMessage() (contracts.Message, error) {
	in.mu.Lock()
	switch in.state.Load().mode {
	case modeCallback:
		in.mu.Unlock()
		return contracts.Message{}, contracts.ErrCallbackModeActive
	case modeUnset:
		if in.queue == nil {
			in.mu.Unlock()
			return contracts.Message{}, contracts.ErrPollingUnavailable
		}
		in.state.Store(&deliveryState{mode: modePolling})
	}
	in.mu.Unlock()

	msg, ok := in.queue.Pop()
	if !ok {
		return contracts.Message{}, nil
	}
	return msg, nil
}

// StartCapture starts the backend's capture context. Every start resets the
// delta clock, so the first message after each start carries delta 0.0.
func (in *Input) StartCapture() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.backend == nil {
		return ErrNoBackend
	}
	if in.capturing {
		return contracts.ErrCaptureActive
	}

	in.clock.Reset()
	in.sysex.Reset()

	if err := in.backend.Start(); err != nil {
		return fmt.Errorf("starting capture backend: %w", err)
	}
	in.capturing = true
	in.logger.Info("capture started")
	return nil
}

// StopCapture stops the backend and waits until no event can reach the
// engine anymore. The backend's Stop carries the join guarantee; the
// WaitGroup additionally drains events already inside OnEventCaptured.
func (in *Input) StopCapture() error {
	in.mu.Lock()
	if !in.capturing {
		in.mu.Unlock()
		return contracts.ErrCaptureNotActive
	}
	backend := in.backend
	in.mu.Unlock()

	// The join must run without the engine mutex: a callback still on the
	// capture path is allowed to call configuration methods, and those take
	// the mutex.
	if err := backend.Stop(); err != nil {
		return fmt.Errorf("stopping capture backend: %w", err)
	}
	in.wg.Wait()

	in.mu.Lock()
	in.capturing = false
	in.mu.Unlock()
	in.logger.Info("capture stopped")
	return nil
}

// OnEventCaptured is the capture backend's entry point, invoked once per
// hardware-reported event. Calls must be serialized by the backend.
func (in *Input) OnEventCaptured(rawTimestamp uint64, payload []byte, kind contracts.EventKind) {
	in.wg.Add(1)
	defer in.wg.Done()

	// The clock advances for every event, filtered or not.
	delta := in.clock.Delta(rawTimestamp)

	if !admit(kind, in.flags) {
		if kind == contracts.KindSysex {
			// A suppressed fragment also voids any burst it belonged to.
			in.sysex.Reset()
		}
		return
	}

	bytes := payload
	if kind == contracts.KindSysex {
		complete, done := in.sysex.Feed(payload)
		if !done {
			return
		}
		bytes = complete
	} else if len(payload) == 0 {
		return
	}

	in.deliver(delta, bytes)
}

// deliver hands one complete admitted message to the configured sink. The
// payload is copied first: the reassembly buffer and the backend's event
// buffer are both reused after this call returns.
func (in *Input) deliver(delta float64, payload []byte) {
	msg := contracts.Message{Delta: delta, Bytes: append([]byte(nil), payload...)}

	st := in.state.Load()
	if st.mode == modeCallback {
		st.callback(msg.Delta, msg.Bytes)
		return
	}
	if in.queue == nil {
		return
	}
	if !in.queue.Push(msg) {
		in.logger.Warn("delivery queue full; message dropped",
			in.logger.Field().Int("bytes", len(msg.Bytes)),
			in.logger.Field().Uint64("dropped", in.queue.Dropped()))
	}
}

// QueueDropped reports how many inbound messages were discarded because the
// delivery queue was full.
func (in *Input) QueueDropped() uint64 {
	if in.queue == nil {
		return 0
	}
	return in.queue.Dropped()
}
