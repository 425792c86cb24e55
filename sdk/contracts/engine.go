package contracts

// Callback receives one fully reassembled, admitted message. It is invoked
// synchronously from the capture context with no engine lock held, so it may
// call back into the engine, but it must not block: it runs on the realtime
// capture path.
type Callback func(delta float64, payload []byte)

// EventSink is the single entry point a capture backend drives. Calls must be
// serialized by the backend; the engine assumes one capture context per
// connection.
type EventSink interface {
	OnEventCaptured(rawTimestamp uint64, payload []byte, kind EventKind)
}

// CaptureBackend owns the capture context (a goroutine, an OS callback, or a
// driver thread) that produces raw events for an EventSink.
type CaptureBackend interface {
	// Start begins capture. After Start returns, events may arrive at any time.
	Start() error
	// Stop halts capture. It must not return until the capture context can
	// issue no further calls into the sink.
	Stop() error
}

// Transmitter hands one encoded message to the native transport. Used by the
// synchronous output strategy.
type Transmitter interface {
	Transmit(payload []byte) error
}

// Input is the consumer-facing surface of an input connection.
type Input interface {
	// ConfigureIngestion installs the ignore flags. Call before StartCapture.
	ConfigureIngestion(flags IngestionFlags)
	// SetCallback switches delivery to callback mode.
	SetCallback(cb Callback) error
	// CancelCallback returns delivery to the unset mode.
	CancelCallback() error
	// GetMessage pops the oldest queued message. An empty queue yields a
	// zero Message, not an error.
	GetMessage() (Message, error)
	StartCapture() error
	StopCapture() error
}

// Output is the consumer-facing surface of an output connection.
type Output interface {
	Send(payload []byte) error
}

// InputDevice combines the engine surface with the device bookkeeping a
// backend provides around it.
type InputDevice interface {
	Input
	ListDevices() ([]DeviceInfo, error)
	SelectDevice(deviceID int) error
	Close() error
}

// OutputDevice is the outbound counterpart of InputDevice.
type OutputDevice interface {
	Output
	ListDevices() ([]DeviceInfo, error)
	SelectDevice(deviceID int) error
	Close() error
}
