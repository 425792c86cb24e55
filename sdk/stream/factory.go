package stream

import (
	"runtime"

	"github.com/leandrodaf/midistream/internal/engine"
	"github.com/leandrodaf/midistream/internal/midi/mididarwin"
	"github.com/leandrodaf/midistream/internal/midi/midirt"
	"github.com/leandrodaf/midistream/internal/midi/midiwindows"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

// inputBackend is the capture side a platform package provides.
type inputBackend interface {
	contracts.CaptureBackend
	ListDevices() ([]contracts.DeviceInfo, error)
	SelectDevice(deviceID int) error
	Close() error
}

// outputBackend is the transmit side a platform package provides.
type outputBackend interface {
	contracts.Transmitter
	ListDevices() ([]contracts.DeviceInfo, error)
	SelectDevice(deviceID int) error
	Close() error
}

// inputInitializers maps OS names to capture backend constructors. Any other
// OS falls back to the portable rtmidi driver backend.
var inputInitializers = map[string]func(*contracts.ClientOptions, contracts.EventSink) (inputBackend, error){
	"darwin": func(o *contracts.ClientOptions, s contracts.EventSink) (inputBackend, error) {
		b, err := mididarwin.NewCaptureBackend(o, s)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
	"windows": func(o *contracts.ClientOptions, s contracts.EventSink) (inputBackend, error) {
		b, err := midiwindows.NewCaptureBackend(o, s)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
}

// outputInitializers is the outbound counterpart of inputInitializers.
var outputInitializers = map[string]func(*contracts.ClientOptions) (outputBackend, error){
	"darwin": func(o *contracts.ClientOptions) (outputBackend, error) {
		b, err := mididarwin.NewOutputBackend(o)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
	"windows": func(o *contracts.ClientOptions) (outputBackend, error) {
		b, err := midiwindows.NewOutputBackend(o)
		if err != nil {
			return nil, err
		}
		return b, nil
	},
}

// clockScale is the per-backend conversion from raw timestamps to seconds.
func clockScale() float64 {
	switch runtime.GOOS {
	case "darwin":
		return mididarwin.ClockScale
	case "windows":
		return midiwindows.ClockScale
	}
	return midirt.ClockScale
}

func newInputBackend(options *contracts.ClientOptions, sink contracts.EventSink) (inputBackend, error) {
	if initializer, exists := inputInitializers[runtime.GOOS]; exists {
		return initializer(options, sink)
	}
	b, err := midirt.NewCaptureBackend(options, sink)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func newOutputBackend(options *contracts.ClientOptions) (outputBackend, error) {
	if initializer, exists := outputInitializers[runtime.GOOS]; exists {
		return initializer(options)
	}
	b, err := midirt.NewOutputBackend(options)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewInput opens an input connection: the ingestion engine wired to the
// platform's capture backend. Select a device, configure delivery, then
// start capture.
func NewInput(opts ...contracts.Option) (contracts.InputDevice, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	in := engine.NewInput(engine.InputConfig{
		Logger:        options.Logger,
		QueueCapacity: queueCapacity(&options),
		ClockScale:    clockScale(),
		Flags:         options.Ingestion,
	})

	backend, err := newInputBackend(&options, in)
	if err != nil {
		return nil, err
	}
	in.Attach(backend)

	return &inputDevice{Input: in, backend: backend}, nil
}

// NewOutput opens an output connection. With WithOutputRingSize the send
// path hands off through a bounded byte ring drained on a dedicated
// goroutine, so Send never waits on the native transport; otherwise Send
// transmits synchronously.
func NewOutput(opts ...contracts.Option) (contracts.OutputDevice, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := newOutputBackend(&options)
	if err != nil {
		return nil, err
	}

	if options.OutputRingSize > 0 {
		return newRingOutputDevice(options.Logger, backend, options.OutputRingSize), nil
	}
	return &outputDevice{
		out:     engine.NewOutput(options.Logger, backend),
		backend: backend,
	}, nil
}
