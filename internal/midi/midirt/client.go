// Package midirt adapts the gomidi rtmidi driver as a capture and transmit
// backend. It is the portable fallback used where no OS-specific backend
// exists.
package midirt

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

// ClockScale converts listener timestamps (milliseconds) into seconds.
const ClockScale = 1e-3

var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNoDeviceSelected  = errors.New("no MIDI device selected")
)

// Client is the rtmidi capture backend. The driver invokes the listener on
// its own thread; that thread is the capture context the engine sees.
type Client struct {
	logger contracts.Logger
	sink   contracts.EventSink
	drv    *rtmididrv.Driver
	in     drivers.In
	stopFn func()
	mu     sync.Mutex
}

// NewCaptureBackend initializes the rtmidi driver for capture.
func NewCaptureBackend(options *contracts.ClientOptions, sink contracts.EventSink) (*Client, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("rtmidi capture backend created")
	return &Client{
		logger: options.Logger,
		sink:   sink,
		drv:    drv,
	}, nil
}

// ListDevices lists the available MIDI input ports.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := c.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		c.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			Name:       in.String(),
			EntityName: in.String(),
		}
	}
	return devices, nil
}

// SelectDevice opens the input port with the given ID.
func (c *Client) SelectDevice(deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ins, err := c.drv.Ins()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		c.logger.Error(ErrInvalidMIDIDevice.Error())
		return ErrInvalidMIDIDevice
	}

	if c.in != nil {
		_ = c.in.Close()
	}
	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open %q: %w", in.String(), err)
	}
	c.in = in
	c.logger.Info("MIDI device selected",
		c.logger.Field().Int("deviceID", deviceID),
		c.logger.Field().String("deviceName", in.String()))
	return nil
}

// Start registers the listener. The engine does its own filtering, so every
// message kind is passed through, sysex included.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.in == nil {
		return ErrNoDeviceSelected
	}
	if c.stopFn != nil {
		return nil
	}

	stop, err := midi.ListenTo(c.in, func(msg midi.Message, timestampms int32) {
		payload := []byte(msg)
		if len(payload) == 0 {
			return
		}
		if timestampms < 0 {
			timestampms = 0
		}
		c.sink.OnEventCaptured(uint64(timestampms), payload, contracts.Classify(payload))
	},
		midi.UseSysEx(),
		midi.UseTimeCode(),
		midi.UseActiveSense(),
		midi.HandleError(func(listenErr error) {
			c.logger.Warn("MIDI listener error", c.logger.Field().Error("error", listenErr))
		}),
	)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	c.stopFn = stop
	return nil
}

// Stop unregisters the listener. The driver's stop function does not return
// until the listener can no longer fire.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopFn == nil {
		return nil
	}
	c.stopFn()
	c.stopFn = nil
	return nil
}

// Close stops capture and releases the port and driver.
func (c *Client) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.in != nil {
		_ = c.in.Close()
		c.in = nil
	}
	return c.drv.Close()
}

// Output is the rtmidi transmit backend.
type Output struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out
	mu     sync.Mutex
}

// NewOutputBackend initializes the rtmidi driver for transmission.
func NewOutputBackend(options *contracts.ClientOptions) (*Output, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Output{logger: options.Logger, drv: drv}, nil
}

// ListDevices lists the available MIDI output ports.
func (o *Output) ListDevices() ([]contracts.DeviceInfo, error) {
	outs, err := o.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		o.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{
			Name:       out.String(),
			EntityName: out.String(),
		}
	}
	return devices, nil
}

// SelectDevice opens the output port with the given ID.
func (o *Output) SelectDevice(deviceID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	outs, err := o.drv.Outs()
	if err != nil {
		return fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		o.logger.Error(ErrInvalidMIDIDevice.Error())
		return ErrInvalidMIDIDevice
	}

	if o.out != nil {
		_ = o.out.Close()
	}
	out := outs[deviceID]
	if err := out.Open(); err != nil {
		return fmt.Errorf("open %q: %w", out.String(), err)
	}
	o.out = out
	return nil
}

// Transmit submits one encoded message to the open port.
func (o *Output) Transmit(payload []byte) error {
	o.mu.Lock()
	out := o.out
	o.mu.Unlock()

	if out == nil {
		return ErrNoDeviceSelected
	}
	return out.Send(payload)
}

// Close releases the port and driver.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.out != nil {
		_ = o.out.Close()
		o.out = nil
	}
	return o.drv.Close()
}
