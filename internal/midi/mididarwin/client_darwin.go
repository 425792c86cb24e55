//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/youpy/go-coremidi"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrNoDeviceSelected    = errors.New("no MIDI device selected")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Client is the CoreMIDI capture backend for macOS. It owns the input port
// connection; CoreMIDI invokes the packet handler on its own thread, which
// is the capture context the engine sees.
type Client struct {
	logger    contracts.Logger
	sink      contracts.EventSink
	client    coremidi.Client
	inputPort coremidi.InputPort
	portConn  internalPortConnection
	source    *coremidi.Source
	mu        sync.Mutex
	capturing atomic.Bool
	wg        sync.WaitGroup
}

// NewCaptureBackend registers a CoreMIDI client and prepares a capture
// backend feeding the given sink.
func NewCaptureBackend(options *contracts.ClientOptions, sink contracts.EventSink) (*Client, error) {
	client, err := coremidi.NewClient(options.ClientConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client created")

	return &Client{
		logger: options.Logger,
		sink:   sink,
		client: client,
	}, nil
}

// ListDevices retrieves and returns available MIDI sources.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		c.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects the input port to the source with the given ID,
// disconnecting any previous source first.
func (c *Client) SelectDevice(deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		c.logger.Error(ErrInvalidMIDIDevice.Error())
		return ErrInvalidMIDIDevice
	}

	if c.portConn != nil {
		c.portConn.Disconnect()
		c.portConn = nil
	}

	source := sources[deviceID]
	c.logger.Info("MIDI device selected",
		c.logger.Field().Int("deviceID", deviceID),
		c.logger.Field().String("deviceName", source.Name()))

	c.inputPort, err = coremidi.NewInputPort(c.client, "Input Port", c.handlePacket)
	if err != nil {
		c.logger.Error(ErrCreateInputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	c.portConn, err = c.inputPort.Connect(source)
	if err != nil {
		c.logger.Error(ErrMIDIConnectionError.Error())
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	c.source = &source

	c.logger.Info("MIDI device connected")
	return nil
}

// handlePacket forwards one CoreMIDI packet into the engine. CoreMIDI does
// not hand us a usable hardware timestamp through this binding, so events
// are stamped from the monotonic wall clock on arrival.
func (c *Client) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	c.wg.Add(1)
	defer c.wg.Done()

	if !c.capturing.Load() || len(packet.Data) == 0 {
		return
	}
	c.sink.OnEventCaptured(uint64(time.Now().UnixNano()), packet.Data, contracts.Classify(packet.Data))
}

// Start opens the event flow into the sink, reconnecting the selected
// source if a previous Stop disconnected it.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		return ErrNoDeviceSelected
	}
	if c.portConn == nil {
		conn, err := c.inputPort.Connect(*c.source)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
		}
		c.portConn = conn
	}
	c.capturing.Store(true)
	return nil
}

// Stop disconnects the port and waits for any in-flight packet handler to
// finish, so after it returns no event can reach the sink.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing.Load() {
		return nil
	}
	c.capturing.Store(false)
	if c.portConn != nil {
		c.portConn.Disconnect()
		c.portConn = nil
	}
	c.wg.Wait()
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.Stop()
}

// Output is the CoreMIDI transmit backend.
type Output struct {
	logger contracts.Logger
	client coremidi.Client
	port   coremidi.OutputPort
	dest   *coremidi.Destination
	mu     sync.Mutex
}

// NewOutputBackend registers a CoreMIDI client and creates an output port.
func NewOutputBackend(options *contracts.ClientOptions) (*Output, error) {
	client, err := coremidi.NewClient(options.ClientConfig.ClientName)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(client, options.ClientConfig.PortName)
	if err != nil {
		return nil, fmt.Errorf("error creating output port: %w", err)
	}
	return &Output{logger: options.Logger, client: client, port: port}, nil
}

// ListDevices retrieves and returns available MIDI destinations.
func (o *Output) ListDevices() ([]contracts.DeviceInfo, error) {
	dests, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(dests) == 0 {
		o.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(dests))
	for i, dest := range dests {
		entity := dest.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         dest.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice picks the destination with the given ID.
func (o *Output) SelectDevice(deviceID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	dests, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if deviceID < 0 || deviceID >= len(dests) {
		o.logger.Error(ErrInvalidMIDIDevice.Error())
		return ErrInvalidMIDIDevice
	}
	o.dest = &dests[deviceID]
	return nil
}

// Transmit submits one encoded message to the selected destination.
func (o *Output) Transmit(payload []byte) error {
	o.mu.Lock()
	dest := o.dest
	o.mu.Unlock()

	if dest == nil {
		return ErrNoDeviceSelected
	}
	packet := coremidi.NewPacket(payload, 0)
	return packet.Send(&o.port, dest)
}

// Close releases the output connection.
func (o *Output) Close() error {
	return nil
}
