package stream

import (
	"errors"
	"sync"

	"github.com/leandrodaf/midistream/internal/engine"
	"github.com/leandrodaf/midistream/sdk/contracts"
)

var (
	_ contracts.InputDevice  = (*inputDevice)(nil)
	_ contracts.OutputDevice = (*outputDevice)(nil)
	_ contracts.OutputDevice = (*ringOutputDevice)(nil)
)

// inputDevice pairs the ingestion engine with its platform backend.
type inputDevice struct {
	*engine.Input
	backend inputBackend
}

func (d *inputDevice) ListDevices() ([]contracts.DeviceInfo, error) {
	return d.backend.ListDevices()
}

func (d *inputDevice) SelectDevice(deviceID int) error {
	return d.backend.SelectDevice(deviceID)
}

func (d *inputDevice) Close() error {
	// Stop first so no capture event can touch a closing backend.
	if err := d.Input.StopCapture(); err != nil && !errors.Is(err, contracts.ErrCaptureNotActive) {
		return err
	}
	return d.backend.Close()
}

// outputDevice sends synchronously through the backend transmitter.
type outputDevice struct {
	out     *engine.Output
	backend outputBackend
}

func (d *outputDevice) Send(payload []byte) error {
	return d.out.Send(payload)
}

func (d *outputDevice) ListDevices() ([]contracts.DeviceInfo, error) {
	return d.backend.ListDevices()
}

func (d *outputDevice) SelectDevice(deviceID int) error {
	return d.backend.SelectDevice(deviceID)
}

func (d *outputDevice) Close() error {
	return d.backend.Close()
}

// ringOutputDevice hands messages off through the engine's bounded byte
// ring. A dedicated goroutine is the ring's single consumer, draining into
// the backend transmitter, so Send never blocks on the native transport.
type ringOutputDevice struct {
	out     *engine.Output
	backend outputBackend

	notify chan struct{}
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func newRingOutputDevice(log contracts.Logger, backend outputBackend, ringSize int) *ringOutputDevice {
	d := &ringOutputDevice{
		out:     engine.NewRingOutput(log, ringSize),
		backend: backend,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.pump()
	return d
}

func (d *ringOutputDevice) pump() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			// Flush whatever was accepted before Close.
			d.out.Drain(d.backend.Transmit)
			return
		case <-d.notify:
			d.out.Drain(d.backend.Transmit)
		}
	}
}

func (d *ringOutputDevice) Send(payload []byte) error {
	if err := d.out.Send(payload); err != nil {
		return err
	}
	select {
	case d.notify <- struct{}{}:
	default:
	}
	return nil
}

func (d *ringOutputDevice) ListDevices() ([]contracts.DeviceInfo, error) {
	return d.backend.ListDevices()
}

func (d *ringOutputDevice) SelectDevice(deviceID int) error {
	return d.backend.SelectDevice(deviceID)
}

func (d *ringOutputDevice) Close() error {
	d.once.Do(func() {
		close(d.stop)
	})
	d.wg.Wait()
	return d.backend.Close()
}
