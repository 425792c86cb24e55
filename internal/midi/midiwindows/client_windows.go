//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // Sysex buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const (
	// MHDR_DONE marks a header the driver has finished with.
	MHDR_DONE = 0x00000001

	sysexBufferSize  = 1024
	sysexBufferCount = 4
)

// Struct representing MIDI device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// midiHdr mirrors the winmm MIDIHDR struct.
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions
var (
	winmm                      = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs       = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps       = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen             = winmm.NewProc("midiInOpen")
	procMidiInStart            = winmm.NewProc("midiInStart")
	procMidiInStop             = winmm.NewProc("midiInStop")
	procMidiInReset            = winmm.NewProc("midiInReset")
	procMidiInClose            = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader    = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHeader  = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer        = winmm.NewProc("midiInAddBuffer")
	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
	procMidiOutReset           = winmm.NewProc("midiOutReset")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
)

var (
	ErrNoMIDIDevices    = errors.New("no MIDI devices found")
	ErrInvalidHandle    = errors.New("invalid MIDI device handle")
	ErrNoDeviceSelected = errors.New("no MIDI device selected")
)

// Client manages MIDI capture on Windows. The winmm driver invokes the
// input callback on its own thread; that thread is the capture context.
type Client struct {
	logger   contracts.Logger
	sink     contracts.EventSink
	handle   HMIDIIN
	portConn bool
	mu       sync.Mutex
	callback uintptr
	started  atomic.Bool
	wg       sync.WaitGroup

	sysexHeaders [sysexBufferCount]*midiHdr
	sysexData    [sysexBufferCount][]byte
}

// NewCaptureBackend creates a winmm capture backend feeding the given sink.
func NewCaptureBackend(options *contracts.ClientOptions, sink contracts.EventSink) (*Client, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &Client{
		logger: options.Logger,
		sink:   sink,
	}, nil
}

// ListDevices lists the available MIDI input devices.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		c.logger.Warn("no MIDI input devices found")
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			c.logger.Warn(fmt.Sprintf("failed to get information for MIDI device %d", i))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// SelectDevice opens the MIDI input device and registers the sysex buffers.
func (c *Client) SelectDevice(deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.portConn {
		if err := c.closeDevice(); err != nil {
			return fmt.Errorf("failed to close previous MIDI device: %w", err)
		}
	}

	c.callback = windows.NewCallback(midiInCallback)
	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&c.handle)),
		uintptr(deviceID),
		c.callback,
		uintptr(unsafe.Pointer(c)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("failed to open MIDI device %d: %v", deviceID, err))
		return fmt.Errorf("failed to open MIDI device %d: %v", deviceID, err)
	}

	if err := c.prepareSysexBuffers(); err != nil {
		_ = c.closeDevice()
		return err
	}

	c.portConn = true
	c.logger.Info(fmt.Sprintf("MIDI device %d connected", deviceID))
	return nil
}

// prepareSysexBuffers hands a set of long-message buffers to the driver so
// fragmented sysex arrives through MIM_LONGDATA.
func (c *Client) prepareSysexBuffers() error {
	for i := 0; i < sysexBufferCount; i++ {
		c.sysexData[i] = make([]byte, sysexBufferSize)
		hdr := &midiHdr{
			lpData:         uintptr(unsafe.Pointer(&c.sysexData[i][0])),
			dwBufferLength: sysexBufferSize,
			dwUser:         uintptr(i),
		}
		c.sysexHeaders[i] = hdr

		r1, _, err := procMidiInPrepareHeader.Call(
			uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
		if r1 != 0 {
			return fmt.Errorf("failed to prepare sysex buffer %d: %v", i, err)
		}
		r1, _, err = procMidiInAddBuffer.Call(
			uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
		if r1 != 0 {
			return fmt.Errorf("failed to add sysex buffer %d: %v", i, err)
		}
	}
	return nil
}

// Start begins MIDI capture on the opened device.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.portConn {
		return ErrNoDeviceSelected
	}
	if c.handle == 0 {
		return ErrInvalidHandle
	}

	r1, _, err := procMidiInStart.Call(uintptr(c.handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("failed to start MIDI capture: %v", err))
		return fmt.Errorf("failed to start MIDI capture: %v", err)
	}
	c.started.Store(true)
	c.logger.Info("MIDI capture started")
	return nil
}

// Stop halts capture. midiInStop synchronizes with the driver callback, and
// the WaitGroup drains any handler still forwarding an event, so after Stop
// returns the sink receives nothing further.
func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started.Load() {
		return nil
	}
	c.started.Store(false)

	if c.handle == 0 {
		return ErrInvalidHandle
	}
	r1, _, err := procMidiInStop.Call(uintptr(c.handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("failed to stop MIDI capture: %v", err))
		return fmt.Errorf("failed to stop MIDI capture: %v", err)
	}
	c.wg.Wait()
	return nil
}

// Close stops capture and releases the device and its sysex buffers.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.portConn {
		return nil
	}
	return c.closeDevice()
}

func (c *Client) closeDevice() error {
	if c.handle == 0 {
		return ErrInvalidHandle
	}
	c.started.Store(false)
	procMidiInReset.Call(uintptr(c.handle))

	for i, hdr := range c.sysexHeaders {
		if hdr == nil {
			continue
		}
		procMidiInUnprepareHeader.Call(
			uintptr(c.handle), uintptr(unsafe.Pointer(hdr)), unsafe.Sizeof(*hdr))
		c.sysexHeaders[i] = nil
		c.sysexData[i] = nil
	}

	r1, _, err := procMidiInClose.Call(uintptr(c.handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("failed to close MIDI device: %v", err))
		return fmt.Errorf("failed to close MIDI device: %v", err)
	}
	c.portConn = false
	c.handle = 0
	return nil
}

// shortMessageLength returns the byte count of a channel or system common
// message from its status byte.
func shortMessageLength(status byte) int {
	switch {
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 3
	case status < 0xF0:
		return 2
	case status == 0xF1, status == 0xF3:
		return 2
	case status == 0xF2:
		return 3
	default:
		return 1
	}
}

// midiInCallback processes incoming MIDI messages on the driver thread.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	c := (*Client)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		c.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		c.logger.Info("MIDI device closed")
	case MIM_DATA:
		c.wg.Add(1)
		defer c.wg.Done()
		if !c.started.Load() {
			return 0
		}

		status := byte(dwParam1 & 0xFF)
		n := shortMessageLength(status)
		buf := [3]byte{status, byte((dwParam1 >> 8) & 0xFF), byte((dwParam1 >> 16) & 0xFF)}
		payload := buf[:n]

		// dwParam2 is milliseconds since midiInStart.
		c.sink.OnEventCaptured(uint64(dwParam2), payload, contracts.Classify(payload))
	case MIM_LONGDATA, MIM_LONGERROR:
		c.wg.Add(1)
		defer c.wg.Done()

		hdr := (*midiHdr)(unsafe.Pointer(dwParam1))
		if c.started.Load() && wMsg == MIM_LONGDATA && hdr.dwBytesRecorded > 0 {
			idx := int(hdr.dwUser)
			payload := c.sysexData[idx][:hdr.dwBytesRecorded]
			c.sink.OnEventCaptured(uint64(dwParam2), payload, contracts.KindSysex)
		}

		// Hand the buffer back to the driver unless the device is closing.
		if c.started.Load() {
			r1, _, err := procMidiInAddBuffer.Call(
				uintptr(c.handle), dwParam1, unsafe.Sizeof(*hdr))
			if r1 != 0 {
				c.logger.Error(fmt.Sprintf("failed to re-add sysex buffer: %v", err))
			}
		}
	case MIM_ERROR:
		c.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		c.logger.Debug("received MIM_MOREDATA message; ignored")
	default:
		c.logger.Warn(fmt.Sprintf("unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// Output manages MIDI transmission on Windows.
type Output struct {
	logger contracts.Logger
	handle HMIDIOUT
	opened bool
	mu     sync.Mutex
}

// NewOutputBackend creates a winmm output backend.
func NewOutputBackend(options *contracts.ClientOptions) (*Output, error) {
	return &Output{logger: options.Logger}, nil
}

// ListDevices lists the available MIDI output devices.
func (o *Output) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		o.logger.Warn("no MIDI output devices found")
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// SelectDevice opens the MIDI output device with the given ID.
func (o *Output) SelectDevice(deviceID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.opened {
		procMidiOutReset.Call(uintptr(o.handle))
		procMidiOutClose.Call(uintptr(o.handle))
		o.opened = false
		o.handle = 0
	}

	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&o.handle)),
		uintptr(deviceID),
		0, 0, 0,
	)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI output device %d: %v", deviceID, err)
	}
	o.opened = true
	return nil
}

// Transmit submits one message. Short messages go out as a packed dword;
// sysex goes through a prepared long-message header, waiting for the driver
// to finish with the buffer before releasing it.
func (o *Output) Transmit(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return ErrNoDeviceSelected
	}

	if payload[0] == contracts.StatusSysexStart || len(payload) > 3 {
		return o.transmitLong(payload)
	}

	var packed uint32
	for i, b := range payload {
		packed |= uint32(b) << (8 * i)
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(packed))
	if r1 != 0 {
		return fmt.Errorf("failed to send MIDI message: %v", err)
	}
	return nil
}

func (o *Output) transmitLong(payload []byte) error {
	hdr := midiHdr{
		lpData:         uintptr(unsafe.Pointer(&payload[0])),
		dwBufferLength: uint32(len(payload)),
	}

	r1, _, err := procMidiOutPrepareHeader.Call(
		uintptr(o.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
	if r1 != 0 {
		return fmt.Errorf("failed to prepare sysex header: %v", err)
	}
	r1, _, err = procMidiOutLongMsg.Call(
		uintptr(o.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
	if r1 != 0 {
		procMidiOutUnprepareHeader.Call(
			uintptr(o.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
		return fmt.Errorf("failed to send sysex message: %v", err)
	}

	for hdr.dwFlags&MHDR_DONE == 0 {
		time.Sleep(time.Millisecond)
	}
	procMidiOutUnprepareHeader.Call(
		uintptr(o.handle), uintptr(unsafe.Pointer(&hdr)), unsafe.Sizeof(hdr))
	return nil
}

// Close releases the output device.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.opened {
		return nil
	}
	procMidiOutReset.Call(uintptr(o.handle))
	r1, _, err := procMidiOutClose.Call(uintptr(o.handle))
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI output device: %v", err)
	}
	o.opened = false
	o.handle = 0
	return nil
}
