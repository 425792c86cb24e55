package contracts

import "errors"

// Configuration errors. These are reported synchronously to the caller and
// leave engine state unchanged.
var (
	ErrNilCallback        = errors.New("callback function is nil")
	ErrCallbackAlreadySet = errors.New("a delivery callback is already set")
	ErrNoCallbackSet      = errors.New("no delivery callback is set")
	ErrCallbackModeActive = errors.New("a delivery callback is active; polling is unavailable")
	ErrPollingModeActive  = errors.New("polling delivery is active; cancel it before setting a callback")
	ErrPollingUnavailable = errors.New("no delivery queue allocated; only callback delivery is available")
	ErrEmptyMessage       = errors.New("message payload is empty")
	ErrCaptureActive      = errors.New("capture is already running")
	ErrCaptureNotActive   = errors.New("capture is not running")
)

// Capacity and transport conditions. Non-fatal; the engine keeps operating.
var (
	ErrOutputRingFull = errors.New("output ring has no space for the message")
	ErrTransmit       = errors.New("native transmit rejected the message")
)
