//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/midistream/sdk/contracts"
)

var errUnavailable = errors.New("winmm is not available on this platform")

type Client struct{}

func NewCaptureBackend(options *contracts.ClientOptions, sink contracts.EventSink) (*Client, error) {
	return nil, errUnavailable
}

func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) { return nil, errUnavailable }
func (c *Client) SelectDevice(deviceID int) error              { return errUnavailable }
func (c *Client) Start() error                                 { return errUnavailable }
func (c *Client) Stop() error                                  { return errUnavailable }
func (c *Client) Close() error                                 { return nil }

type Output struct{}

func NewOutputBackend(options *contracts.ClientOptions) (*Output, error) {
	return nil, errUnavailable
}

func (o *Output) ListDevices() ([]contracts.DeviceInfo, error) { return nil, errUnavailable }
func (o *Output) SelectDevice(deviceID int) error              { return errUnavailable }
func (o *Output) Transmit(payload []byte) error                { return errUnavailable }
func (o *Output) Close() error                                 { return nil }
