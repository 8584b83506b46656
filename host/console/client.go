// Package console is the host side of the device console: it opens the
// serial link and wraps each console command in a typed call.
package console

import (
	"errors"
	"fmt"
	"io"
	"time"

	"irlearn/core"
	"irlearn/host/serial"
	"irlearn/protocol"
)

// DefaultTimeout bounds every console call
const DefaultTimeout = 2 * time.Second

// ErrRejected is returned when the device refuses a mode request
// because it is busy.
var ErrRejected = errors.New("request rejected: device busy")

// Status is the decoded status response
type Status struct {
	Mode       core.Mode
	Flags      uint8
	Length     int
	TimesCount int
}

// HasFrame reports whether the device has a learned frame stored
func (s Status) HasFrame() bool {
	return s.Flags&core.FlagFrame != 0
}

// Client is a connection to the device console
type Client struct {
	transport *protocol.HostTransport
	Timeout   time.Duration
}

// Connect opens device with the default serial settings
func Connect(device string) (*Client, error) {
	return ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the serial port described by cfg
func ConnectWithConfig(cfg *serial.Config) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	// drop anything the device printed before we connected
	_ = port.Flush()
	return NewClient(port), nil
}

// NewClient runs the console protocol over an already open port
func NewClient(port io.ReadWriteCloser) *Client {
	return &Client{
		transport: protocol.NewHostTransport(port),
		Timeout:   DefaultTimeout,
	}
}

// Close closes the connection
func (c *Client) Close() error {
	return c.transport.Close()
}

// call sends cmdID and returns the responses before the ack together
// with the ack's accepted flag.
func (c *Client) call(cmdID uint16) ([]protocol.Response, bool, error) {
	responses, err := c.transport.Call(cmdID, nil, c.Timeout)
	if err != nil {
		return nil, false, err
	}

	ack := responses[len(responses)-1]
	args, err := decodeUints(ack.Data, 2)
	if err != nil {
		return nil, false, fmt.Errorf("decode ack: %w", err)
	}
	if uint16(args[0]) != cmdID {
		return nil, false, fmt.Errorf("ack for command %d, expected %d", args[0], cmdID)
	}
	return responses[:len(responses)-1], args[1] != 0, nil
}

// single returns the only response of the expected kind
func single(responses []protocol.Response, cmdID uint16) (protocol.Response, error) {
	for _, r := range responses {
		if r.CmdID == cmdID {
			return r, nil
		}
	}
	return protocol.Response{}, fmt.Errorf("missing response %d", cmdID)
}

// Status queries the device mode and frame summary
func (c *Client) Status() (Status, error) {
	responses, _, err := c.call(protocol.CmdGetStatus)
	if err != nil {
		return Status{}, err
	}
	r, err := single(responses, protocol.CmdStatus)
	if err != nil {
		return Status{}, err
	}
	args, err := decodeUints(r.Data, 4)
	if err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return Status{
		Mode:       core.Mode(args[0]),
		Flags:      uint8(args[1]),
		Length:     int(args[2]),
		TimesCount: int(args[3]),
	}, nil
}

// Frame downloads the device frame
func (c *Client) Frame() (*core.Frame, error) {
	responses, _, err := c.call(protocol.CmdGetFrame)
	if err != nil {
		return nil, err
	}
	r, err := single(responses, protocol.CmdFrame)
	if err != nil {
		return nil, err
	}
	data := r.Data
	blob, err := protocol.DecodeVLQBytes(&data)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	frame := &core.Frame{}
	if err := frame.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return frame, nil
}

// RequestLearn starts a learning session on the device
func (c *Client) RequestLearn() error {
	return c.request(protocol.CmdRequestLearn)
}

// RequestSend replays the stored frame
func (c *Client) RequestSend() error {
	return c.request(protocol.CmdRequestSend)
}

func (c *Client) request(cmdID uint16) error {
	_, accepted, err := c.call(cmdID)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrRejected
	}
	return nil
}

// Events fetches the device event ring, oldest first
func (c *Client) Events() ([]core.Event, error) {
	responses, _, err := c.call(protocol.CmdGetEvents)
	if err != nil {
		return nil, err
	}
	var events []core.Event
	for _, r := range responses {
		if r.CmdID != protocol.CmdEvent {
			continue
		}
		args, err := decodeUints(r.Data, 4)
		if err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, core.Event{
			Kind:   uint8(args[0]),
			Clock:  args[1],
			Value1: args[2],
			Value2: args[3],
		})
	}
	return events, nil
}

// Dictionary downloads the console message dictionary in chunks
func (c *Client) Dictionary() (string, error) {
	var dict []byte
	for {
		offset := uint32(len(dict))
		responses, err := c.transport.Call(protocol.CmdIdentify, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, offset)
			protocol.EncodeVLQUint(output, protocol.IdentifyChunkMax)
		}, c.Timeout)
		if err != nil {
			return "", fmt.Errorf("identify at %d: %w", offset, err)
		}
		r, err := single(responses, protocol.CmdIdentifyData)
		if err != nil {
			return "", err
		}
		data := r.Data
		got, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return "", fmt.Errorf("decode identify: %w", err)
		}
		if got != offset {
			return "", fmt.Errorf("identify returned offset %d, expected %d", got, offset)
		}
		chunk, err := protocol.DecodeVLQBytes(&data)
		if err != nil {
			return "", fmt.Errorf("decode identify: %w", err)
		}
		if len(chunk) == 0 {
			return string(dict), nil
		}
		dict = append(dict, chunk...)
	}
}

func decodeUints(data []byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
