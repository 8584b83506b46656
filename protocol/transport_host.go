package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("transport closed")

// Response is one decoded response command
type Response struct {
	CmdID uint16
	Data  []byte // arguments, still VLQ encoded
}

// HostTransport is the host side of the console link: it sends one
// request at a time and collects the response messages that share the
// request's sequence number, up to and including the ack.
type HostTransport struct {
	port io.ReadWriteCloser

	callMu sync.Mutex
	seq    uint8

	messages chan Message
	stopChan chan struct{}
	doneChan chan struct{}
	closeMu  sync.Once

	readErr error
}

// NewHostTransport starts reading messages from port
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:     port,
		messages: make(chan Message, 64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// Call sends cmdID with its arguments and waits for the ack
func (t *HostTransport) Call(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) ([]Response, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	seq := t.seq
	t.seq = (t.seq + 1) & MessageSeqMask

	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}
	if scratch.Overflowed() {
		return nil, ErrPayloadTooLong
	}
	msg, err := AppendMessage(nil, seq, scratch.Result())
	if err != nil {
		return nil, err
	}
	if _, err := t.port.Write(msg); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var responses []Response
	for {
		select {
		case m, ok := <-t.messages:
			if !ok {
				if t.readErr != nil {
					return nil, fmt.Errorf("read response: %w", t.readErr)
				}
				return nil, ErrClosed
			}
			if m.Sequence != seq {
				// stale reply to an earlier, timed out request
				continue
			}
			payload := m.Payload
			id, err := DecodeVLQUint(&payload)
			if err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			responses = append(responses, Response{CmdID: uint16(id), Data: payload})
			if id == CmdAck {
				return responses, nil
			}
		case <-deadline.C:
			return nil, fmt.Errorf("no ack for command %d within %v", cmdID, timeout)
		}
	}
}

// readLoop parses messages from the port until Close or a read error
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)
	defer close(t.messages)

	pending := make([]byte, 0, 2*MessageLengthMax)
	buf := make([]byte, 256)
	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err == io.EOF && n == 0 {
			// serial read timeout
			continue
		}
		if err != nil {
			t.readErr = err
			return
		}
		pending = append(pending, buf[:n]...)

		for len(pending) > 0 {
			msg, used, err := ParseMessage(pending)
			if err == ErrNeedMore {
				break
			}
			if err != nil {
				pending = pending[Resync(pending):]
				continue
			}
			payload := append([]byte(nil), msg.Payload...)
			pending = pending[used:]
			select {
			case t.messages <- Message{Sequence: msg.Sequence, Payload: payload}:
			case <-t.stopChan:
				return
			}
		}
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeMu.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}
