package core

import "irlearn/protocol"

// SerialPort is the byte stream the console runs on.
// TinyGo's machine.Serial satisfies it.
type SerialPort interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(data []byte) (int, error)
}

// Console serves host requests over a serial port. It is polled by the
// main loop only while the device is Idle, so handlers may read the
// device frame; mode changes go through the same guarded request as
// the trigger pins.
type Console struct {
	dev       *Device
	port      SerialPort
	registry  *CommandRegistry
	transport *protocol.Transport

	// dictionary text served by identify
	dict []byte
}

// NewConsole attaches a console on port to dev
func NewConsole(dev *Device, port SerialPort) *Console {
	c := &Console{
		dev:      dev,
		port:     port,
		registry: NewCommandRegistry(),
	}
	c.transport = protocol.NewTransport(c.registry.Dispatch)
	c.registerCommands()
	c.dict = []byte(c.registry.Dictionary())
	dev.AttachConsole(c)
	return c
}

func (c *Console) registerCommands() {
	r := c.registry
	// Responses (device -> host)
	_ = r.Register(protocol.CmdStatus, "status", "state=%c flags=%c length=%hu times=%c", nil)
	_ = r.Register(protocol.CmdFrame, "frame", "data=%*s", nil)
	_ = r.Register(protocol.CmdAck, "ack", "cmd=%c accepted=%c", nil)
	_ = r.Register(protocol.CmdEvent, "event", "kind=%c clock=%u v1=%u v2=%u", nil)
	_ = r.Register(protocol.CmdIdentifyData, "identify_response", "offset=%u data=%.*s", nil)

	// Commands (host -> device)
	_ = r.Register(protocol.CmdGetStatus, "get_status", "", c.handleGetStatus)
	_ = r.Register(protocol.CmdGetFrame, "get_frame", "", c.handleGetFrame)
	_ = r.Register(protocol.CmdRequestLearn, "request_learn", "", c.handleRequestLearn)
	_ = r.Register(protocol.CmdRequestSend, "request_send", "", c.handleRequestSend)
	_ = r.Register(protocol.CmdGetEvents, "get_events", "", c.handleGetEvents)
	_ = r.Register(protocol.CmdIdentify, "identify", "offset=%u count=%c", c.handleIdentify)
}

// Registry returns the console command registry
func (c *Console) Registry() *CommandRegistry {
	return c.registry
}

// Poll reads pending bytes, runs complete requests and writes replies
func (c *Console) Poll() {
	var b [1]byte
	for c.port.Buffered() > 0 && c.transport.Free() > 0 {
		v, err := c.port.ReadByte()
		if err != nil {
			break
		}
		b[0] = v
		c.transport.Feed(b[:])
	}
	c.transport.Process()
	c.flush()
}

// flush writes queued responses, keeping what the port did not take
func (c *Console) flush() {
	out := c.transport.Output()
	if len(out) == 0 {
		return
	}
	n, err := c.port.Write(out)
	if err != nil {
		// host gone; drop stale replies
		c.transport.Consume(len(out))
		return
	}
	c.transport.Consume(n)
}

func (c *Console) ack(cmdID uint16, accepted bool) {
	c.transport.Respond(protocol.CmdAck, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(cmdID))
		protocol.EncodeVLQUint(output, boolToU32(accepted))
	})
}

// handleGetStatus reports mode, flags and frame size
func (c *Console) handleGetStatus(data *[]byte) error {
	f := c.dev.Frame()
	c.transport.Respond(protocol.CmdStatus, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(c.dev.Mode()))
		protocol.EncodeVLQUint(output, uint32(c.dev.Flags()))
		protocol.EncodeVLQUint(output, uint32(f.Len()))
		protocol.EncodeVLQUint(output, uint32(f.TimesCount()))
	})
	c.ack(protocol.CmdGetStatus, true)
	return nil
}

// handleGetFrame returns the frame blob in its persisted layout
func (c *Console) handleGetFrame(data *[]byte) error {
	blob, _ := c.dev.Frame().MarshalBinary()
	c.transport.Respond(protocol.CmdFrame, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQBytes(output, blob)
	})
	c.ack(protocol.CmdGetFrame, true)
	return nil
}

func (c *Console) handleRequestLearn(data *[]byte) error {
	c.ack(protocol.CmdRequestLearn, c.dev.Request(ModeReceiving))
	return nil
}

func (c *Console) handleRequestSend(data *[]byte) error {
	c.ack(protocol.CmdRequestSend, c.dev.Request(ModeSending))
	return nil
}

// handleGetEvents replays the event ring, oldest first
func (c *Console) handleGetEvents(data *[]byte) error {
	for _, evt := range Events() {
		evt := evt
		c.transport.Respond(protocol.CmdEvent, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, uint32(evt.Kind))
			protocol.EncodeVLQUint(output, evt.Clock)
			protocol.EncodeVLQUint(output, evt.Value1)
			protocol.EncodeVLQUint(output, evt.Value2)
		})
	}
	c.ack(protocol.CmdGetEvents, true)
	return nil
}

// handleIdentify returns one chunk of the message dictionary. An empty
// chunk marks the end.
func (c *Console) handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if count > protocol.IdentifyChunkMax {
		count = protocol.IdentifyChunkMax
	}

	var chunk []byte
	if offset < uint32(len(c.dict)) {
		end := offset + count
		if end > uint32(len(c.dict)) {
			end = uint32(len(c.dict))
		}
		chunk = c.dict[offset:end]
	}
	c.transport.Respond(protocol.CmdIdentifyData, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
	c.ack(protocol.CmdIdentify, true)
	return nil
}
