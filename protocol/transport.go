package protocol

// CommandHandler decodes the arguments of one command from data
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the console link. Bytes read from
// the serial port are fed in; complete messages are dispatched command
// by command and responses are collected for the port writer.
type Transport struct {
	input   *FifoBuffer
	handler CommandHandler
	scratch ScratchOutput
	output  []byte
	seq     uint8

	// Errors counts dropped or undecodable messages
	Errors uint32
}

// NewTransport creates a Transport that dispatches to handler
func NewTransport(handler CommandHandler) *Transport {
	return &Transport{
		input:   NewFifoBuffer(2 * MessageLengthMax),
		handler: handler,
	}
}

// Feed buffers received bytes and returns how many were accepted
func (t *Transport) Feed(data []byte) int {
	return t.input.Write(data)
}

// Free returns how many more bytes Feed can accept
func (t *Transport) Free() int {
	return t.input.Free()
}

// Process dispatches every complete message in the input buffer
func (t *Transport) Process() {
	for t.input.Available() > 0 {
		data := t.input.Data()
		msg, n, err := ParseMessage(data)
		if err == ErrNeedMore {
			if t.input.Free() == 0 {
				// a message that can never complete
				t.Errors++
				t.input.Pop(Resync(data))
				continue
			}
			return
		}
		if err != nil {
			t.Errors++
			t.input.Pop(Resync(data))
			continue
		}

		t.seq = msg.Sequence
		t.dispatch(msg.Payload)
		t.input.Pop(n)
	}
}

// dispatch runs each command of a payload in order
func (t *Transport) dispatch(payload []byte) {
	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.Errors++
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			t.Errors++
			return
		}
	}
}

// Respond encodes one response message carrying cmdID and its
// arguments, tagged with the sequence of the message being processed.
func (t *Transport) Respond(cmdID uint16, args func(output OutputBuffer)) {
	t.scratch.Reset()
	EncodeVLQUint(&t.scratch, uint32(cmdID))
	if args != nil {
		args(&t.scratch)
	}
	if t.scratch.Overflowed() {
		t.Errors++
		return
	}
	t.output, _ = AppendMessage(t.output, t.seq, t.scratch.Result())
}

// Output returns the encoded responses not yet written
func (t *Transport) Output() []byte {
	return t.output
}

// Consume drops n bytes of written output
func (t *Transport) Consume(n int) {
	t.output = t.output[:copy(t.output, t.output[n:])]
}

// Reset discards buffered input and output
func (t *Transport) Reset() {
	t.input.Reset()
	t.output = t.output[:0]
}
