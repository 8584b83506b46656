// Package protocol implements the console wire format shared by the
// firmware and the host tools.
//
// A message is framed as
//
//	len | seq | payload... | crc16 hi | crc16 lo | 0x7E
//
// where len counts every byte of the message, seq carries MessageDest in
// the high nibble and a 4-bit sequence number in the low nibble, and the
// payload is a series of VLQ encoded command IDs each followed by its
// arguments.
package protocol

import "errors"

// Version represents the console protocol version
const Version = "irlearn-1"

// Framing constants
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 255
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)

// Command IDs understood by the firmware console
const (
	CmdStatus       = 0 // response: state=%c flags=%c length=%hu times=%c
	CmdGetStatus    = 1
	CmdFrame        = 2 // response: data=%*s
	CmdGetFrame     = 3
	CmdRequestLearn = 4
	CmdRequestSend  = 5
	CmdAck          = 6 // response: cmd=%c accepted=%c
	CmdGetEvents    = 7
	CmdEvent        = 8  // response: kind=%c clock=%u v1=%u v2=%u
	CmdIdentify     = 9  // offset=%u count=%c
	CmdIdentifyData = 10 // response: offset=%u data=%.*s
)

// IdentifyChunkMax is the largest dictionary chunk one response carries
const IdentifyChunkMax = 40

var (
	// ErrNeedMore is returned while a message is still incomplete
	ErrNeedMore = errors.New("incomplete message")
	// ErrBadMessage is returned for a malformed frame
	ErrBadMessage = errors.New("malformed message")
	// ErrPayloadTooLong is returned when a payload does not fit one message
	ErrPayloadTooLong = errors.New("payload too long")
)

// Message is a decoded frame
type Message struct {
	Sequence uint8  // low nibble of the sequence byte
	Payload  []byte // data between header and trailer
}
