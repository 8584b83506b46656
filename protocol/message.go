package protocol

// CRC16 calculates the CRC16-CCITT checksum used by the framing.
// This is the same checksum Klipper and Anchor use.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// AppendMessage frames payload with the given sequence and appends the
// message to dst.
func AppendMessage(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MessagePayloadMax {
		return dst, ErrPayloadTooLong
	}
	start := len(dst)
	dst = append(dst, byte(len(payload)+MessageLengthMin), MessageDest|seq&MessageSeqMask)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), MessageValueSync), nil
}

// ParseMessage decodes the message at the start of data and returns it
// with the number of bytes consumed. ErrNeedMore means data holds the
// beginning of a valid message; on ErrBadMessage the caller should drop
// bytes up to the next sync byte (see Resync).
func ParseMessage(data []byte) (Message, int, error) {
	if len(data) < MessageLengthMin {
		return Message{}, 0, ErrNeedMore
	}
	msgLen := int(data[0])
	if msgLen < MessageLengthMin {
		return Message{}, 0, ErrBadMessage
	}
	if data[1]&^MessageSeqMask != MessageDest {
		return Message{}, 0, ErrBadMessage
	}
	if len(data) < msgLen {
		return Message{}, 0, ErrNeedMore
	}
	if data[msgLen-1] != MessageValueSync {
		return Message{}, 0, ErrBadMessage
	}
	frameCRC := uint16(data[msgLen-3])<<8 | uint16(data[msgLen-2])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return Message{}, 0, ErrBadMessage
	}
	return Message{
		Sequence: data[1] & MessageSeqMask,
		Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
	}, msgLen, nil
}

// Resync returns how many bytes to drop so data starts after the next
// sync byte. All of data is dropped when there is none.
func Resync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i + 1
		}
	}
	return len(data)
}
