package core

import (
	"encoding/binary"
	"errors"
)

// Persisted configuration markers
const (
	ConfigMagic   uint32 = 0x616e6469
	ConfigVersion uint8  = 1

	FlagFrame    uint8 = 1 << 0 // a valid frame is stored
	DefaultFlags uint8 = 0

	// ConfigHeaderSize is magic (4) + version (1) + flags (1)
	ConfigHeaderSize = 6
	// ConfigBlobSize is the full persisted record size
	ConfigBlobSize = ConfigHeaderSize + FrameBlobSize
)

// ErrConfigInvalid is returned when the stored magic or version does not match
var ErrConfigInvalid = errors.New("config: bad magic or version")

// Config is the process-wide persisted state
type Config struct {
	Flags uint8
	Frame Frame
}

// HasFrame reports whether a learned frame is stored
func (c *Config) HasFrame() bool {
	return c.Flags&FlagFrame != 0
}

// ConfigStore persists the configuration record.
// Load returns ErrConfigInvalid when the stored record is not ours;
// Frame is only populated when FlagFrame is set.
type ConfigStore interface {
	Load() (*Config, error)
	LoadFrame(f *Frame) error
	SaveMeta(flags uint8) error
	SaveFrame(f *Frame) error
}

// encodeHeader writes the fixed header layout
func encodeHeader(buf []byte, flags uint8) {
	binary.LittleEndian.PutUint32(buf[0:4], ConfigMagic)
	buf[4] = ConfigVersion
	buf[5] = flags
}

// decodeHeader validates the header and returns the flags byte
func decodeHeader(buf []byte) (uint8, error) {
	if len(buf) < ConfigHeaderSize {
		return 0, ErrConfigInvalid
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != ConfigMagic {
		return 0, ErrConfigInvalid
	}
	if buf[4] != ConfigVersion {
		return 0, ErrConfigInvalid
	}
	return buf[5], nil
}

// MarshalBinary encodes the full record: header followed by the frame blob
func (c *Config) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ConfigBlobSize)
	encodeHeader(buf, c.Flags)
	c.Frame.encode(buf[ConfigHeaderSize:])
	return buf, nil
}

// UnmarshalBinary decodes a full record. The frame blob is only decoded
// when the frame flag is set.
func (c *Config) UnmarshalBinary(data []byte) error {
	flags, err := decodeHeader(data)
	if err != nil {
		return err
	}
	c.Flags = flags
	c.Frame.Clear()
	if !c.HasFrame() {
		return nil
	}
	if len(data) < ConfigBlobSize {
		return ErrFrameCorrupt
	}
	return c.Frame.UnmarshalBinary(data[ConfigHeaderSize:])
}
