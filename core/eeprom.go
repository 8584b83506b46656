package core

import (
	"errors"
	"io"
)

// Memory is a byte-addressable non-volatile memory
type Memory interface {
	io.ReaderAt
	io.WriterAt
}

// EEPROMStore implements ConfigStore on top of a Memory. Writes only
// touch bytes whose value changed, like avr-libc's eeprom_update_block.
type EEPROMStore struct {
	mem  Memory
	base int64
}

// NewEEPROMStore stores the configuration record at offset base of mem
func NewEEPROMStore(mem Memory, base int64) *EEPROMStore {
	return &EEPROMStore{mem: mem, base: base}
}

// Load reads and validates the stored record
func (s *EEPROMStore) Load() (*Config, error) {
	var header [ConfigHeaderSize]byte
	if _, err := s.mem.ReadAt(header[:], s.base); err != nil {
		return nil, err
	}
	flags, err := decodeHeader(header[:])
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: flags}
	if cfg.HasFrame() {
		if err := s.LoadFrame(&cfg.Frame); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// LoadFrame reads the stored frame blob into f
func (s *EEPROMStore) LoadFrame(f *Frame) error {
	blob := make([]byte, FrameBlobSize)
	if _, err := s.mem.ReadAt(blob, s.base+ConfigHeaderSize); err != nil {
		return err
	}
	return f.UnmarshalBinary(blob)
}

// SaveMeta writes magic, version and flags
func (s *EEPROMStore) SaveMeta(flags uint8) error {
	var header [ConfigHeaderSize]byte
	encodeHeader(header[:], flags)
	return s.update(s.base, header[:])
}

// SaveFrame writes the frame blob
func (s *EEPROMStore) SaveFrame(f *Frame) error {
	blob, _ := f.MarshalBinary()
	return s.update(s.base+ConfigHeaderSize, blob)
}

// update writes every run of bytes that differs from what is stored
func (s *EEPROMStore) update(off int64, data []byte) error {
	current := make([]byte, len(data))
	if _, err := s.mem.ReadAt(current, off); err != nil {
		return err
	}

	for i := 0; i < len(data); {
		if current[i] == data[i] {
			i++
			continue
		}
		start := i
		for i < len(data) && current[i] != data[i] {
			i++
		}
		if _, err := s.mem.WriteAt(data[start:i], off+int64(start)); err != nil {
			return err
		}
	}
	return nil
}

// ErrOutOfRange is returned by MemoryEEPROM for accesses past its end
var ErrOutOfRange = errors.New("eeprom: access out of range")

// MemoryEEPROM is a RAM-backed Memory used on the host and in tests.
// Fresh memory reads as 0xFF like an erased EEPROM.
type MemoryEEPROM struct {
	data []byte

	// BytesWritten counts every byte passed to WriteAt
	BytesWritten int
}

// NewMemoryEEPROM returns an erased memory of the given size
func NewMemoryEEPROM(size int) *MemoryEEPROM {
	m := &MemoryEEPROM{data: make([]byte, size)}
	for i := range m.data {
		m.data[i] = 0xFF
	}
	return m
}

// ReadAt implements io.ReaderAt
func (m *MemoryEEPROM) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	return copy(p, m.data[off:]), nil
}

// WriteAt implements io.WriterAt
func (m *MemoryEEPROM) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, ErrOutOfRange
	}
	m.BytesWritten += len(p)
	return copy(m.data[off:], p), nil
}

// Bytes returns the raw memory contents
func (m *MemoryEEPROM) Bytes() []byte {
	return m.data
}
