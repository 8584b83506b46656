package core

import (
	"errors"
	"testing"
)

func TestConfigRecordLayout(t *testing.T) {
	cfg := &Config{Flags: FlagFrame, Frame: *frameOf(560, 1690)}
	blob, err := cfg.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if len(blob) != 169 {
		t.Fatalf("Expected 169 bytes, got %d", len(blob))
	}
	// "idna" little endian, version, flags
	header := []byte{0x69, 0x64, 0x6e, 0x61, 1, 1}
	for i, b := range header {
		if blob[i] != b {
			t.Errorf("Header byte %d: expected %#x, got %#x", i, b, blob[i])
		}
	}

	var decoded Config
	if err := decoded.UnmarshalBinary(blob); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if decoded.Flags != FlagFrame || !decoded.Frame.Equal(&cfg.Frame) {
		t.Error("Decoded record differs")
	}
}

func TestConfigRejectsForeignRecord(t *testing.T) {
	blob, _ := (&Config{}).MarshalBinary()

	badMagic := append([]byte(nil), blob...)
	badMagic[0] = 0
	badVersion := append([]byte(nil), blob...)
	badVersion[4] = 2

	for name, data := range map[string][]byte{"magic": badMagic, "version": badVersion, "short": blob[:3]} {
		var cfg Config
		if err := cfg.UnmarshalBinary(data); err != ErrConfigInvalid {
			t.Errorf("%s: expected ErrConfigInvalid, got %v", name, err)
		}
	}
}

func TestConfigWithoutFrameIgnoresBlob(t *testing.T) {
	blob, _ := (&Config{}).MarshalBinary()
	blob[ConfigHeaderSize+160] = 0xFF // corrupt times count

	var cfg Config
	if err := cfg.UnmarshalBinary(blob); err != nil {
		t.Errorf("Frame blob must be ignored without the frame flag, got %v", err)
	}
}

func TestEEPROMStoreRoundTrip(t *testing.T) {
	mem := NewMemoryEEPROM(256)
	store := NewEEPROMStore(mem, 16)

	if _, err := store.Load(); err != ErrConfigInvalid {
		t.Fatalf("Erased memory should be invalid, got %v", err)
	}

	f := frameOf(4500, 560, 1690, 560)
	if err := store.SaveMeta(FlagFrame); err != nil {
		t.Fatalf("SaveMeta failed: %v", err)
	}
	if err := store.SaveFrame(f); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.HasFrame() || !cfg.Frame.Equal(f) {
		t.Error("Loaded frame differs")
	}

	// nothing before the base offset is touched
	for i := 0; i < 16; i++ {
		if mem.Bytes()[i] != 0xFF {
			t.Fatalf("Byte %d below base was written", i)
		}
	}
}

func TestEEPROMStoreUpdateSkipsUnchanged(t *testing.T) {
	mem := NewMemoryEEPROM(256)
	store := NewEEPROMStore(mem, 0)
	f := frameOf(4500, 560, 1690, 560)

	_ = store.SaveMeta(FlagFrame)
	_ = store.SaveFrame(f)
	mem.BytesWritten = 0

	_ = store.SaveMeta(FlagFrame)
	_ = store.SaveFrame(f)
	if mem.BytesWritten != 0 {
		t.Errorf("Identical save wrote %d bytes", mem.BytesWritten)
	}

	// one more edge changes the sequence byte and the length
	f.Add(560)
	_ = store.SaveFrame(f)
	if mem.BytesWritten == 0 || mem.BytesWritten > 3 {
		t.Errorf("Expected a small update, wrote %d bytes", mem.BytesWritten)
	}
}

func TestEEPROMStoreOutOfRange(t *testing.T) {
	store := NewEEPROMStore(NewMemoryEEPROM(64), 0)
	if err := store.SaveFrame(&Frame{}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
}

func TestBootFirstRun(t *testing.T) {
	rig := newTestRig()
	rig.clock.Set(5000)

	if err := rig.dev.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	// OutcomeFirstRun: 2 blinks
	if len(rig.delay.delays) != 3 {
		t.Errorf("Expected 3 blink delays, got %d", len(rig.delay.delays))
	}
	if rig.dev.Flags() != DefaultFlags {
		t.Errorf("Expected default flags, got %#x", rig.dev.Flags())
	}
	if rig.clock.Now() != 0 {
		t.Errorf("Boot should restart the clock, got %d", rig.clock.Now())
	}
	if _, err := rig.store.Load(); err != nil {
		t.Errorf("Defaults not persisted: %v", err)
	}

	// second boot finds a valid record and does not blink
	rig.delay.reset()
	if err := rig.dev.Boot(); err != nil {
		t.Fatalf("Second boot failed: %v", err)
	}
	if len(rig.delay.delays) != 0 {
		t.Errorf("Valid record should not blink, got %d delays", len(rig.delay.delays))
	}
}

func TestBootLoadsStoredFrame(t *testing.T) {
	rig := newTestRig()
	f := frameOf(9000, 4500, 560)
	_ = rig.store.SaveMeta(FlagFrame)
	_ = rig.store.SaveFrame(f)

	if err := rig.dev.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	if !rig.dev.Frame().Equal(f) || rig.dev.Flags() != FlagFrame {
		t.Error("Stored frame not loaded")
	}
	if rig.dev.Mode() != ModeIdle {
		t.Errorf("Expected idle, got %s", rig.dev.Mode())
	}
}

func TestBootCorruptFrameClearsFlag(t *testing.T) {
	rig := newTestRig()
	_ = rig.store.SaveMeta(FlagFrame)
	_ = rig.store.SaveFrame(frameOf(560, 1690))
	// times count past the table
	rig.eeprom.Bytes()[ConfigHeaderSize+160] = 20

	if err := rig.dev.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	if rig.dev.Flags()&FlagFrame != 0 {
		t.Error("Corrupt frame must clear the frame flag")
	}
	if rig.dev.Frame().Len() != 0 {
		t.Error("Corrupt frame must not be loaded")
	}
	cfg, err := rig.store.Load()
	if err != nil || cfg.HasFrame() {
		t.Errorf("Cleared flag not persisted: %v", err)
	}
}

type failingStore struct {
	*EEPROMStore
}

func (failingStore) Load() (*Config, error) {
	return nil, ErrOutOfRange
}

func TestBootStoreError(t *testing.T) {
	rig := newTestRig()
	rig.dev.Store = failingStore{}
	if err := rig.dev.Boot(); err != ErrOutOfRange {
		t.Errorf("Expected store error, got %v", err)
	}
}
