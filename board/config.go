// Package board holds the per-board settings of the firmware: which GPIO
// drives which role, how often a learned signal is repeated and where
// the configuration EEPROM sits on the I2C bus.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"irlearn/core"
)

// Config is the JSON board description
type Config struct {
	Pins PinConfig `json:"pins"`

	SendRepeat      uint8  `json:"send_repeat"`
	BlinkIntervalMS uint32 `json:"blink_interval_ms"`

	// EEPROMAddress is the 7-bit I2C address of the AT24Cxx
	EEPROMAddress uint8 `json:"eeprom_address"`
	// EEPROMOffset is where the configuration record starts
	EEPROMOffset int64 `json:"eeprom_offset"`

	Debug bool `json:"debug"`
}

// PinConfig names the GPIO for each role, e.g. "gpio25"
type PinConfig struct {
	LED      string `json:"led"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Button   string `json:"button"`
	Input    string `json:"input"`
}

// Defaults for a Raspberry Pi Pico with an AT24C32 module
const (
	DefaultLEDPin        = "gpio25"
	DefaultSenderPin     = "gpio15"
	DefaultReceiverPin   = "gpio14"
	DefaultButtonPin     = "gpio13"
	DefaultInputPin      = "gpio12"
	DefaultEEPROMAddress = 0x50
)

var errDuplicatePin = errors.New("pin assigned to more than one role")

// LoadConfig parses a JSON board description and fills in defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// applyDefaults fills in missing values
func applyDefaults(config *Config) {
	if config.Pins.LED == "" {
		config.Pins.LED = DefaultLEDPin
	}
	if config.Pins.Sender == "" {
		config.Pins.Sender = DefaultSenderPin
	}
	if config.Pins.Receiver == "" {
		config.Pins.Receiver = DefaultReceiverPin
	}
	if config.Pins.Button == "" {
		config.Pins.Button = DefaultButtonPin
	}
	if config.Pins.Input == "" {
		config.Pins.Input = DefaultInputPin
	}

	if config.SendRepeat == 0 {
		config.SendRepeat = core.DefaultSendRepeat
	}
	if config.BlinkIntervalMS == 0 {
		config.BlinkIntervalMS = core.DefaultBlinkInterval
	}
	if config.EEPROMAddress == 0 {
		config.EEPROMAddress = DefaultEEPROMAddress
	}
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// CorePins resolves the pin names to GPIO numbers
func (c *Config) CorePins() (core.Pins, error) {
	var pins core.Pins
	roles := []struct {
		name string
		spec string
		dst  *core.GPIOPin
	}{
		{"led", c.Pins.LED, &pins.LED},
		{"sender", c.Pins.Sender, &pins.Sender},
		{"receiver", c.Pins.Receiver, &pins.Receiver},
		{"button", c.Pins.Button, &pins.Button},
		{"input", c.Pins.Input, &pins.Input},
	}

	seen := make(map[core.GPIOPin]string)
	for _, r := range roles {
		pin, err := ParsePin(r.spec)
		if err != nil {
			return pins, fmt.Errorf("%s pin: %w", r.name, err)
		}
		if other, ok := seen[pin]; ok {
			return pins, fmt.Errorf("%s and %s: %w", other, r.name, errDuplicatePin)
		}
		seen[pin] = r.name
		*r.dst = pin
	}
	return pins, nil
}

// Apply configures dev and its board from c
func (c *Config) Apply(dev *core.Device) error {
	pins, err := c.CorePins()
	if err != nil {
		return err
	}
	dev.Board.Pins = pins
	dev.Board.BlinkInterval = c.BlinkIntervalMS
	dev.Repeat = c.SendRepeat
	return nil
}

// ParsePin accepts "gpioN", "GPION" or a bare number
func ParsePin(s string) (core.GPIOPin, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "gpio")
	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil || n > 29 {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	return core.GPIOPin(n), nil
}
