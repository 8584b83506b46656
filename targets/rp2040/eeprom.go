//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/at24cx"

	"irlearn/core"
)

const eepromI2CFrequency = 400000

// newEEPROMStore opens the AT24Cxx on I2C0 (SDA=GP4, SCL=GP5) and
// returns the configuration store on top of it.
func newEEPROMStore(address uint8, offset int64) (*core.EEPROMStore, error) {
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: eepromI2CFrequency,
		// SDA and SCL pins are set to defaults by TinyGo
	})
	if err != nil {
		return nil, err
	}

	eeprom := at24cx.New(i2c)
	eeprom.Configure(at24cx.Config{})
	eeprom.Address = uint16(address)

	return core.NewEEPROMStore(&eeprom, offset), nil
}
