//go:build rp2040

package main

import (
	_ "embed"
	"machine"

	"irlearn/board"
	"irlearn/core"
)

//go:embed board.json
var boardJSON []byte

func main() {
	cfg, err := board.LoadConfig(boardJSON)
	if err != nil {
		cfg = board.DefaultConfig()
	}
	if cfg.Debug {
		InitDebugUART()
	}

	store, err := newEEPROMStore(cfg.EEPROMAddress, cfg.EEPROMOffset)
	if err != nil {
		core.DebugPrintln("eeprom: " + err.Error())
		halt()
	}

	hw := &core.Board{
		GPIO:  NewRPGPIODriver(),
		Delay: busyDelay{},
	}
	dev := core.NewDevice(hw, newHWClock(), store)
	if err := cfg.Apply(dev); err != nil {
		core.DebugPrintln("board: " + err.Error())
		if err := board.DefaultConfig().Apply(dev); err != nil {
			halt()
		}
	}

	if err := dev.Boot(); err != nil {
		core.DebugPrintln("boot: " + err.Error())
	}

	core.NewConsole(dev, machine.Serial)

	if err := watchTriggers(dev, hw.Pins); err != nil {
		core.DebugPrintln("pin interrupts: " + err.Error())
		halt()
	}

	dev.Run()
}

// halt blinks the status LED forever
func halt() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.Set(!led.Get())
		for start := GetHardwareTime(); GetHardwareTime()-start < 100000; {
		}
	}
}
