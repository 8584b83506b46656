//go:build rp2040

package main

import (
	"machine"

	"irlearn/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART1 on GPIO8 (TX) and
// GPIO9 (RX) at 115200 baud. The USB serial port stays reserved for the
// console.
func InitDebugUART() {
	debugUART = machine.UART1

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO8,
		RX:       machine.GPIO9,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()
	core.DebugPrintln("=== irlearn debug UART initialized ===")
}
