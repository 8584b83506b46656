package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the current pin level
	ReadPin(pin GPIOPin) bool
}

// Pins assigns hardware pins to the device roles
type Pins struct {
	LED      GPIOPin // status indicator output
	Sender   GPIOPin // replay output
	Receiver GPIOPin // demodulated receiver input, sampled while learning
	Button   GPIOPin // active low, requests learning
	Input    GPIOPin // active low, requests sending
}

// configure sets up outputs low and inputs with pull-ups
func (p Pins) configure(gpio GPIODriver) error {
	for _, pin := range []GPIOPin{p.LED, p.Sender} {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return err
		}
	}
	for _, pin := range []GPIOPin{p.Receiver, p.Button, p.Input} {
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return err
		}
	}
	return nil
}
