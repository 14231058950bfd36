package hardware

// Channels is the number of PWM outputs on a PCA9685.
const Channels = 16

// ServoDriver positions hobby servos on numbered channels.
type ServoDriver interface {
	// SetAngle drives channel to deg, clamped to [-90, 90].
	SetAngle(channel int, deg float64) error
	// Off stops the pulse on a single channel, leaving the servo limp.
	Off(channel int) error
	// AllOff de-energizes every channel at once.
	AllOff() error
	// PulseRange reports the pulse widths in microseconds mapped to -90 and +90.
	PulseRange() (min, max int)
}

// ClampAngle restricts deg to the servo travel.
func ClampAngle(deg float64) float64 {
	if deg < -90 {
		return -90
	}
	if deg > 90 {
		return 90
	}
	return deg
}
