package hardware

import (
	"errors"
	"math"
	"sync"
	"time"

	deverrors "github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/i2c"
)

const (
	REG_MODE1        = 0x00
	REG_MODE2        = 0x01
	REG_LED0_ON_L    = 0x06
	REG_ALL_LED_ON_L = 0xFA
	REG_PRESCALE     = 0xFE

	MODE1_RESTART = 0x80
	MODE1_AI      = 0x20
	MODE1_SLEEP   = 0x10
	MODE1_ALLCALL = 0x01
	MODE2_OUTDRV  = 0x04

	// Bit 4 of LEDn_OFF_H forces the output fully off.
	LED_FULL = 0x10

	DEFAULT_ADDRESS   = 0x40
	DEFAULT_FREQUENCY = 50
	DEFAULT_MIN_PULSE = 500
	DEFAULT_MAX_PULSE = 2500

	OSC_CLOCK = 25000000
	PWM_STEPS = 4096

	CMD_MAX_RETRIES = 5
	CMD_RETRY_DELAY = time.Millisecond
)

var (
	ERR_MAX_RETRIES = errors.New("CMD_MAX_RETRIES reached while attempting to write")
	ERR_BAD_PULSE   = errors.New("pulse range must satisfy 0 < min < max")
)

type PCA9685Config struct {
	Address   uint16
	Frequency float64
	MinPulse  int
	MaxPulse  int
}

// PCA9685 drives a 16-channel PWM expander configured for servo pulses.
type PCA9685 struct {
	bus    i2c.Bus
	config PCA9685Config
	lock   sync.Mutex
}

// NewPCA9685 wakes the chip, programs the prescaler and turns every output off.
func NewPCA9685(bus i2c.Bus, config PCA9685Config) (p *PCA9685, err error) {
	if config.Address == 0 {
		config.Address = DEFAULT_ADDRESS
	}
	if config.Frequency <= 0 {
		config.Frequency = DEFAULT_FREQUENCY
	}
	if config.MinPulse == 0 && config.MaxPulse == 0 {
		config.MinPulse, config.MaxPulse = DEFAULT_MIN_PULSE, DEFAULT_MAX_PULSE
	}
	if config.MinPulse <= 0 || config.MaxPulse <= config.MinPulse {
		return nil, ERR_BAD_PULSE
	}

	p = &PCA9685{
		bus:    bus,
		config: config,
	}

	// prescaler can only be written while asleep
	steps := []struct {
		reg  byte
		data []byte
		wait time.Duration
	}{
		{REG_MODE2, []byte{MODE2_OUTDRV}, 0},
		{REG_MODE1, []byte{MODE1_SLEEP | MODE1_ALLCALL}, 0},
		{REG_PRESCALE, []byte{Prescale(config.Frequency)}, 0},
		{REG_MODE1, []byte{MODE1_AI | MODE1_ALLCALL}, 500 * time.Microsecond},
		{REG_MODE1, []byte{MODE1_RESTART | MODE1_AI | MODE1_ALLCALL}, 0},
	}
	for _, s := range steps {
		if err = p.write(s.reg, s.data...); err != nil {
			return nil, err
		}
		if s.wait > 0 {
			time.Sleep(s.wait)
		}
	}

	if err = p.AllOff(); err != nil {
		return nil, err
	}

	return p, nil
}

// Prescale computes the PRE_SCALE register value for a PWM frequency in Hz.
func Prescale(freq float64) byte {
	v := math.Round(OSC_CLOCK/(PWM_STEPS*freq)) - 1
	if v < 3 {
		v = 3
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}

// Ticks converts a servo angle to the OFF count of a pulse starting at tick 0.
func (p *PCA9685) Ticks(deg float64) uint16 {
	deg = ClampAngle(deg)
	span := float64(p.config.MaxPulse - p.config.MinPulse)
	pulse := float64(p.config.MinPulse) + (deg+90)/180*span

	period := 1e6 / p.config.Frequency
	ticks := math.Round(pulse / period * PWM_STEPS)
	if ticks > PWM_STEPS-1 {
		ticks = PWM_STEPS - 1
	}
	return uint16(ticks)
}

func (p *PCA9685) SetAngle(channel int, deg float64) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	return p.SetPWM(channel, 0, p.Ticks(deg))
}

// SetPWM writes the raw ON/OFF counts of a channel.
func (p *PCA9685) SetPWM(channel int, on, off uint16) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	reg := byte(REG_LED0_ON_L + 4*channel)
	return p.write(reg, byte(on), byte(on>>8), byte(off), byte(off>>8))
}

func (p *PCA9685) Off(channel int) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	reg := byte(REG_LED0_ON_L + 4*channel)
	return p.write(reg, 0, 0, 0, LED_FULL)
}

func (p *PCA9685) AllOff() error {
	return p.write(REG_ALL_LED_ON_L, 0, 0, 0, LED_FULL)
}

func (p *PCA9685) PulseRange() (min, max int) {
	return p.config.MinPulse, p.config.MaxPulse
}

// write sends a register frame, retrying transient bus failures.
func (p *PCA9685) write(reg byte, data ...byte) (err error) {
	raw, err := i2c.RegWrite(reg, data...)
	if err != nil {
		return err
	}

	// keep frames from different goroutines whole
	p.lock.Lock()
	defer p.lock.Unlock()

	for i := 0; i < CMD_MAX_RETRIES; i++ {
		if err = p.bus.Write(p.config.Address, raw); err == nil {
			return nil
		}
		if err == i2c.ERR_BUS_CLOSED {
			return err
		}
		time.Sleep(CMD_RETRY_DELAY)
	}

	return ERR_MAX_RETRIES
}

func checkChannel(channel int) error {
	if channel < 0 || channel >= Channels {
		return deverrors.ChannelError{Channel: channel, Max: Channels - 1}
	}
	return nil
}
