package onboard

import (
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/hardware"
)

const SIMULATED_LATENCY = 2 * time.Millisecond

// SimulatedDriver is an in-memory servo driver. Every channel starts off.
type SimulatedDriver struct {
	Latency time.Duration

	lock     sync.Mutex
	angles   [hardware.Channels]float64
	off      [hardware.Channels]bool
	writes   int
	failAt   int
	failErr  error
	min, max int
}

func NewSimulatedDriver(pulse PulseConfig) (s *SimulatedDriver) {
	s = &SimulatedDriver{
		Latency: SIMULATED_LATENCY,
		min:     pulse.Min,
		max:     pulse.Max,
	}
	if s.min == 0 && s.max == 0 {
		s.min, s.max = hardware.DEFAULT_MIN_PULSE, hardware.DEFAULT_MAX_PULSE
	}
	for i := range s.off {
		s.off[i] = true
	}
	return
}

// FailAfter makes the n'th write from now, and every write after it, return err.
// A nil err clears the fault.
func (s *SimulatedDriver) FailAfter(n int, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failAt = s.writes + n
	s.failErr = err
}

func (s *SimulatedDriver) SetAngle(channel int, deg float64) error {
	return s.write(channel, func() {
		s.angles[channel] = hardware.ClampAngle(deg)
		s.off[channel] = false
	})
}

func (s *SimulatedDriver) Off(channel int) error {
	return s.write(channel, func() {
		s.off[channel] = true
	})
}

func (s *SimulatedDriver) AllOff() error {
	return s.write(0, func() {
		for i := range s.off {
			s.off[i] = true
		}
	})
}

func (s *SimulatedDriver) PulseRange() (min, max int) {
	return s.min, s.max
}

// Angle returns the last angle written to channel and whether it is being driven.
func (s *SimulatedDriver) Angle(channel int) (deg float64, on bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angles[channel], !s.off[channel]
}

// AnyOn reports whether at least one channel is energized.
func (s *SimulatedDriver) AnyOn() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, off := range s.off {
		if !off {
			return true
		}
	}
	return false
}

func (s *SimulatedDriver) Writes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writes
}

func (s *SimulatedDriver) write(channel int, apply func()) error {
	if channel < 0 || channel >= hardware.Channels {
		return errors.ChannelError{Channel: channel, Max: hardware.Channels - 1}
	}

	if s.Latency > 0 {
		time.Sleep(s.Latency)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.writes++
	if s.failErr != nil && s.writes >= s.failAt {
		return s.failErr
	}
	apply()
	return nil
}

// NewSimulatedCrawler is a crawler over a fresh SimulatedDriver.
func NewSimulatedCrawler(config *CrawlerConfig) (*Crawler, *SimulatedDriver, error) {
	if config == nil {
		config = DefaultConfig()
	}
	driver := NewSimulatedDriver(config.Pulse)
	c, err := NewCrawler(driver, config)
	return c, driver, err
}
