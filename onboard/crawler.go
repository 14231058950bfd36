package onboard

import (
	goerrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/hardware"
	"github.com/CodedInternet/gocrawler/onboard/i2c"
)

// Crawler drives the eight leg joints through a servo driver. It embeds
// AbortFlag since the servos have no abort line of their own.
type Crawler struct {
	AbortFlag

	driver    hardware.ServoDriver
	legs      [NumLegs]LegConfig
	geometry  Geometry
	StepDelay time.Duration // pause after each keyframe

	lock      sync.RWMutex
	angles    [NumLegs]LegPose
	energized bool

	log *slog.Logger
}

func NewCrawler(driver hardware.ServoDriver, config *CrawlerConfig) (c *Crawler, err error) {
	if driver == nil {
		return nil, fmt.Errorf("crawler needs a servo driver")
	}
	if config == nil {
		config = DefaultConfig()
	}

	c = &Crawler{
		driver:    driver,
		legs:      config.LegList(),
		geometry:  config.Geometry,
		StepDelay: config.StepDelay,
		log:       log.With("component", "crawler"),
	}
	return c, nil
}

// OpenCrawler brings up the PCA9685 on the configured I2C device.
func OpenCrawler(config *CrawlerConfig) (c *Crawler, err error) {
	bus, err := i2c.NewBus(config.I2C.Device)
	if err != nil {
		return nil, err
	}

	pca, err := hardware.NewPCA9685(bus, hardware.PCA9685Config{
		Address:   config.I2C.Address,
		Frequency: config.I2C.Frequency,
		MinPulse:  config.Pulse.Min,
		MaxPulse:  config.Pulse.Max,
	})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("unable to initialise pca9685 on %s: %w", config.I2C.Device, err)
	}

	return NewCrawler(pca, config)
}

func (c *Crawler) Command(verb Verb) error {
	frames, ok := Gait(verb)
	if !ok {
		return errors.ValidationError{Cmd: string(verb)}
	}

	c.log.Debug("step", "verb", verb)
	for _, frame := range frames {
		if err := c.applyFrame(frame); err != nil {
			return err
		}
		time.Sleep(c.StepDelay)
	}
	return nil
}

func (c *Crawler) Center() error {
	if err := c.applyFrame(Frame{}); err != nil {
		return err
	}
	time.Sleep(c.StepDelay)
	return c.DeenergizeAll()
}

func (c *Crawler) Stop() error {
	return c.applyFrame(StanceFrame())
}

func (c *Crawler) DeenergizeAll() error {
	if err := c.driver.AllOff(); err != nil {
		return err
	}

	c.lock.Lock()
	c.energized = false
	c.lock.Unlock()
	return nil
}

// Energized reports whether any joint has been driven since the last DeenergizeAll.
func (c *Crawler) Energized() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.energized
}

func (c *Crawler) Joints() []JointConfig {
	c.lock.RLock()
	defer c.lock.RUnlock()

	joints := make([]JointConfig, 0, NumJoints)
	for i, leg := range c.legs {
		joints = append(joints,
			JointConfig{i, Upper, leg.Upper.Pin, leg.Upper.Orientation, leg.Upper.Offset, c.angles[i].Upper},
			JointConfig{i, Lower, leg.Lower.Pin, leg.Lower.Orientation, leg.Lower.Offset, c.angles[i].Lower},
		)
	}
	return joints
}

func (c *Crawler) PulseRange() PulseRange {
	min, max := c.driver.PulseRange()
	return PulseRange{MinPulse: min, MaxPulse: max}
}

func (c *Crawler) Geometry() Geometry {
	return c.geometry
}

// applyFrame drives every joint it can and reports the joints it could not.
func (c *Crawler) applyFrame(frame Frame) error {
	var errs []error
	for i, pose := range frame {
		if err := c.setJoint(i, Upper, c.legs[i].Upper, pose.Upper); err != nil {
			errs = append(errs, err)
		}
		if err := c.setJoint(i, Lower, c.legs[i].Lower, pose.Lower); err != nil {
			errs = append(errs, err)
		}
	}
	return goerrors.Join(errs...)
}

func (c *Crawler) setJoint(leg int, joint Joint, spec JointSpec, angle float64) error {
	name := JointName(leg, joint)

	pin, ok := AsInt(spec.Pin)
	if !ok {
		return errors.FieldError{Joint: name, Field: "pin", Value: spec.Pin}
	}
	orientation, ok := AsFloat(spec.Orientation)
	if !ok {
		return errors.FieldError{Joint: name, Field: "orientation", Value: spec.Orientation}
	}
	offset, ok := AsFloat(spec.Offset)
	if !ok {
		return errors.FieldError{Joint: name, Field: "offset", Value: spec.Offset}
	}

	if err := c.driver.SetAngle(pin, hardware.ClampAngle(orientation*angle+offset)); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	c.lock.Lock()
	if joint == Upper {
		c.angles[leg].Upper = angle
	} else {
		c.angles[leg].Lower = angle
	}
	c.energized = true
	c.lock.Unlock()
	return nil
}
