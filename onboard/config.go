package onboard

import (
	"fmt"
	"os"
	"time"

	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v2"
)

const (
	CONFIG_VERSION = "~1"

	DEFAULT_I2C_DEVICE = "/dev/i2c-1"
	DEFAULT_STEP_DELAY = 60 * time.Millisecond
)

type CrawlerConfig struct {
	Version   string               `yaml:"version"`
	I2C       I2CConfig            `yaml:"i2c"`
	Pulse     PulseConfig          `yaml:"pulse"`
	StepDelay time.Duration        `yaml:"step_delay"`
	Geometry  Geometry             `yaml:"geometry"`
	Legs      map[string]LegConfig `yaml:"legs"`
}

type I2CConfig struct {
	Device    string  `yaml:"device"`
	Address   uint16  `yaml:"address"`
	Frequency float64 `yaml:"frequency"`
}

type PulseConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type LegConfig struct {
	Upper JointSpec `yaml:"upper"`
	Lower JointSpec `yaml:"lower"`
}

// JointSpec is the wiring and calibration of a joint as written in the config.
// Values are kept untyped; see JointConfig.
type JointSpec struct {
	Pin         interface{}
	Orientation interface{}
	Offset      interface{}
}

type yamlJoint struct {
	Pin         interface{} `yaml:"pin"`
	Orientation interface{} `yaml:"orientation"`
	Offset      interface{} `yaml:"offset"`
}

func (js JointSpec) MarshalYAML() (interface{}, error) {
	return &yamlJoint{js.Pin, js.Orientation, js.Offset}, nil
}

// UnmarshalYAML accepts either {pin, orientation, offset} or the flow form
// [pin, orientation, offset].
func (js *JointSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var flow []interface{}
	if err := unmarshal(&flow); err == nil {
		if len(flow) != 3 {
			return fmt.Errorf("joint list needs [pin, orientation, offset], got %d values", len(flow))
		}
		js.Pin, js.Orientation, js.Offset = flow[0], flow[1], flow[2]
		return nil
	}

	var yj yamlJoint
	if err := unmarshal(&yj); err != nil {
		return err
	}
	js.Pin, js.Orientation, js.Offset = yj.Pin, yj.Orientation, yj.Offset
	return nil
}

// LegList returns the legs in scan order. A missing leg yields empty specs,
// which diagnostics reports rather than the loader rejecting.
func (c *CrawlerConfig) LegList() (legs [NumLegs]LegConfig) {
	for i := 0; i < NumLegs; i++ {
		legs[i] = c.Legs[LegName(i)]
	}
	return
}

// Labels maps servo channels to joint names for every joint with a usable pin.
func (c *CrawlerConfig) Labels() map[int]string {
	labels := make(map[int]string)
	for i, leg := range c.LegList() {
		for _, j := range []struct {
			joint Joint
			spec  JointSpec
		}{{Upper, leg.Upper}, {Lower, leg.Lower}} {
			if ch, ok := AsInt(j.spec.Pin); ok {
				labels[ch] = JointName(i, j.joint)
			}
		}
	}
	return labels
}

func (c *CrawlerConfig) applyDefaults() {
	if c.I2C.Device == "" {
		c.I2C.Device = DEFAULT_I2C_DEVICE
	}
	if c.StepDelay == 0 {
		c.StepDelay = DEFAULT_STEP_DELAY
	}
	if c.Geometry == (Geometry{}) {
		c.Geometry = DefaultGeometry()
	}
}

// CheckVersion makes sure the file was written for a schema this build understands.
func (c *CrawlerConfig) CheckVersion() error {
	version, err := semver.NewVersion(c.Version)
	if err != nil {
		return errors.ConfigVersionError{Version: fmt.Sprintf("%q", c.Version), Constraint: CONFIG_VERSION}
	}

	constraint, err := semver.NewConstraint(CONFIG_VERSION)
	if err != nil {
		return err
	}

	if !constraint.Check(version) {
		return errors.ConfigVersionError{Version: c.Version, Constraint: CONFIG_VERSION}
	}
	return nil
}

func ParseConfig(data []byte) (config *CrawlerConfig, err error) {
	config = new(CrawlerConfig)
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unable to unmarshal yaml: %w", err)
	}

	if err = config.CheckVersion(); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

func LoadConfig(filename string) (*CrawlerConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read yaml file: %w", err)
	}
	return ParseConfig(data)
}

// DefaultConfig wires the legs to channels 0-7 in scan order with no calibration.
func DefaultConfig() *CrawlerConfig {
	config := &CrawlerConfig{
		Version: "1.0.0",
		Legs:    make(map[string]LegConfig, NumLegs),
	}
	for i := 0; i < NumLegs; i++ {
		orientation := 1
		if i%2 == 1 {
			orientation = -1 // right hand legs are mirrored
		}
		config.Legs[LegName(i)] = LegConfig{
			Upper: JointSpec{Pin: 2 * i, Orientation: orientation, Offset: 0},
			Lower: JointSpec{Pin: 2*i + 1, Orientation: orientation, Offset: 0},
		}
	}
	config.applyDefaults()
	return config
}
