package onboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodedInternet/gocrawler/onboard/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testYaml = `
version: 1.2.0
i2c:
  device: /dev/i2c-3
  address: 0x41
  frequency: 60
pulse: {min: 600, max: 2400}
step_delay: 40ms
geometry:
  body_length: 100
  body_width: 70
  coxa: 25
  femur: 45
legs:
  leg0:
    upper: [0, 1, 0]
    lower: [1, 1, -4.5]
  leg1:
    upper: {pin: 2, orientation: -1, offset: 3}
    lower: {pin: 3, orientation: -1, offset: 0}
  leg2:
    upper: [4, 1, 0]
    lower: ["five", 1, 0]
  leg3:
    upper: [6, -1, 0]
    lower: [7, -1, 95]
`

func TestConfigParsing(t *testing.T) {
	Convey("parsing is successful", t, func() {
		config, err := ParseConfig([]byte(testYaml))
		So(err, ShouldBeNil)

		Convey("bus and pulse settings are read", func() {
			So(config.I2C, ShouldResemble, I2CConfig{Device: "/dev/i2c-3", Address: 0x41, Frequency: 60})
			So(config.Pulse, ShouldResemble, PulseConfig{Min: 600, Max: 2400})
			So(config.StepDelay, ShouldEqual, 40*time.Millisecond)
			So(config.Geometry, ShouldResemble, Geometry{100, 70, 25, 45})
		})

		Convey("flow and mapping joints are both accepted", func() {
			legs := config.LegList()
			So(legs[0].Lower, ShouldResemble, JointSpec{Pin: 1, Orientation: 1, Offset: -4.5})
			So(legs[1].Upper, ShouldResemble, JointSpec{Pin: 2, Orientation: -1, Offset: 3})
		})

		Convey("malformed values survive for diagnostics", func() {
			legs := config.LegList()
			So(legs[2].Lower.Pin, ShouldEqual, "five")
			So(legs[3].Lower.Offset, ShouldEqual, 95)
		})

		Convey("labels skip unusable pins", func() {
			labels := config.Labels()
			So(labels, ShouldHaveLength, 7)
			So(labels[3], ShouldEqual, "leg1.lower")
		})
	})

	Convey("defaults are applied to a minimal file", t, func() {
		config, err := ParseConfig([]byte("version: 1.0.0\n"))
		So(err, ShouldBeNil)
		So(config.I2C.Device, ShouldEqual, DEFAULT_I2C_DEVICE)
		So(config.StepDelay, ShouldEqual, DEFAULT_STEP_DELAY)
		So(config.Geometry, ShouldResemble, DefaultGeometry())

		Convey("and missing legs read as empty joints", func() {
			So(config.LegList()[0], ShouldResemble, LegConfig{})
		})
	})

	Convey("joint lists must have three entries", t, func() {
		_, err := ParseConfig([]byte("version: 1.0.0\nlegs:\n  leg0:\n    upper: [0, 1]\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("version checks", t, func() {
		Convey("an unsupported major version is refused", func() {
			_, err := ParseConfig([]byte("version: 2.0.0\n"))
			So(err, ShouldResemble, errors.ConfigVersionError{Version: "2.0.0", Constraint: CONFIG_VERSION})
		})

		Convey("a missing version is refused", func() {
			_, err := ParseConfig([]byte("legs: {}\n"))
			So(err, ShouldHaveSameTypeAs, errors.ConfigVersionError{})
		})
	})

	Convey("the default config round trips through yaml", t, func() {
		data, err := yaml.Marshal(DefaultConfig())
		So(err, ShouldBeNil)

		config, err := ParseConfig(data)
		So(err, ShouldBeNil)
		So(config.Labels(), ShouldResemble, DefaultConfig().Labels())
	})

	Convey("loading from disk", t, func() {
		filename := filepath.Join(t.TempDir(), "crawler.yaml")
		So(os.WriteFile(filename, []byte(testYaml), 0644), ShouldBeNil)

		config, err := LoadConfig(filename)
		So(err, ShouldBeNil)
		So(config.I2C.Address, ShouldEqual, 0x41)

		_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
