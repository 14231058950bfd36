package onboard

import (
	"fmt"
)

// Verb is a single-step gait the crawler knows how to play.
type Verb string

const (
	Forward      Verb = "forward"
	Backward     Verb = "backward"
	RotateLeft   Verb = "rotate_left"
	RotateRight  Verb = "rotate_right"
	LateralLeft  Verb = "lateral_left"
	LateralRight Verb = "lateral_right"
)

// Verbs lists the movement verbs in a stable order.
func Verbs() []Verb {
	return []Verb{
		Forward,
		Backward,
		RotateLeft,
		RotateRight,
		LateralLeft,
		LateralRight,
	}
}

// IsVerb reports whether name is one of the movement verbs.
func IsVerb(name string) bool {
	for _, v := range Verbs() {
		if string(v) == name {
			return true
		}
	}
	return false
}

// Joint names one of the two actuated degrees of freedom on a leg.
type Joint string

const (
	Upper Joint = "upper"
	Lower Joint = "lower"
)

const (
	NumLegs   = 4
	NumJoints = NumLegs * 2
)

// JointConfig is a read-only view of one joint. Pin, Orientation and Offset
// hold the values exactly as configured so that malformed entries reach
// diagnostics instead of failing the whole load.
type JointConfig struct {
	Leg         int
	Joint       Joint
	Pin         interface{}
	Orientation interface{}
	Offset      interface{}
	Angle       float64 // last commanded angle in degrees
}

// Name gives the joint identifier used in reports, e.g. "leg2.lower".
func (j JointConfig) Name() string {
	return JointName(j.Leg, j.Joint)
}

func LegName(leg int) string {
	return fmt.Sprintf("leg%d", leg)
}

func JointName(leg int, joint Joint) string {
	return fmt.Sprintf("%s.%s", LegName(leg), joint)
}

// PulseRange is the servo pulse width window in microseconds.
type PulseRange struct {
	MinPulse int `json:"minPulse"`
	MaxPulse int `json:"maxPulse"`
}

// Aborter is the cooperative cancellation capability shared by the motion
// worker and stop requests.
type Aborter interface {
	RequestAbort()
	ClearAbort()
	ShouldAbort() bool
}

// Actuator is the physical multi-joint robot as seen by the motion scheduler.
// Only the motion worker calls the mutating methods; the abort methods and
// the read-only accessors may be called from anywhere.
type Actuator interface {
	Aborter

	// Command plays a single step of verb. A step is atomic.
	Command(verb Verb) error
	// Center moves every joint to its zero position and ends de-energized.
	Center() error
	// Stop halts in the neutral stance and stays energized.
	Stop() error
	// DeenergizeAll removes drive from every joint.
	DeenergizeAll() error

	// Joints returns the eight joints in scan order: leg0..leg3, upper then lower.
	Joints() []JointConfig
	PulseRange() PulseRange
}

// Ensure Crawler implements Actuator
var _ Actuator = (*Crawler)(nil)
