package onboard

import (
	"github.com/go-gl/mathgl/mgl64"
	. "math"
)

const (
	DEFAULT_BODY_LENGTH = 80.0
	DEFAULT_BODY_WIDTH  = 80.0
	DEFAULT_COXA        = 30.0
	DEFAULT_FEMUR       = 40.0
)

// Geometry holds the body and link dimensions in millimetres.
type Geometry struct {
	BodyLength float64 `yaml:"body_length" json:"bodyLength"`
	BodyWidth  float64 `yaml:"body_width" json:"bodyWidth"`
	Coxa       float64 `yaml:"coxa" json:"coxa"` // hip axis to knee
	Femur      float64 `yaml:"femur" json:"femur"` // knee to foot
}

func DefaultGeometry() Geometry {
	return Geometry{
		BodyLength: DEFAULT_BODY_LENGTH,
		BodyWidth:  DEFAULT_BODY_WIDTH,
		Coxa:       DEFAULT_COXA,
		Femur:      DEFAULT_FEMUR,
	}
}

// legCorner places each hip on the body outline, x forward and y to the left.
// mount is the yaw of the leg at zero upper angle, in degrees.
var legCorner = [NumLegs]struct {
	x, y  float64
	mount float64
}{
	{+1, +1, 45},  // front left
	{+1, -1, 315}, // front right
	{-1, +1, 135}, // rear left
	{-1, -1, 225}, // rear right
}

// HipPositions returns the hip pivot of every leg in body coordinates.
func (g Geometry) HipPositions() (hips [NumLegs]mgl64.Vec3) {
	for i, c := range legCorner {
		hips[i] = mgl64.Vec3{c.x * g.BodyLength / 2, c.y * g.BodyWidth / 2, 0}
	}
	return
}

// FootPosition solves forward kinematics for a single leg. upper swings the
// leg around the vertical hip axis, lower lifts the femur away from vertical.
func (g Geometry) FootPosition(leg int, upper, lower float64) mgl64.Vec3 {
	hip := g.HipPositions()[leg]

	lowerRad := mgl64.DegToRad(lower)
	link := mgl64.Vec3{
		g.Coxa + g.Femur*Sin(lowerRad),
		0,
		-g.Femur * Cos(lowerRad),
	}

	yaw := mgl64.Rotate3DZ(mgl64.DegToRad(legCorner[leg].mount + upper))
	return hip.Add(yaw.Mul3x1(link))
}

// FootPositions returns the foot point of each leg for the given joints.
// Joints that do not belong to a known leg are ignored.
func FootPositions(joints []JointConfig, g Geometry) (feet [NumLegs]mgl64.Vec3) {
	var angles [NumLegs][2]float64
	for _, j := range joints {
		if j.Leg < 0 || j.Leg >= NumLegs {
			continue
		}
		switch j.Joint {
		case Upper:
			angles[j.Leg][0] = j.Angle
		case Lower:
			angles[j.Leg][1] = j.Angle
		}
	}

	for i := 0; i < NumLegs; i++ {
		feet[i] = g.FootPosition(i, angles[i][0], angles[i][1])
	}
	return
}
