package calcs

import (
	. "math"

	"github.com/go-gl/mathgl/mgl64"
)

// GROUND_TOLERANCE is how far above the lowest foot, in mm, a foot may be
// and still count as carrying weight.
const GROUND_TOLERANCE = 5.0

// calculateCentroid averages the X and Y of the given points.
func calculateCentroid(points []mgl64.Vec3) (c mgl64.Vec2) {
	for _, p := range points {
		c = c.Add(p.Vec2())
	}
	return c.Mul(1 / float64(len(points)))
}

// GroundLevel is the height of the lowest foot.
func GroundLevel(feet []mgl64.Vec3) float64 {
	ground := Inf(1)
	for _, f := range feet {
		ground = Min(ground, f.Z())
	}
	return ground
}

// SupportCentroid returns the centre of the feet within tol of groundZ, i.e.
// the feet the body is standing on. ok is false when no foot is grounded.
func SupportCentroid(feet []mgl64.Vec3, groundZ, tol float64) (c mgl64.Vec2, ok bool) {
	grounded := make([]mgl64.Vec3, 0, len(feet))
	for _, f := range feet {
		if Abs(f.Z()-groundZ) <= tol {
			grounded = append(grounded, f)
		}
	}
	if len(grounded) == 0 {
		return c, false
	}
	return calculateCentroid(grounded), true
}
