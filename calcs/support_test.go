package calcs

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSupportCentroid(t *testing.T) {
	square := []mgl64.Vec3{{60, 60, -40}, {60, -60, -40}, {-60, 60, -40}, {-60, -60, -40}}

	Convey("four grounded feet centre on the body", t, func() {
		c, ok := SupportCentroid(square, -40, GROUND_TOLERANCE)
		So(ok, ShouldBeTrue)
		So(c.X(), ShouldAlmostEqual, 0, .001)
		So(c.Y(), ShouldAlmostEqual, 0, .001)
	})

	Convey("a lifted foot moves the centroid away from it", t, func() {
		feet := append([]mgl64.Vec3(nil), square...)
		feet[0] = mgl64.Vec3{60, 60, -10}

		ground := GroundLevel(feet)
		So(ground, ShouldEqual, -40)

		c, ok := SupportCentroid(feet, ground, GROUND_TOLERANCE)
		So(ok, ShouldBeTrue)
		So(c.X(), ShouldAlmostEqual, -20, .001)
		So(c.Y(), ShouldAlmostEqual, -20, .001)
	})

	Convey("feet inside the tolerance still count", t, func() {
		feet := append([]mgl64.Vec3(nil), square...)
		feet[1] = mgl64.Vec3{60, -60, -36}

		c, ok := SupportCentroid(feet, -40, GROUND_TOLERANCE)
		So(ok, ShouldBeTrue)
		So(c.X(), ShouldAlmostEqual, 0, .001)
	})

	Convey("nothing on the ground", t, func() {
		_, ok := SupportCentroid(square, 0, GROUND_TOLERANCE)
		So(ok, ShouldBeFalse)

		_, ok = SupportCentroid(nil, 0, GROUND_TOLERANCE)
		So(ok, ShouldBeFalse)
	})
}
