package onboard

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGait(t *testing.T) {
	Convey("every verb has a four frame cycle", t, func() {
		for _, verb := range Verbs() {
			frames, ok := Gait(verb)
			So(ok, ShouldBeTrue)
			So(frames, ShouldHaveLength, 4)
		}
	})

	Convey("unknown verbs have no gait", t, func() {
		_, ok := Gait("dance")
		So(ok, ShouldBeFalse)
	})

	Convey("forward", t, func() {
		frames, _ := Gait(Forward)

		Convey("lifts one diagonal pair at a time", func() {
			So(frames[0][0].Lower, ShouldEqual, STANCE_LOWER+GAIT_LIFT)
			So(frames[0][3].Lower, ShouldEqual, STANCE_LOWER+GAIT_LIFT)
			So(frames[0][1].Lower, ShouldEqual, STANCE_LOWER)
			So(frames[0][2].Lower, ShouldEqual, STANCE_LOWER)

			So(frames[2][1].Lower, ShouldEqual, STANCE_LOWER+GAIT_LIFT)
			So(frames[2][2].Lower, ShouldEqual, STANCE_LOWER+GAIT_LIFT)
		})

		Convey("plants every foot on the odd frames", func() {
			for _, f := range []int{1, 3} {
				for leg := 0; leg < NumLegs; leg++ {
					So(frames[f][leg].Lower, ShouldEqual, STANCE_LOWER)
				}
			}
		})

		Convey("is mirrored by backward", func() {
			back, _ := Gait(Backward)
			for f := range frames {
				for leg := 0; leg < NumLegs; leg++ {
					So(back[f][leg].Upper, ShouldEqual, -frames[f][leg].Upper)
				}
			}
		})
	})

	Convey("the stance has every upper joint at neutral", t, func() {
		for _, pose := range StanceFrame() {
			So(pose, ShouldResemble, LegPose{Lower: STANCE_LOWER})
		}
	})
}
