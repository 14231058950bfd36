package onboard

const (
	GAIT_SWING   = 25.0 // upper joint travel either side of neutral
	GAIT_LIFT    = 30.0 // extra lower joint angle while a foot is in the air
	STANCE_LOWER = 15.0
)

// LegPose is the logical angle pair of one leg, before orientation and offset.
type LegPose struct {
	Upper float64
	Lower float64
}

// Frame is one keyframe of a gait: a pose for every leg.
type Frame [NumLegs]LegPose

// StanceFrame is the neutral standing pose the crawler stops in.
func StanceFrame() (f Frame) {
	for i := range f {
		f[i] = LegPose{Lower: STANCE_LOWER}
	}
	return
}

// diagonal pairs move together: front left with rear right, front right with rear left.
var diagonal = [NumLegs]int{0, 1, 1, 0}

// swing gives the upper joint direction each leg moves in while in the air.
var swing = map[Verb][NumLegs]float64{
	Forward:      {-1, +1, -1, +1},
	Backward:     {+1, -1, +1, -1},
	RotateLeft:   {+1, +1, +1, +1},
	RotateRight:  {-1, -1, -1, -1},
	LateralLeft:  {+1, +1, -1, -1},
	LateralRight: {-1, -1, +1, +1},
}

// trotCycle builds a four frame diagonal trot. In each half cycle one pair
// lifts and swings while the other pair pushes back, then the lifted pair
// is planted.
func trotCycle(dir [NumLegs]float64) []Frame {
	frames := make([]Frame, 4)
	for f := range frames {
		swingPair := f / 2
		lifted := f%2 == 0
		for leg := 0; leg < NumLegs; leg++ {
			pose := LegPose{Lower: STANCE_LOWER}
			if diagonal[leg] == swingPair {
				pose.Upper = dir[leg] * GAIT_SWING
				if lifted {
					pose.Lower += GAIT_LIFT
				}
			} else {
				pose.Upper = -dir[leg] * GAIT_SWING
			}
			frames[f][leg] = pose
		}
	}
	return frames
}

var gaits = func() map[Verb][]Frame {
	g := make(map[Verb][]Frame, len(swing))
	for verb, dir := range swing {
		g[verb] = trotCycle(dir)
	}
	return g
}()

// Gait returns the keyframes making up one step of verb.
func Gait(verb Verb) (frames []Frame, ok bool) {
	frames, ok = gaits[verb]
	return
}
