package diagnostics

import (
	"github.com/CodedInternet/gocrawler/onboard"
)

// JointTable is keyed by leg name, then joint name: {"leg0": {"upper": 0}}.
type JointTable map[string]map[string]interface{}

func (t JointTable) set(j onboard.JointConfig, v interface{}) {
	leg := onboard.LegName(j.Leg)
	if t[leg] == nil {
		t[leg] = make(map[string]interface{}, 2)
	}
	t[leg][string(j.Joint)] = v
}

// Snapshot is the diagnostics block of the status response.
type Snapshot struct {
	OK          bool                `json:"ok"`
	Error       string              `json:"error,omitempty"`
	Pins        JointTable          `json:"pins,omitempty"`
	Orientation JointTable          `json:"orientation,omitempty"`
	Offsets     JointTable          `json:"offsets,omitempty"`
	Angles      JointTable          `json:"angles,omitempty"`
	PCA         *onboard.PulseRange `json:"pca,omitempty"`
	Warnings    []Warning           `json:"warnings"`
}

// Inspect reads the joints from the actuator once and validates them. An
// actuator that cannot be built yields only the reason.
func Inspect(source onboard.ActuatorSource) (s Snapshot) {
	a, err := source.Actuator()
	if err != nil {
		return Snapshot{OK: false, Error: err.Error(), Warnings: make([]Warning, 0)}
	}

	joints := a.Joints()
	s = Snapshot{
		Pins:        make(JointTable, onboard.NumLegs),
		Orientation: make(JointTable, onboard.NumLegs),
		Offsets:     make(JointTable, onboard.NumLegs),
		Angles:      make(JointTable, onboard.NumLegs),
	}
	for _, j := range joints {
		s.Pins.set(j, j.Pin)
		s.Orientation.set(j, j.Orientation)
		s.Offsets.set(j, j.Offset)
		s.Angles.set(j, j.Angle)
	}

	pca := a.PulseRange()
	s.PCA = &pca

	report := Validate(joints)
	s.OK = report.OK
	s.Warnings = report.Warnings
	return
}
