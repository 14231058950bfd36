// Package diagnostics inspects the joint wiring and calibration of an
// actuator and reports anything unsafe or inconsistent.
package diagnostics

import (
	"math"

	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/hardware"
)

const OFFSET_LIMIT = 90.0

type WarningType string

const (
	PinInvalid         WarningType = "pin_invalid"
	PinOutOfRange      WarningType = "pin_out_of_range"
	PinDuplicate       WarningType = "pin_duplicate"
	OrientationUnusual WarningType = "orientation_unusual"
	OffsetLarge        WarningType = "offset_large"
	OffsetInvalid      WarningType = "offset_invalid"
)

// Warning names the offending joint, or both joints for a duplicate pin.
type Warning struct {
	Type    WarningType `json:"type"`
	Joint   string      `json:"joint,omitempty"`
	Joints  []string    `json:"joints,omitempty"`
	Channel *int        `json:"channel,omitempty"`
	Value   interface{} `json:"value,omitempty"`
}

type Report struct {
	OK       bool      `json:"ok"`
	Warnings []Warning `json:"warnings"`
}

// Validate checks every joint independently; a bad value on one joint never
// stops the others from being checked.
func Validate(joints []onboard.JointConfig) (report Report) {
	report.Warnings = make([]Warning, 0)
	seen := make(map[int]string)

	for _, j := range joints {
		name := j.Name()
		ch, ok := onboard.AsInt(j.Pin)
		if !ok {
			report.Warnings = append(report.Warnings, Warning{Type: PinInvalid, Joint: name, Value: j.Pin})
			continue
		}

		if ch < 0 || ch >= hardware.Channels {
			report.Warnings = append(report.Warnings, Warning{Type: PinOutOfRange, Joint: name, Channel: channel(ch)})
		}

		if first, dup := seen[ch]; dup {
			report.Warnings = append(report.Warnings, Warning{Type: PinDuplicate, Joints: []string{first, name}, Channel: channel(ch)})
		} else {
			seen[ch] = name
		}
	}

	for _, j := range joints {
		name := j.Name()
		if _, ok := onboard.AsOrientation(j.Orientation); !ok {
			report.Warnings = append(report.Warnings, Warning{Type: OrientationUnusual, Joint: name, Value: j.Orientation})
		}

		offset, ok := onboard.AsFloat(j.Offset)
		switch {
		case !ok:
			report.Warnings = append(report.Warnings, Warning{Type: OffsetInvalid, Joint: name, Value: j.Offset})
		case math.Abs(offset) > OFFSET_LIMIT:
			report.Warnings = append(report.Warnings, Warning{Type: OffsetLarge, Joint: name, Value: j.Offset})
		}
	}

	report.OK = len(report.Warnings) == 0
	return
}

func channel(ch int) *int {
	return &ch
}
