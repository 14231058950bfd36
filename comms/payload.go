package comms

import (
	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/diagnostics"
	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/go-gl/mathgl/mgl64"
)

// Cmd is a command as sent by a client. Steps and Hold are left untyped so
// that the scheduler can coerce whatever the client sent.
type Cmd struct {
	Cmd   string      `json:"cmd"`
	Steps interface{} `json:"steps,omitempty"`
	Hold  interface{} `json:"hold,omitempty"`
}

type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code"`
}

type Pose struct {
	Feet     [onboard.NumLegs]mgl64.Vec3 `json:"feet"`
	Centroid *mgl64.Vec2                 `json:"centroid"`
}

// StatusPayload is served on /api/crawler/status and pushed to websocket clients.
type StatusPayload struct {
	OK bool   `json:"ok"`
	IP string `json:"ip"`
	motion.Status
	Diagnostics diagnostics.Snapshot `json:"diagnostics"`
	Pose        *Pose                `json:"pose,omitempty"`
}
