package main

import (
	goerrors "errors"
	"net"
	"net/http"
	"strconv"

	"github.com/CodedInternet/gocrawler/calcs"
	"github.com/CodedInternet/gocrawler/comms"
	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/diagnostics"
	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/journal"
	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/go-chi/render"
)

const (
	FALLBACK_IP     = "192.168.4.1"
	HISTORY_DEFAULT = 20
)

// Gateway turns HTTP and websocket requests into scheduler calls. It owns
// transport concerns only.
type Gateway struct {
	Scheduler *motion.Scheduler
	Source    onboard.ActuatorSource
	Journal   *journal.Journal
	Geometry  onboard.Geometry
}

// Ensure Gateway can be driven by the websocket conductor
var _ comms.Controller = (*Gateway)(nil)

//---
// Payloads
//---

type OKPayload struct {
	OK bool `json:"ok"`
}

var okResponse = OKPayload{OK: true}

//---
// Dispatch
//---

// Command applies the /api/crawler/cmd rules: "stop" is the immediate stop,
// verbs are queued and everything else is refused.
func (g *Gateway) Command(cmd comms.Cmd) (int, error) {
	if cmd.Cmd == string(motion.KindStop) {
		g.Scheduler.RequestStop()
		return http.StatusOK, nil
	}

	verb := onboard.Verb(cmd.Cmd)
	if !onboard.IsVerb(cmd.Cmd) {
		return http.StatusBadRequest, errors.ValidationError{Cmd: cmd.Cmd}
	}

	if _, err := g.Scheduler.Enqueue(verb, cmd.Steps, cmd.Hold); err != nil {
		return statusFor(err), err
	}
	return http.StatusOK, nil
}

// Dispatch is Command plus center and all_off, for websocket clients.
func (g *Gateway) Dispatch(cmd comms.Cmd) (int, error) {
	switch motion.Kind(cmd.Cmd) {
	case motion.KindCenter, motion.KindAllOff:
		if _, err := g.Scheduler.Preempt(motion.Kind(cmd.Cmd)); err != nil {
			return statusFor(err), err
		}
		return http.StatusOK, nil
	}
	return g.Command(cmd)
}

func (g *Gateway) StatusPayload() comms.StatusPayload {
	payload := comms.StatusPayload{
		OK:          true,
		IP:          localIP(),
		Status:      g.Scheduler.Status(),
		Diagnostics: diagnostics.Inspect(g.Source),
	}

	if a, err := g.Source.Actuator(); err == nil {
		payload.Pose = g.pose(a.Joints())
	}
	return payload
}

func (g *Gateway) pose(joints []onboard.JointConfig) *comms.Pose {
	pose := &comms.Pose{Feet: onboard.FootPositions(joints, g.Geometry)}

	feet := pose.Feet[:]
	if c, ok := calcs.SupportCentroid(feet, calcs.GroundLevel(feet), calcs.GROUND_TOLERANCE); ok {
		pose.Centroid = &c
	}
	return pose
}

//---
// Views
//---

func (g *Gateway) CrawlerCmd(w http.ResponseWriter, r *http.Request) {
	var cmd comms.Cmd
	if err := render.DecodeJSON(r.Body, &cmd); err != nil {
		render.Render(w, r, ErrInvalidJSON)
		return
	}

	if op, ok := CurrentOperator(r); ok {
		log.Debug("crawler command", "cmd", cmd.Cmd, "operator", op.Subject)
	}

	if _, err := g.Command(cmd); err != nil {
		render.Render(w, r, errResponse(err))
		return
	}
	render.JSON(w, r, okResponse)
}

func (g *Gateway) CrawlerStop(w http.ResponseWriter, r *http.Request) {
	g.Scheduler.RequestStop()
	render.JSON(w, r, okResponse)
}

func (g *Gateway) CrawlerCenter(w http.ResponseWriter, r *http.Request) {
	g.preempt(w, r, motion.KindCenter)
}

func (g *Gateway) CrawlerAllOff(w http.ResponseWriter, r *http.Request) {
	g.preempt(w, r, motion.KindAllOff)
}

func (g *Gateway) preempt(w http.ResponseWriter, r *http.Request, kind motion.Kind) {
	if _, err := g.Scheduler.Preempt(kind); err != nil {
		render.Render(w, r, errResponse(err))
		return
	}
	render.JSON(w, r, okResponse)
}

func (g *Gateway) CrawlerStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, g.StatusPayload())
}

// CrawlerHistory lists executed commands, newest first.
func (g *Gateway) CrawlerHistory(w http.ResponseWriter, r *http.Request) {
	limit := HISTORY_DEFAULT
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			render.Render(w, r, ErrInvalidRequest(goerrors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	entries := make([]journal.Entry, 0)
	if g.Journal != nil {
		var err error
		if entries, err = g.Journal.Recent(limit); err != nil {
			render.Render(w, r, ErrRender(err))
			return
		}
	}
	render.JSON(w, r, entries)
}

//---
// Helpers
//---

func statusFor(err error) int {
	var capacity errors.CapacityError
	var invalid errors.ValidationError
	switch {
	case goerrors.As(err, &capacity):
		return http.StatusTooManyRequests
	case goerrors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errResponse(err error) render.Renderer {
	switch statusFor(err) {
	case http.StatusTooManyRequests:
		return ErrQueueFull
	case http.StatusBadRequest:
		return ErrInvalidCmd
	default:
		return ErrRender(err)
	}
}

// localIP is the first non-loopback IPv4 address, or the access point address.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return FALLBACK_IP
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return FALLBACK_IP
}

// CORS adds the permissive headers the control portal relies on.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		next.ServeHTTP(w, r)
	})
}

func Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
