package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CodedInternet/gocrawler/comms"
	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/journal"
	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

// gatedCrawler holds every step until release is closed.
type gatedCrawler struct {
	*onboard.Crawler
	release chan struct{}
}

func (g *gatedCrawler) Command(verb onboard.Verb) error {
	<-g.release
	return g.Crawler.Command(verb)
}

type testRig struct {
	gateway *Gateway
	driver  *onboard.SimulatedDriver
	router  chi.Router
}

func newTestRig(t *testing.T, wrap func(*onboard.Crawler) onboard.Actuator) *testRig {
	setupTestDb(t)

	config := onboard.DefaultConfig()
	crawler, driver, err := onboard.NewSimulatedCrawler(config)
	if err != nil {
		t.Fatal(err)
	}
	crawler.StepDelay = 0
	driver.Latency = 0

	var actuator onboard.Actuator = crawler
	if wrap != nil {
		actuator = wrap(crawler)
	}
	source := onboard.StaticActuator{A: actuator}

	history, err := journal.New(ENV.DB)
	if err != nil {
		t.Fatal(err)
	}

	scheduler := motion.NewScheduler(source)
	scheduler.Recorder = history
	scheduler.Reclaim = nil
	t.Cleanup(scheduler.Close)

	g := &Gateway{
		Scheduler: scheduler,
		Source:    source,
		Journal:   history,
		Geometry:  config.Geometry,
	}
	return &testRig{
		gateway: g,
		driver:  driver,
		router:  NewRouter(g, comms.NewConductor(g)),
	}
}

func (rig *testRig) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	rig.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(rr *httptest.ResponseRecorder) (m map[string]interface{}) {
	json.Unmarshal(rr.Body.Bytes(), &m)
	return
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func idle(g *Gateway) func() bool {
	return func() bool {
		s := g.Scheduler.Status()
		return !s.Busy && s.QueueLen == 0
	}
}

func withDebug(t *testing.T, debug bool) {
	prev := ENV.DEBUG
	ENV.DEBUG = debug
	t.Cleanup(func() { ENV.DEBUG = prev })
}

func TestCrawlerCmd(t *testing.T) {
	withDebug(t, true)

	Convey("Given a simulated crawler behind the router", t, func() {
		rig := newTestRig(t, nil)

		Convey("a movement verb is accepted and executed", func() {
			rr := rig.do("POST", "/api/crawler/cmd", map[string]interface{}{"cmd": "forward", "steps": 2})
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(rr)["ok"], ShouldEqual, true)
			So(rr.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")

			So(waitFor(func() bool {
				last := rig.gateway.Scheduler.Status().Last
				return last != nil && last.Cmd == "forward"
			}), ShouldBeTrue)
			So(waitFor(idle(rig.gateway)), ShouldBeTrue)
			So(rig.driver.Writes(), ShouldBeGreaterThan, 0)
		})

		Convey("steps and hold may arrive as strings", func() {
			rr := rig.do("POST", "/api/crawler/cmd", `{"cmd":"rotate_left","steps":"3","hold":"1"}`)
			So(rr.Code, ShouldEqual, http.StatusOK)
		})

		Convey("an unknown cmd is refused", func() {
			rr := rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "dance"})
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(rr)["error"], ShouldEqual, "Invalid cmd")
		})

		Convey("center is not a cmd", func() {
			rr := rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "center"})
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("a body that is not JSON is refused", func() {
			rr := rig.do("POST", "/api/crawler/cmd", "{not json")
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody(rr)["error"], ShouldEqual, "Invalid JSON body")
		})

		Convey("stop through cmd empties the queue", func() {
			rr := rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "stop"})
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(rig.gateway.Scheduler.Status().QueueLen, ShouldEqual, 0)
			So(waitFor(func() bool { return !rig.driver.AnyOn() }), ShouldBeTrue)
		})
	})
}

func TestCrawlerQueueFull(t *testing.T) {
	withDebug(t, true)

	Convey("Given a crawler stuck on its first step", t, func() {
		release := make(chan struct{})
		rig := newTestRig(t, func(c *onboard.Crawler) onboard.Actuator {
			return &gatedCrawler{Crawler: c, release: release}
		})
		defer close(release)

		rr := rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "forward"})
		So(rr.Code, ShouldEqual, http.StatusOK)
		So(waitFor(func() bool { return rig.gateway.Scheduler.Status().Busy }), ShouldBeTrue)

		for i := 0; i < motion.QueueCapacity; i++ {
			rr = rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "backward"})
			So(rr.Code, ShouldEqual, http.StatusOK)
		}

		Convey("the next command is refused without disturbing the queue", func() {
			rr := rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "backward"})
			So(rr.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeBody(rr)["error"], ShouldEqual, "Queue full")
			So(rig.gateway.Scheduler.Status().QueueLen, ShouldEqual, motion.QueueCapacity)
		})

		Convey("the gateway maps the capacity error itself", func() {
			code, err := rig.gateway.Command(comms.Cmd{Cmd: "forward"})
			So(code, ShouldEqual, http.StatusTooManyRequests)
			So(err, ShouldHaveSameTypeAs, errors.CapacityError{})
		})
	})
}

func TestCrawlerPreempt(t *testing.T) {
	withDebug(t, true)

	Convey("Given a simulated crawler", t, func() {
		rig := newTestRig(t, nil)

		Convey("center runs and leaves the servos off", func() {
			rr := rig.do("POST", "/api/crawler/center", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(waitFor(func() bool {
				last := rig.gateway.Scheduler.Status().Last
				return last != nil && last.Cmd == "center"
			}), ShouldBeTrue)
			So(waitFor(idle(rig.gateway)), ShouldBeTrue)
			So(rig.driver.AnyOn(), ShouldBeFalse)
		})

		Convey("all_off replaces anything queued", func() {
			rig.do("POST", "/api/crawler/cmd", map[string]interface{}{"cmd": "forward", "steps": 20})
			rr := rig.do("POST", "/api/crawler/all_off", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(rig.gateway.Scheduler.Status().QueueLen, ShouldBeLessThanOrEqualTo, 1)
			So(waitFor(idle(rig.gateway)), ShouldBeTrue)
			So(rig.driver.AnyOn(), ShouldBeFalse)
		})

		Convey("stop answers ok", func() {
			rr := rig.do("POST", "/api/crawler/stop", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(rr)["ok"], ShouldEqual, true)
		})

		Convey("websocket dispatch accepts center too", func() {
			code, err := rig.gateway.Dispatch(comms.Cmd{Cmd: "center"})
			So(err, ShouldBeNil)
			So(code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestCrawlerStatus(t *testing.T) {
	withDebug(t, true)

	Convey("Given a simulated crawler", t, func() {
		rig := newTestRig(t, nil)

		Convey("status reports the scheduler, diagnostics and pose", func() {
			rr := rig.do("GET", "/api/crawler/status", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)

			body := decodeBody(rr)
			So(body["ok"], ShouldEqual, true)
			So(body["ip"], ShouldNotBeEmpty)
			So(body["queueLen"], ShouldEqual, 0.0)
			So(body["busy"], ShouldEqual, false)
			So(body["error"], ShouldEqual, "")

			diag := body["diagnostics"].(map[string]interface{})
			So(diag["ok"], ShouldEqual, true)
			So(diag["pca"], ShouldResemble, map[string]interface{}{"minPulse": 500.0, "maxPulse": 2500.0})

			pose := body["pose"].(map[string]interface{})
			So(pose["feet"], ShouldHaveLength, onboard.NumLegs)
		})

		Convey("preflight requests are answered with CORS headers", func() {
			rr := rig.do("OPTIONS", "/api/crawler/cmd", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(rr.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			So(rr.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "*")
		})
	})

	Convey("An actuator that cannot be built is reported, not fatal", t, func() {
		source := onboard.NewLazyActuator(func() (onboard.Actuator, error) {
			panic("no i2c bus")
		})
		scheduler := motion.NewScheduler(source)
		defer scheduler.Close()

		g := &Gateway{Scheduler: scheduler, Source: source, Geometry: onboard.DefaultGeometry()}
		payload := g.StatusPayload()
		So(payload.OK, ShouldBeTrue)
		So(payload.Error, ShouldEqual, "no i2c bus")
		So(payload.Diagnostics.OK, ShouldBeFalse)
		So(payload.Pose, ShouldBeNil)
	})
}

func TestCrawlerHistory(t *testing.T) {
	withDebug(t, true)

	Convey("Given a crawler that has executed commands", t, func() {
		rig := newTestRig(t, nil)
		rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "forward"})
		rig.do("POST", "/api/crawler/cmd", map[string]string{"cmd": "lateral_left"})
		So(waitFor(func() bool {
			n, _ := rig.gateway.Journal.Count()
			return n == 2
		}), ShouldBeTrue)

		Convey("history lists them newest first", func() {
			rr := rig.do("GET", "/api/crawler/history", nil)
			So(rr.Code, ShouldEqual, http.StatusOK)

			var entries []journal.Entry
			So(json.Unmarshal(rr.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Cmd, ShouldEqual, "lateral_left")
			So(entries[1].Cmd, ShouldEqual, "forward")
		})

		Convey("limit trims the list", func() {
			rr := rig.do("GET", "/api/crawler/history?limit=1", nil)
			var entries []journal.Entry
			json.Unmarshal(rr.Body.Bytes(), &entries)
			So(entries, ShouldHaveLength, 1)
		})

		Convey("a bad limit is refused", func() {
			rr := rig.do("GET", "/api/crawler/history?limit=abc", nil)
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCrawlerAuth(t *testing.T) {
	withDebug(t, false)

	Convey("Without debug the crawler API needs a token", t, func() {
		rig := newTestRig(t, nil)

		rr := rig.do("GET", "/api/crawler/status", nil)
		So(rr.Code, ShouldEqual, http.StatusUnauthorized)

		ts, err := newJWT(&Operator{Email: "pilot@test.case", Name: "pilot"})
		So(err, ShouldBeNil)

		req := httptest.NewRequest("GET", "/api/crawler/status", nil)
		req.Header.Set("Authorization", "Bearer "+ts)
		rr = httptest.NewRecorder()
		rig.router.ServeHTTP(rr, req)
		So(rr.Code, ShouldEqual, http.StatusOK)
	})
}
