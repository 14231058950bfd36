// servotest is a bench tool for wiring and calibrating the crawler servos one
// channel at a time, without the motion scheduler in the way.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/CodedInternet/gocrawler/onboard"
	deverrors "github.com/CodedInternet/gocrawler/onboard/errors"
	"github.com/CodedInternet/gocrawler/onboard/hardware"
	"github.com/CodedInternet/gocrawler/onboard/i2c"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type ServoRequest struct {
	Channel *int     `json:"channel"`
	Angle   *float64 `json:"angle"`
	Off     bool     `json:"off"`
}

func (s *ServoRequest) Bind(r *http.Request) error {
	if s.Channel == nil {
		return errors.New("channel is required")
	}
	if *s.Channel < 0 || *s.Channel >= hardware.Channels {
		return deverrors.ChannelError{Channel: *s.Channel, Max: hardware.Channels - 1}
	}
	if !s.Off && s.Angle == nil {
		return errors.New("angle is required unless off is set")
	}
	if s.Angle != nil && (*s.Angle < -90 || *s.Angle > 90) {
		return fmt.Errorf("angle %v outside -90..90", *s.Angle)
	}
	return nil
}

type ChannelState struct {
	Channel int      `json:"channel"`
	Label   string   `json:"label,omitempty"`
	Angle   *float64 `json:"angle"`
}

type BenchStatus struct {
	OK       bool               `json:"ok"`
	PCA      onboard.PulseRange `json:"pca"`
	Channels []ChannelState     `json:"channels"`
}

type benchError struct {
	status int
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
}

func (e *benchError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func failure(status int, err error) render.Renderer {
	return &benchError{status: status, Error: err.Error()}
}

// Bench remembers what it last wrote to each channel since PCA9685 outputs
// cannot be read back.
type Bench struct {
	driver hardware.ServoDriver
	labels map[int]string

	lock   sync.Mutex
	angles map[int]float64
}

func NewBench(driver hardware.ServoDriver, labels map[int]string) *Bench {
	return &Bench{driver: driver, labels: labels, angles: make(map[int]float64)}
}

func (b *Bench) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", b.Status)
		r.Post("/servo", b.Servo)
		r.Post("/center", b.Center)
		r.Post("/all_off", b.AllOff)
	})
	return r
}

func (b *Bench) Status(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	min, max := b.driver.PulseRange()
	status := BenchStatus{
		OK:       true,
		PCA:      onboard.PulseRange{MinPulse: min, MaxPulse: max},
		Channels: make([]ChannelState, 0, hardware.Channels),
	}
	for ch := 0; ch < hardware.Channels; ch++ {
		state := ChannelState{Channel: ch, Label: b.labels[ch]}
		if deg, ok := b.angles[ch]; ok {
			state.Angle = &deg
		}
		status.Channels = append(status.Channels, state)
	}
	render.JSON(w, r, status)
}

func (b *Bench) Servo(w http.ResponseWriter, r *http.Request) {
	req := new(ServoRequest)
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, failure(http.StatusBadRequest, err))
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	ch := *req.Channel
	var err error
	if req.Off {
		if err = b.driver.Off(ch); err == nil {
			delete(b.angles, ch)
		}
	} else {
		if err = b.driver.SetAngle(ch, *req.Angle); err == nil {
			b.angles[ch] = *req.Angle
		}
	}
	if err != nil {
		render.Render(w, r, failure(http.StatusInternalServerError, err))
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

// Center drives every labelled channel to zero.
func (b *Bench) Center(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	channels := make([]int, 0, len(b.labels))
	for ch := range b.labels {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	for _, ch := range channels {
		if err := b.driver.SetAngle(ch, 0); err != nil {
			render.Render(w, r, failure(http.StatusInternalServerError, err))
			return
		}
		b.angles[ch] = 0
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

func (b *Bench) AllOff(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.driver.AllOff(); err != nil {
		render.Render(w, r, failure(http.StatusInternalServerError, err))
		return
	}
	b.angles = make(map[int]float64)
	render.JSON(w, r, map[string]bool{"ok": true})
}

func openDriver(config *onboard.CrawlerConfig, simulated bool) (hardware.ServoDriver, error) {
	if simulated {
		return onboard.NewSimulatedDriver(config.Pulse), nil
	}

	bus, err := i2c.NewBus(config.I2C.Device)
	if err != nil {
		return nil, err
	}
	return hardware.NewPCA9685(bus, hardware.PCA9685Config{
		Address:   config.I2C.Address,
		Frequency: config.I2C.Frequency,
		MinPulse:  config.Pulse.Min,
		MaxPulse:  config.Pulse.Max,
	})
}

func main() {
	configFile := flag.String("config", "./crawler.yaml", "Crawler config used for channel labels and the I2C device")
	simulated := flag.Bool("sim", false, "Use the servo simulator")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	flag.Parse()

	log.Init("debug")

	config, err := onboard.LoadConfig(*configFile)
	if err != nil {
		log.Warn("using default wiring", "file", *configFile, "err", err)
		config = onboard.DefaultConfig()
	}

	driver, err := openDriver(config, *simulated)
	if err != nil {
		log.Error("unable to open servo driver", "err", err)
		os.Exit(1)
	}
	defer driver.AllOff()

	bench := NewBench(driver, config.Labels())
	log.Info("servo bench listening", "addr", *port, "simulated", *simulated)
	if err := http.ListenAndServe(*port, bench.Router()); err != nil {
		log.Error("server failed", "err", err)
	}
}
