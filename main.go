package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CodedInternet/gocrawler/comms"
	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/journal"
	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
)

type EnvConfig struct {
	JWT_ISSUER     string `env:"RESIN_DEVICE_UUID" envDefault:"DEV"`
	JWT_SECRET     string `env:"JWT_SECRET"`
	RESIN          bool   `env:"RESIN" envDefault:"0"`
	DEBUG          bool   `env:"DEBUG" envDefault:"0"`
	LOG_LEVEL      string `env:"LOG_LEVEL" envDefault:"info"`
	CRAWLER_CONFIG string `env:"CRAWLER_CONFIG" envDefault:"./crawler.yaml"`
	DB_FILE        string `env:"DB_FILE" envDefault:"./tmp/dev.db"`
	HTMLDIR        string `env:"HTMLDIR" envDefault:"./portal/"`
	DB             *storm.DB
	Simulated      bool
}

var (
	ENV *EnvConfig
)

func init() {
	ENV = new(EnvConfig)
	if err := env.Parse(ENV); err != nil {
		panic(err)
	}

	if ENV.RESIN {
		ENV.DB_FILE = "/data/live.db"
		ENV.CRAWLER_CONFIG = "/data/crawler.yaml"
	}
	if ENV.JWT_SECRET != "" {
		JWT_HMAC_SECRET = []byte(ENV.JWT_SECRET)
	}
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Drive the servo simulator instead of the PCA9685")
	port := flag.String("port", "0.0.0.0:80", "Specify the ip:port to listen on")
	interactive := flag.Bool("shell", false, "Start the development shell on stdin")
	flag.Parse()

	log.Init(ENV.LOG_LEVEL)
	ENV.Simulated = *simulated

	db, err := openDb(ENV.DB_FILE)
	if err != nil {
		log.Error("unable to open database", "file", ENV.DB_FILE, "err", err)
		os.Exit(1)
	}
	defer db.Close() // close database when finished
	ENV.DB = db

	config, configErr := loadCrawlerConfig(ENV.CRAWLER_CONFIG)
	source := onboard.NewLazyActuator(func() (onboard.Actuator, error) {
		if configErr != nil {
			return nil, configErr
		}
		if ENV.Simulated {
			crawler, _, err := onboard.NewSimulatedCrawler(config)
			return crawler, err
		}
		return onboard.OpenCrawler(config)
	})

	history, err := journal.New(db)
	if err != nil {
		log.Error("unable to initialise journal", "err", err)
		os.Exit(1)
	}

	scheduler := motion.NewScheduler(source)
	scheduler.Recorder = history
	defer scheduler.Close()

	gateway := &Gateway{
		Scheduler: scheduler,
		Source:    source,
		Journal:   history,
		Geometry:  config.Geometry,
	}
	conductor := comms.NewConductor(gateway)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go conductor.UpdateClients(ctx)

	if *interactive {
		go newShell(gateway).Run()
	}

	server := &http.Server{
		Addr:    *port,
		Handler: NewRouter(gateway, conductor),
	}
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		server.Shutdown(shutdown)
	}()

	log.Info("listening", "addr", *port, "simulated", ENV.Simulated)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
	}

	// leave the robot limp on the way out
	scheduler.RequestStop()
	time.Sleep(2 * motion.StopSettle)
}

// loadCrawlerConfig reads the robot config. A missing file falls back to the
// default wiring; any other problem is returned so the actuator reports it.
func loadCrawlerConfig(filename string) (*onboard.CrawlerConfig, error) {
	config, err := onboard.LoadConfig(filename)
	if err == nil {
		return config, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("no crawler config found, using default wiring", "file", filename)
		return onboard.DefaultConfig(), nil
	}
	log.Error("unable to load crawler config", "file", filename, "err", err)
	return onboard.DefaultConfig(), err
}

func openDb(dbFile string) (db *storm.DB, err error) {
	dir := filepath.Dir(dbFile)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}

	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err = db.Init(&Operator{}); err != nil {
		db.Close()
		return nil, err
	}

	return
}
