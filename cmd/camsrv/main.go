package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/candelalabs/gencam/camera"
	"github.com/candelalabs/gencam/generichttp"
	httpcamera "github.com/candelalabs/gencam/generichttp/camera"
	"github.com/candelalabs/gencam/imgrec"
	"github.com/candelalabs/gencam/server/middleware/locker"
	"github.com/candelalabs/gencam/telemetry"

	"github.com/go-chi/chi"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "camsrv.yml"
	k              = koanf.New(".")
)

type recorder struct {
	// Root is the root folder to write to
	Root string `yaml:"Root"`

	// Prefix is the filename prefix to use
	Prefix string `yaml:"Prefix"`

	// Ext is the file extension, without the dot
	Ext string `yaml:"Ext"`

	// Enabled turns recording on at boot
	Enabled bool `yaml:"Enabled"`
}

type camConfig struct {
	Serial string `yaml:"Serial"`
	Model  string `yaml:"Model"`
	UserID string `yaml:"UserID"`
	Width  int    `yaml:"Width"`
	Height int    `yaml:"Height"`

	// Mount is the URL stem the camera's routes hang from
	Mount string `yaml:"Mount"`

	// IncompleteEvery makes every Nth frame incomplete, for testing
	IncompleteEvery int `yaml:"IncompleteEvery"`
}

type mqttConfig struct {
	Enabled  bool   `yaml:"Enabled"`
	Broker   string `yaml:"Broker"`
	Prefix   string `yaml:"Prefix"`
	EveryNth int    `yaml:"EveryNth"`
}

type config struct {
	Addr     string      `yaml:"Addr"`
	Cameras  []camConfig `yaml:"Cameras"`
	Recorder recorder    `yaml:"Recorder"`
	MQTT     mqttConfig  `yaml:"MQTT"`
}

func setupconfig() {
	k.Load(structs.Provider(config{
		Addr: ":8000",
		Cameras: []camConfig{
			{Serial: "SIM-0001", Mount: "/cam1"},
			{Serial: "SIM-0002", Mount: "/cam2"},
		},
		Recorder: recorder{Prefix: "gencam", Ext: "fits"},
		MQTT: mqttConfig{
			Broker:   "tcp://localhost:1883",
			Prefix:   "gencam",
			EveryNth: 30}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `camsrv exposes control of cameras over HTTP
This enables a server-client architecture,
and the clients can leverage the excellent HTTP
libraries for any programming language,
instead of custom socket logic.

Usage:
	camsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `camsrv is amenable to configuration via its .yml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  Keys are not case-sensitive.
The command mkconf generates the configuration file with the default values.
There is no need to do this unless you want to start from the prepopulated defaults when making
a config file.

Each entry under Cameras boots one simulated camera and mounts its routes under Mount.
GET <mount>/nodes lists the camera's features, <mount>/image grabs a frame.
POST true to <mount>/lock to make a camera read only while an acquisition you
care about is running; info and frame-stats stay reachable while locked.

Recorder duplicates every FITS download into a dated folder tree on the server
when Enabled.  MQTT streams device events and a decimated image feed to the
configured broker when Enabled.

Prometheus metrics for every camera are exported at /metrics.`
	fmt.Println(str)
}

func mkconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	err = yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("camsrv version %v\n", Version)
}

type statser interface {
	Stats() *camera.Stats
}

// registerMetrics exports per camera gauges and counters, labeled by
// serial.
func registerMetrics(c camera.Camera) {
	serial := c.Info().Serial
	labels := prometheus.Labels{"serial": serial}
	nm := c.NodeMap()
	err := prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   "gencam",
			Name:        "sensor_temperature_celsius",
			Help:        "Sensor temperature reported by the camera.",
			ConstLabels: labels,
		},
		func() float64 {
			t, err := nm.GetFloat("DeviceTemperature")
			if err != nil {
				return 0
			}
			return t
		},
	))
	if err != nil {
		log.Fatal(err)
	}
	s, ok := interface{}(c).(statser)
	if !ok {
		return
	}
	err = prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   "gencam",
			Name:        "fps",
			Help:        "Delivered frame rate over the recent window.",
			ConstLabels: labels,
		},
		func() float64 { return s.Stats().Snapshot().FPS },
	))
	if err != nil {
		log.Fatal(err)
	}
	err = prometheus.Register(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace:   "gencam",
			Name:        "frames_delivered_total",
			Help:        "Frames handed to consumers since boot.",
			ConstLabels: labels,
		},
		func() float64 { return float64(s.Stats().Snapshot().Delivered) },
	))
	if err != nil {
		log.Fatal(err)
	}
	err = prometheus.Register(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace:   "gencam",
			Name:        "frames_dropped_total",
			Help:        "Frames evicted from the buffer ring since boot.",
			ConstLabels: labels,
		},
		func() float64 { return float64(s.Stats().Snapshot().Dropped) },
	))
	if err != nil {
		log.Fatal(err)
	}
}

// recorderFor builds a camera's recorder.  The serial goes into the
// filename prefix so two cameras sharing one Root cannot clobber each
// other's files.
func recorderFor(r recorder, serial string) *imgrec.Recorder {
	prefix := r.Prefix
	if serial != "" {
		if prefix != "" {
			prefix += "-"
		}
		prefix += serial
	}
	return &imgrec.Recorder{
		Root:    r.Root,
		Prefix:  prefix,
		Ext:     r.Ext,
		Enabled: r.Enabled,
	}
}

func run() {
	cfg := config{}
	k.Unmarshal("", &cfg)
	if len(cfg.Cameras) == 0 {
		log.Fatal("no cameras in config")
	}
	sims := make([]camera.SimConfig, len(cfg.Cameras))
	for i, cc := range cfg.Cameras {
		sims[i] = camera.SimConfig{
			Serial:          cc.Serial,
			Model:           cc.Model,
			UserID:          cc.UserID,
			Width:           cc.Width,
			Height:          cc.Height,
			IncompleteEvery: cc.IncompleteEvery,
		}
	}
	camera.Register(camera.SimProvider{Configs: sims})
	sys, err := camera.NewSystem()
	if err != nil {
		log.Fatal(err)
	}

	var pub *telemetry.Publisher
	if cfg.MQTT.Enabled {
		pub, err = telemetry.Dial(telemetry.Config{
			Broker:   cfg.MQTT.Broker,
			Prefix:   cfg.MQTT.Prefix,
			EveryNth: cfg.MQTT.EveryNth,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
	}

	rootMux := chi.NewRouter()
	for i, cc := range cfg.Cameras {
		c, err := sys.Open(i)
		if err != nil {
			log.Fatal(err)
		}
		if err := c.Init(); err != nil {
			log.Fatal(err)
		}
		info := c.Info()

		rec := recorderFor(cfg.Recorder, info.Serial)
		w := httpcamera.NewHTTPCamera(c, rec)
		l := locker.New()
		l.DoNotProtect = append(l.DoNotProtect, "info", "frame-stats")
		locker.Inject(w, l)
		imgrec.NewHTTPWrapper(rec).Inject(w)

		mount := generichttp.SubMuxSanitize(cc.Mount)
		mux := chi.NewRouter()
		mux.Use(l.Check)
		w.RT().Bind(mux)
		rootMux.Mount(mount, mux)
		log.Printf("%s %s %s at %s", info.Vendor, info.Model, info.Serial, mount)

		registerMetrics(c)
		if pub != nil {
			c.RegisterImageHandler(pub.ImageHandler(info.Serial))
			c.RegisterDeviceHandler(pub.DeviceHandler(info.Serial))
		}
	}
	rootMux.Handle("/metrics", promhttp.Handler())
	log.Println("now listening for requests at", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, rootMux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
