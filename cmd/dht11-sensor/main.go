// Command dht11-sensor polls a DHT11 temperature and humidity sensor and
// publishes readings and sensor health to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/takama/daemon"

	"github.com/sweeney/dht11-sensor/internal/dht11"
	"github.com/sweeney/dht11-sensor/internal/gpio"
	"github.com/sweeney/dht11-sensor/internal/logic"
	"github.com/sweeney/dht11-sensor/internal/metrics"
	"github.com/sweeney/dht11-sensor/internal/mqtt"
	"github.com/sweeney/dht11-sensor/internal/status"
	"github.com/sweeney/dht11-sensor/internal/web"
)

const (
	name        = "dht11-sensor"
	description = "DHT11 temperature and humidity publisher"
)

// SensorReader is the part of *dht11.Sensor the poll loop uses.
type SensorReader interface {
	Read() (dht11.Reading, error)
	Store(dht11.Reading)
}

type config struct {
	backend    gpio.Backend
	chip       string
	pin        int
	interval   time.Duration
	broker     string
	httpAddr   string
	heartbeat  time.Duration
	faultAfter int
	once       bool
	logLevel   string
	logJSON    bool

	// command is a service subcommand (install, remove, ...), empty to run.
	command string
}

var errUsage = errors.New("usage: " + name + " [flags] [install | remove | start | stop | status]")

func parseFlags(args []string, output io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	backend := fs.String("backend", string(gpio.BackendCdev), fmt.Sprintf("GPIO backend %v", gpio.Backends))
	fs.StringVar(&cfg.chip, "chip", gpio.DefaultChip, "GPIO chip (gpiocdev backend)")
	fs.IntVar(&cfg.pin, "pin", gpio.DefaultPin, "BCM pin number of the sensor data line")
	fs.DurationVar(&cfg.interval, "interval", 2*time.Second, "Read interval (at least 1s)")
	fs.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	fs.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	fs.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.IntVar(&cfg.faultAfter, "fault-after", logic.DefaultFaultAfter, "Consecutive failed reads before reporting a sensor fault")
	fs.BoolVar(&cfg.once, "once", false, "Read once, print the result and exit")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "Log in JSON")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	b, err := gpio.ParseBackend(*backend)
	if err != nil {
		return cfg, err
	}
	cfg.backend = b

	if cfg.interval < dht11.MinReadInterval {
		return cfg, fmt.Errorf("interval %v is below the sensor minimum of %v", cfg.interval, dht11.MinReadInterval)
	}
	if cfg.faultAfter < 1 {
		return cfg, fmt.Errorf("fault-after must be at least 1, got %d", cfg.faultAfter)
	}

	switch fs.NArg() {
	case 0:
	case 1:
		switch cmd := fs.Arg(0); cmd {
		case "install", "remove", "start", "stop", "status":
			cfg.command = cmd
		default:
			return cfg, errUsage
		}
	default:
		return cfg, errUsage
	}
	return cfg, nil
}

func newLogger(level string, asJSON bool, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	if asJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

// Service has embedded daemon
type Service struct {
	daemon.Daemon
}

// Manage runs a service subcommand, or the daemon itself.
func (service *Service) Manage(cfg config, log *logrus.Logger) (string, error) {
	switch cfg.command {
	case "install":
		// Persist the flags given alongside install.
		return service.Install(os.Args[1 : len(os.Args)-1]...)
	case "remove":
		return service.Remove()
	case "start":
		return service.Start()
	case "stop":
		return service.Stop()
	case "status":
		return service.Status()
	}
	return "", run(cfg, log)
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(cfg.logLevel, cfg.logJSON, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.command == "" {
		if err := run(cfg, log); err != nil {
			log.WithError(err).Fatal("fatal")
		}
		return
	}

	srv, err := daemon.New(name, description, daemon.SystemDaemon)
	if err != nil {
		log.WithError(err).Fatal("init service")
	}
	service := &Service{srv}
	out, err := service.Manage(cfg, log)
	if err != nil {
		log.WithError(err).Fatal(out)
	}
	fmt.Println(out)
}

func openSensor(cfg config, log logrus.FieldLogger) (*dht11.Sensor, gpio.Line, error) {
	line, err := gpio.Open(gpio.Config{Backend: cfg.backend, Chip: cfg.chip, Pin: cfg.pin})
	if err != nil {
		return nil, nil, fmt.Errorf("open gpio: %w", err)
	}

	opts := []dht11.Option{dht11.WithLogger(log)}
	// The simulated line runs on its own virtual clock.
	if c, ok := line.(dht11.Clock); ok {
		opts = append(opts, dht11.WithClock(c))
	}
	if s, ok := line.(dht11.Sleeper); ok {
		opts = append(opts, dht11.WithSleeper(s))
	}

	sensor, err := dht11.Init(line, opts...)
	if err != nil {
		line.Close()
		return nil, nil, fmt.Errorf("init sensor: %w", err)
	}
	return sensor, line, nil
}

func run(cfg config, log *logrus.Logger) error {
	// Bit timing is sampled by busy-waiting; keep the poll loop on one thread.
	runtime.LockOSThread()

	sensor, line, err := openSensor(cfg, log)
	if err != nil {
		return err
	}
	defer line.Close()

	if cfg.once {
		r, err := sensor.Read()
		if err != nil {
			fmt.Printf("error: %s\n", dht11.Kind(err))
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Println(r)
		return nil
	}

	m := metrics.New(dht11.Kinds)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Backend:     string(cfg.backend),
		Pin:         fmt.Sprintf("GPIO%d", cfg.pin),
		IntervalMs:  cfg.interval.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		FaultAfter:  cfg.faultAfter,
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	publisher, err := mqtt.NewRealPublisher(cfg.broker, log, func(p mqtt.Publisher) {
		if err := p.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err != nil {
			log.WithError(err).Warn("failed to publish reconnected event")
		}
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.WithError(err).Warn("failed to publish startup event")
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.httpAddr).Info("http status server listening")
	}

	log.WithFields(logrus.Fields{
		"backend":     cfg.backend,
		"pin":         cfg.pin,
		"interval":    cfg.interval,
		"broker":      cfg.broker,
		"heartbeat":   cfg.heartbeat,
		"fault_after": cfg.faultAfter,
	}).Info("started")

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loop := &poller{
		reader:     sensor,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    m,
		log:        log,
		faultAfter: cfg.faultAfter,
		heartbeat:  cfg.heartbeat,
		now:        time.Now,
	}
	return loop.run(ticker.C, sigCh)
}

// poller reads the sensor on every tick and fans the outcome out to the
// monitor, MQTT, the status tracker and metrics. tracker, mqttStatus and
// metrics are optional.
type poller struct {
	reader     SensorReader
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	faultAfter int
	heartbeat  time.Duration
	now        func() time.Time
}

func (p *poller) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	monitor := logic.NewMonitor(p.faultAfter, p.now())

	for {
		select {
		case s := <-sig:
			p.shutdown(s)
			return nil
		case <-tick:
			p.poll(monitor)
		}
	}
}

func (p *poller) poll(monitor *logic.Monitor) {
	t := p.now()
	began := time.Now()
	r, err := p.reader.Read()
	took := time.Since(began)

	in := logic.Input{Time: t}
	if err != nil {
		in.Err = dht11.Kind(err)
		p.log.WithError(err).WithField("kind", in.Err).Warn("sensor read failed")
	} else {
		in.Temperature = r.Temperature
		in.Humidity = r.Humidity
		p.reader.Store(r)
		p.log.WithFields(logrus.Fields{
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
		}).Debug("sensor read")
	}

	if p.metrics != nil {
		p.metrics.ObserveRead(dht11.Kind(err), took)
		if in.OK() {
			p.metrics.SetReading(in.Temperature, in.Humidity, t)
		}
	}

	for _, event := range monitor.Process(in) {
		p.log.WithFields(logrus.Fields{
			"event":       event.Type,
			"temperature": event.Temperature,
			"humidity":    event.Humidity,
			"error":       event.Error,
		}).Info("event")
		if err := p.publisher.Publish(event); err != nil {
			// Don't crash on publish failure
			p.log.WithError(err).Warn("publish error")
		}
	}

	if p.metrics != nil {
		p.metrics.SetFaulted(monitor.Faulted())
	}

	// Update status tracker for HTTP consumers
	if p.tracker != nil {
		p.tracker.Update(in, monitor.Faulted(), monitor.CountsSnapshot())
		if p.mqttStatus != nil {
			p.tracker.SetMQTTConnected(p.mqttStatus.IsConnected())
		}
	}

	if hb := monitor.CheckHeartbeat(t, p.heartbeat); hb != nil {
		p.log.WithFields(logrus.Fields{
			"uptime":   hb.Uptime,
			"reads":    hb.Counts.Reads,
			"ok":       hb.Counts.OK,
			"failures": hb.Counts.Total(),
			"faulted":  monitor.Faulted(),
		}).Info("heartbeat")

		event := mqtt.SystemEvent{
			Timestamp: hb.Timestamp,
			Event:     "HEARTBEAT",
		}
		if p.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				p.tracker.SetNetwork(net)
			}
			event.RawPayload = status.FormatStatusEvent(p.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := p.publisher.PublishSystem(event); err != nil {
			p.log.WithError(err).Warn("heartbeat publish error")
		}
	}
}

func (p *poller) shutdown(s os.Signal) {
	p.log.WithField("signal", s).Info("shutting down")
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: p.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if p.tracker != nil {
		if p.mqttStatus != nil {
			p.tracker.SetMQTTConnected(p.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(p.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := p.publisher.PublishSystem(event); err != nil {
		p.log.WithError(err).Warn("failed to publish shutdown event")
	} else {
		p.log.Info("published shutdown event")
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
