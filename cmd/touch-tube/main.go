// Command touch-tube runs the capacitive touch switch: it turns touch
// measurements into presses, drives the tube valve and publishes state
// changes to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/touch-tube/internal/acquire"
	"github.com/sweeney/touch-tube/internal/config"
	"github.com/sweeney/touch-tube/internal/firmware"
	"github.com/sweeney/touch-tube/internal/gpio"
	"github.com/sweeney/touch-tube/internal/logic"
	"github.com/sweeney/touch-tube/internal/mqtt"
	"github.com/sweeney/touch-tube/internal/status"
	"github.com/sweeney/touch-tube/internal/web"
)

func main() {
	opts, cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := run(cfg, opts.printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	configPath string
	printState bool
	debug      bool
}

// parseFlags loads the config file, if any, and applies the flags given
// explicitly on the command line on top of it.
func parseFlags(fs *flag.FlagSet, args []string) (options, config.Config, error) {
	def := config.Default()
	var opts options

	fs.StringVar(&opts.configPath, "config", "", "TOML tuning file (optional)")
	fs.BoolVar(&opts.printState, "print-state", false, "Sample the battery comparator once and exit")
	fs.BoolVar(&opts.debug, "debug", false, "Log every classified touch")
	tick := fs.Duration("tick", def.Timing.Tick, "Tick period")
	preset := fs.String("preset", def.Classifier.Preset, "Classifier preset (adaptive, fixed, windowed, tracking)")
	broker := fs.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", def.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	replay := fs.String("replay", def.Source.Replay, "CSV recording of touch deltas")
	loop := fs.Bool("loop", def.Source.Loop, "Restart the recording when it ends")
	watchdog := fs.String("watchdog", def.Watchdog, "Watchdog device, e.g. /dev/watchdog (empty for software)")
	chip := fs.String("chip", def.GPIO.Chip, "GPIO character device")
	pinOpen := fs.Int("pin-open", def.GPIO.Open, "Line offset of the valve open coil")
	pinClose := fs.Int("pin-close", def.GPIO.Close, "Line offset of the valve close coil")
	pinRef := fs.Int("pin-ref", def.GPIO.Reference, "Line offset of the battery reference enable")
	pinCmp := fs.Int("pin-cmp", def.GPIO.Comparator, "Line offset of the battery comparator input")

	if err := fs.Parse(args); err != nil {
		return options{}, config.Config{}, err
	}

	cfg := def
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return options{}, config.Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.Timing.Tick = *tick
		case "preset":
			cfg.Classifier.Preset = *preset
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "replay":
			cfg.Source.Replay = *replay
		case "loop":
			cfg.Source.Loop = *loop
		case "watchdog":
			cfg.Watchdog = *watchdog
		case "chip":
			cfg.GPIO.Chip = *chip
		case "pin-open":
			cfg.GPIO.Open = *pinOpen
		case "pin-close":
			cfg.GPIO.Close = *pinClose
		case "pin-ref":
			cfg.GPIO.Reference = *pinRef
		case "pin-cmp":
			cfg.GPIO.Comparator = *pinCmp
		}
	})

	if err := cfg.Validate(); err != nil {
		return options{}, config.Config{}, err
	}
	return opts, cfg, nil
}

func run(cfg config.Config, printState bool) error {
	dc, err := cfg.Device()
	if err != nil {
		return err
	}

	comparator, err := gpio.NewRealComparator(cfg.GPIO.Chip, cfg.GPIO.Reference, cfg.GPIO.Comparator, cfg.GPIO.TripHigh)
	if err != nil {
		return fmt.Errorf("init comparator: %w", err)
	}
	defer comparator.Close()

	battery := logic.NewBatteryMonitor(comparator, cfg.Timing.BatterySettle, time.Sleep)
	battery.OnError = func(err error) { log.Warnf("battery check: %v", err) }

	if printState {
		battery.Check()
		fmt.Printf("battery: %s\n", batteryString(battery.Low()))
		return nil
	}

	if cfg.Source.Replay == "" {
		return errors.New("no acquisition source: set -replay or [source] replay")
	}
	source, err := acquire.OpenReplay(cfg.Source.Replay, cfg.Timing.Tick, cfg.Source.Loop)
	if err != nil {
		return err
	}

	actuator, err := gpio.NewRealActuator(cfg.GPIO.Chip, cfg.GPIO.Open, cfg.GPIO.Close, cfg.GPIO.PulseWidth)
	if err != nil {
		return fmt.Errorf("init actuator: %w", err)
	}
	defer actuator.Close()

	var watchdog firmware.Watchdog = &firmware.CountingWatchdog{}
	if cfg.Watchdog != "" {
		wd, err := firmware.OpenFileWatchdog(cfg.Watchdog)
		if err != nil {
			return err
		}
		defer wd.Close()
		watchdog = wd
	}

	d := &daemon{cfg: cfg}
	if cfg.MQTT.Broker != "" {
		publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		d.publisher = publisher
		d.conn = publisher
	}

	bootID := uuid.NewString()
	d.tracker = status.NewTracker(time.Now(), bootID, displayConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, d.tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	device := logic.NewDevice(dc, actuator, battery, nil)
	device.OnActuatorError = func(ch logic.Channel, err error) {
		log.Errorf("actuator %s: %v", ch, err)
	}

	log.Infof("started: boot=%s tick=%v preset=%s press=[%d,%d) ticks broker=%s heartbeat=%v",
		bootID, cfg.Timing.Tick, cfg.Classifier.Preset, dc.MinPressTicks, dc.MaxPressTicks, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.serve(context.Background(), device, source, watchdog, sigCh)
}

// daemon ties the device loop to the status tracker and the publisher.
type daemon struct {
	cfg       config.Config
	tracker   *status.Tracker
	publisher mqtt.Publisher        // nil when MQTT is disabled
	conn      mqtt.ConnectionStatus // nil when MQTT is disabled
}

// serve starts the device and runs it until a signal arrives or ctx ends.
func (d *daemon) serve(ctx context.Context, device *logic.Device, source acquire.Source, watchdog firmware.Watchdog, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reason := make(chan string, 1)
	go func() {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			reason <- signalName(s)
			cancel()
		case <-ctx.Done():
			reason <- "CANCELLED"
		}
	}()

	device.Start()
	d.UpdateDevice(device.Snapshot())
	d.systemEvent("STARTUP", "", true)

	opts := []firmware.Option{
		firmware.WithState(d),
		firmware.WithHeartbeat(d.cfg.MQTT.Heartbeat, d.heartbeat),
	}
	if d.publisher != nil {
		opts = append(opts, firmware.WithSink(d.publisher))
	}
	sleeper := firmware.NewEventSleeper(ctx)
	runner := firmware.NewRunner(device, source, watchdog, sleeper, opts...)

	var wg sync.WaitGroup
	if n, ok := source.(acquire.Notifier); ok {
		n.NotifyComplete(sleeper.WakeAcquisition)
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.RunTicker(ctx, d.cfg.Timing.Tick)
	}()
	err := runner.Run(ctx)
	cancel()
	wg.Wait()

	d.systemEvent("SHUTDOWN", <-reason, true)
	return err
}

// UpdateDevice implements firmware.StateSink.
func (d *daemon) UpdateDevice(snap logic.Snapshot) {
	d.tracker.UpdateDevice(snap)
	d.refreshMQTT()
}

func (d *daemon) refreshMQTT() {
	if d.conn == nil {
		return
	}
	d.tracker.SetMQTTConnected(d.conn.IsConnected())
	d.tracker.SetMQTTPending(d.conn.Pending())
}

func (d *daemon) heartbeat(now time.Time) {
	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}
	snap := d.tracker.Snapshot()
	log.Infof("heartbeat: uptime=%v tube=%s system=%s presses=%d auto_off=%d mqtt_pending=%d",
		snap.Uptime().Truncate(time.Second), snap.Device.Tube, snap.Device.System,
		snap.Device.Counts.Presses, snap.Device.Counts.AutoOff, snap.MQTTPending)
	d.systemEvent("HEARTBEAT", "", false)
}

// systemEvent publishes a lifecycle event carrying the full status snapshot.
func (d *daemon) systemEvent(event, reason string, retained bool) {
	if d.publisher == nil {
		return
	}
	d.refreshMQTT()
	snap := d.tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	name := strings.ToLower(event)
	if err := d.publisher.PublishSystem(e); err != nil {
		log.Warnf("failed to publish %s event: %v", name, err)
		return
	}
	log.Infof("published %s event", name)
}

func displayConfig(cfg config.Config) status.Config {
	return status.Config{
		TickMs:      cfg.Timing.Tick.Milliseconds(),
		MinPressMs:  cfg.Timing.MinPress.Milliseconds(),
		MaxPressMs:  cfg.Timing.MaxPress.Milliseconds(),
		FreezeMs:    cfg.Timing.Freeze.Milliseconds(),
		AutoOffMs:   cfg.Timing.AutoOff.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Preset:      cfg.Classifier.Preset,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
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

func batteryString(low bool) string {
	if low {
		return "LOW"
	}
	return "OK"
}
