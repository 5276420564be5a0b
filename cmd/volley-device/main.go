// Command volley-device runs the launcher daemon.
//
// It drives the firing state machine against the selected hardware
// layer, listens for remotes on the control port, optionally serves the
// embedded browser panel, and advertises itself via mDNS.
//
// Usage:
//
//	volley-device [flags]
//
// Flags:
//
//	-config string       YAML configuration file path
//	-listen string       Control listen address (default ":8617")
//	-panel string        Panel listen address ("" disables the panel)
//	-name string         User-facing launcher name
//	-model string        Hardware model designation
//	-serial string       Serial number (auto-generated if empty)
//	-hal string          Hardware layer: sim, gpio (default "sim")
//	-motor-a-pin string  Flywheel motor A pin (gpio HAL)
//	-motor-b-pin string  Flywheel motor B pin (gpio HAL)
//	-servo-pin string    Trigger servo pin (gpio HAL)
//	-motor-timeout dur   Single-shot motor run timeout
//	-pulse dur           Trigger pulse duration
//	-interval dur        Continuous-fire interval
//	-log-file string     Protocol event capture file (.vlog)
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-no-discovery        Disable mDNS advertising
//	-interactive         Start the readline console
//	-version             Print the protocol version and exit
//
// Examples:
//
//	# Simulated launcher with the browser panel
//	volley-device -panel :8080
//
//	# Real hardware on a Raspberry Pi, with a protocol capture
//	volley-device -hal gpio -serial NERF-001 -log-file launcher.vlog
//
//	# Config file plus overrides
//	volley-device -config /etc/volley/launcher.yaml -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	vlog "github.com/volley-protocol/volley-go/pkg/log"

	"github.com/volley-protocol/volley-go/pkg/hal"
	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/service"
	"github.com/volley-protocol/volley-go/pkg/version"
)

// HALKind selects the hardware layer.
type HALKind string

const (
	HALSim  HALKind = "sim"
	HALGPIO HALKind = "gpio"
)

type options struct {
	configFile string
	listen     string
	panel      string
	name       string
	model      string
	serial     string

	hal       string
	motorAPin string
	motorBPin string
	servoPin  string

	motorTimeout time.Duration
	pulse        time.Duration
	interval     time.Duration

	logFile      string
	logLevel     string
	noDiscovery  bool
	interactive  bool
	printVersion bool
}

var opts options

func init() {
	flag.StringVar(&opts.configFile, "config", "", "YAML configuration file path")
	flag.StringVar(&opts.listen, "listen", "", "Control listen address")
	flag.StringVar(&opts.panel, "panel", "", "Panel listen address (empty disables the panel)")
	flag.StringVar(&opts.name, "name", "", "User-facing launcher name")
	flag.StringVar(&opts.model, "model", "", "Hardware model designation")
	flag.StringVar(&opts.serial, "serial", "", "Serial number (auto-generated if empty)")

	flag.StringVar(&opts.hal, "hal", "sim", "Hardware layer: sim, gpio")
	flag.StringVar(&opts.motorAPin, "motor-a-pin", hal.DefaultMotorAPin, "Flywheel motor A pin (gpio HAL)")
	flag.StringVar(&opts.motorBPin, "motor-b-pin", hal.DefaultMotorBPin, "Flywheel motor B pin (gpio HAL)")
	flag.StringVar(&opts.servoPin, "servo-pin", hal.DefaultServoPin, "Trigger servo pin (gpio HAL)")

	flag.DurationVar(&opts.motorTimeout, "motor-timeout", 0, "Single-shot motor run timeout")
	flag.DurationVar(&opts.pulse, "pulse", 0, "Trigger pulse duration")
	flag.DurationVar(&opts.interval, "interval", 0, "Continuous-fire interval")

	flag.StringVar(&opts.logFile, "log-file", "", "Protocol event capture file")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.noDiscovery, "no-discovery", false, "Disable mDNS advertising")
	flag.BoolVar(&opts.interactive, "interactive", false, "Start the readline console")
	flag.BoolVar(&opts.printVersion, "version", false, "Print the protocol version and exit")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	if opts.printVersion {
		fmt.Println(version.String())
		return
	}

	logger := setupLogging(opts.logLevel)

	cfg, err := buildConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	protoLog, closeLog, err := buildProtocolLogger(logger)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()
	cfg.Logger = protoLog

	actuator, closeHAL, err := buildHAL(logger)
	if err != nil {
		log.Fatalf("Failed to initialize %s HAL: %v", opts.hal, err)
	}
	defer closeHAL()

	svc, err := service.NewLauncherService(actuator, *cfg)
	if err != nil {
		log.Fatalf("Failed to create launcher service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	logger.Info("launcher running",
		"name", svc.Config().Name,
		"serial", svc.Config().SerialNumber,
		"control", svc.Addr().String(),
	)
	if addr := svc.PanelAddr(); addr != nil {
		logger.Info("panel available", "url", fmt.Sprintf("http://%s/", addr))
	}

	if opts.interactive {
		go runConsole(ctx, cancel, svc, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("console exit, shutting down")
	}

	if err := svc.Stop(); err != nil {
		logger.Error("error stopping service", "err", err)
	}
}

// setupLogging builds the application logger from the -log-level flag.
func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildConfig loads the optional config file and applies flag
// overrides on top.
func buildConfig() (*service.Config, error) {
	cfg := &service.Config{}
	if opts.configFile != "" {
		loaded, err := service.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.listen != "" {
		cfg.ListenAddress = opts.listen
	}
	if opts.panel != "" {
		cfg.PanelAddress = opts.panel
	}
	if opts.name != "" {
		cfg.Name = opts.name
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.serial != "" {
		cfg.SerialNumber = opts.serial
	}
	if cfg.SerialNumber == "" {
		cfg.SerialNumber = fmt.Sprintf("volley-%04d", time.Now().Unix()%10000)
	}

	if opts.motorTimeout != 0 {
		cfg.Timings.MotorRunTimeout = opts.motorTimeout
	}
	if opts.pulse != 0 {
		cfg.Timings.TriggerPulseDuration = opts.pulse
	}
	if opts.interval != 0 {
		cfg.Timings.FireInterval = opts.interval
	}
	if opts.noDiscovery {
		cfg.DisableDiscovery = true
	}

	return cfg, nil
}

// buildProtocolLogger assembles the protocol event logger: debug-level
// console echo always, plus the CBOR capture when -log-file is set.
func buildProtocolLogger(logger *slog.Logger) (vlog.Logger, func(), error) {
	console := vlog.NewSlogAdapter(logger)

	if opts.logFile == "" {
		return console, func() {}, nil
	}

	file, err := vlog.NewFileLogger(opts.logFile)
	if err != nil {
		return nil, nil, err
	}

	return vlog.NewMultiLogger(console, file), func() { _ = file.Close() }, nil
}

// buildHAL constructs the selected actuation backend.
func buildHAL(logger *slog.Logger) (launcher.Actuator, func(), error) {
	switch HALKind(opts.hal) {
	case HALSim:
		sim := hal.NewSimulator()
		sim.OnEvent(func(ev hal.Event) {
			switch ev.Kind {
			case hal.EventMotors:
				logger.Debug("sim actuation", "kind", "motors", "on", ev.On)
			case hal.EventTrigger:
				logger.Debug("sim actuation", "kind", "trigger", "angle", ev.Angle)
			}
		})
		return sim, func() {}, nil

	case HALGPIO:
		gpioHAL, err := hal.NewGPIO(hal.GPIOConfig{
			MotorAPin: opts.motorAPin,
			MotorBPin: opts.motorBPin,
			ServoPin:  opts.servoPin,
			OnError: func(err error) {
				logger.Error("pin fault", "err", err)
			},
		})
		if err != nil {
			return nil, nil, err
		}
		return gpioHAL, func() { _ = gpioHAL.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown HAL %q (sim, gpio)", opts.hal)
	}
}
