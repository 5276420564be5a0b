// Command volley-remote is the operator CLI for a launcher.
//
// It connects to a launcher directly or by mDNS instance name and
// either runs a single command or drops into an interactive prompt.
//
// Usage:
//
//	volley-remote [flags] [command]
//
// Commands:
//
//	fire     Fire a single shot
//	start    Start continuous fire
//	stop     Stop continuous fire
//	halt     Emergency stop
//	status   Show launcher state
//
// With no command, an interactive prompt is started.
//
// Flags:
//
//	-connect string   Launcher address ("host:port")
//	-instance string  mDNS instance name to resolve
//	-discover         Browse for launchers and list them
//	-timeout dur      Per-request timeout (default 10s)
//	-log-file string  Protocol event capture file (.vlog)
//
// Examples:
//
//	# Discover launchers on the network
//	volley-remote -discover
//
//	# One-shot commands
//	volley-remote -connect 192.168.4.1:8617 fire
//	volley-remote -instance "Volley Launcher (NERF-001)" halt
//
//	# Interactive session
//	volley-remote -connect 192.168.4.1:8617
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/volley-protocol/volley-go/pkg/discovery"
	vlog "github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/service"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

type options struct {
	connect  string
	instance string
	discover bool
	timeout  time.Duration
	logFile  string
}

var opts options

func init() {
	flag.StringVar(&opts.connect, "connect", "", `Launcher address ("host:port")`)
	flag.StringVar(&opts.instance, "instance", "", "mDNS instance name to resolve")
	flag.BoolVar(&opts.discover, "discover", false, "Browse for launchers and list them")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.StringVar(&opts.logFile, "log-file", "", "Protocol event capture file")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.discover {
		if err := runDiscover(ctx); err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	if opts.connect == "" && opts.instance == "" {
		fmt.Fprintln(os.Stderr, "Error: -connect or -instance required (or -discover)")
		flag.Usage()
		os.Exit(1)
	}

	var logger vlog.Logger = vlog.NoopLogger{}
	if opts.logFile != "" {
		file, err := vlog.NewFileLogger(opts.logFile)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer file.Close()
		logger = file
	}

	remote, err := service.NewRemoteService(service.RemoteConfig{
		Address:        opts.connect,
		Instance:       opts.instance,
		RequestTimeout: opts.timeout,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := remote.Start(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer remote.Stop()

	if flag.NArg() > 0 {
		if err := runOnce(ctx, remote, flag.Arg(0)); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	runPrompt(ctx, remote)
}

// runDiscover browses for launchers until the timeout elapses and
// prints every one seen.
func runDiscover(ctx context.Context) error {
	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		return err
	}
	defer browser.Stop()

	browseCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	events, err := browser.Browse(browseCtx)
	if err != nil {
		return err
	}

	fmt.Printf("Browsing for launchers (%s)...\n\n", opts.timeout)

	found := 0
	for ev := range events {
		if ev.Type != discovery.EventAdded {
			continue
		}
		found++
		svc := ev.Service
		fmt.Printf("%s\n", svc.InstanceName)
		fmt.Printf("  Address:  %s\n", svc.Addr())
		fmt.Printf("  Model:    %s\n", svc.Model)
		fmt.Printf("  Serial:   %s\n", svc.SerialNumber)
		fmt.Printf("  Protocol: %s\n", svc.ProtocolVersion)
		fmt.Printf("  State:    %s\n\n", svc.State)
	}

	if found == 0 {
		fmt.Println("No launchers found.")
	}
	return nil
}

// runOnce executes a single command and prints the acknowledgement.
func runOnce(ctx context.Context, remote *service.RemoteService, command string) error {
	switch strings.ToLower(command) {
	case "fire":
		return printAck(remote.Fire(ctx))
	case "start":
		return printAck(remote.StartContinuous(ctx))
	case "stop":
		return printAck(remote.StopContinuous(ctx))
	case "halt":
		return printAck(remote.Halt(ctx))
	case "status":
		state, err := remote.Status(ctx)
		if err != nil {
			return err
		}
		printState(os.Stdout, state)
		return nil
	default:
		return fmt.Errorf("unknown command %q (fire, start, stop, halt, status)", command)
	}
}

func printAck(text string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func printState(w io.Writer, state wire.LauncherState) {
	fmt.Fprintf(w, "Mode:    %s\n", state.Mode)
	fmt.Fprintf(w, "Motors:  %t\n", state.MotorsRunning)
	fmt.Fprintf(w, "Trigger: %t\n", state.TriggerPressed)
	fmt.Fprintf(w, "Shots:   %d\n", state.ShotCount)
}

// runPrompt runs the interactive command loop. Pushed status updates
// are printed above the prompt as they arrive.
func runPrompt(ctx context.Context, remote *service.RemoteService) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "remote> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("Failed to create readline: %v", err)
	}
	defer rl.Close()

	remote.OnStatus(func(state wire.LauncherState) {
		fmt.Fprintf(rl.Stdout(), "[status] mode=%s motors=%t trigger=%t shots=%d\n",
			state.Mode, state.MotorsRunning, state.TriggerPressed, state.ShotCount)
	})
	remote.OnDisconnect(func(reason string) {
		fmt.Fprintf(rl.Stdout(), "[disconnected] %s\n", reason)
	})
	remote.OnReconnecting(func(attempt int, delay time.Duration) {
		fmt.Fprintf(rl.Stdout(), "[reconnecting] attempt %d in %s\n", attempt, delay)
	})
	remote.OnConnect(func(addr string) {
		fmt.Fprintf(rl.Stdout(), "[connected] %s\n", addr)
	})

	fmt.Fprintln(rl.Stdout(), "Commands: fire, start, stop, halt, status, quit")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		input := strings.ToLower(strings.TrimSpace(line))
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" || input == "q" {
			return
		}
		if input == "help" || input == "?" {
			fmt.Fprintln(rl.Stdout(), "Commands: fire, start, stop, halt, status, quit")
			continue
		}

		if err := runOnce(ctx, remote, input); err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		}
	}
}
