package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/service"
)

// runConsole runs the readline command loop until quit or context
// cancellation. Cancelling the passed cancel func shuts the daemon
// down.
func runConsole(ctx context.Context, cancel context.CancelFunc, svc *service.LauncherService, logger *slog.Logger) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "launcher> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.Error("failed to create readline", "err", err)
		return
	}
	defer rl.Close()

	printConsoleHelp(rl)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			printConsoleHelp(rl)

		case "fire", "f":
			runCommand(rl, func() error { return svc.Commander().Fire(ctx) }, "SINGLE FIRE!")

		case "auto", "a":
			cmdAuto(ctx, rl, svc, args)

		case "halt", "stop":
			runCommand(rl, func() error { return svc.Commander().Halt(ctx) }, "STOPPED")

		case "status", "s":
			cmdStatus(rl, svc)

		case "timings", "t":
			cmdTimings(rl, svc)

		case "quit", "exit", "q":
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func printConsoleHelp(rl *readline.Instance) {
	fmt.Fprintln(rl.Stdout(), `
Launcher Commands:
  fire               - Fire a single shot
  auto start|stop    - Start or stop continuous fire
  halt               - Emergency stop (motors off, trigger released)
  status             - Show launcher state
  timings            - Show configured timings
  help               - Show this help
  quit               - Stop the launcher and exit`)
}

// runCommand executes a commander call and prints the acknowledgement
// the wire surface would return.
func runCommand(rl *readline.Instance, fn func() error, ack string) {
	if err := fn(); err != nil {
		fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(rl.Stdout(), ack)
}

// cmdAuto handles "auto start" and "auto stop". A missing or unknown
// argument is rejected with the same texts the wire surface uses.
func cmdAuto(ctx context.Context, rl *readline.Instance, svc *service.LauncherService, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(rl.Stdout(), "Missing mode parameter")
		return
	}

	switch strings.ToLower(args[0]) {
	case "start":
		runCommand(rl, func() error { return svc.Commander().StartContinuous(ctx) }, "CONTINUOUS FIRE STARTED")
	case "stop":
		runCommand(rl, func() error { return svc.Commander().StopContinuous(ctx) }, "CONTINUOUS FIRE STOPPED")
	default:
		fmt.Fprintln(rl.Stdout(), "Invalid mode parameter")
	}
}

func cmdStatus(rl *readline.Instance, svc *service.LauncherService) {
	state := svc.Commander().Status()

	fmt.Fprintf(rl.Stdout(), "Mode:    %s\n", state.Mode)
	fmt.Fprintf(rl.Stdout(), "Motors:  %s\n", onOff(state.MotorsRunning))
	fmt.Fprintf(rl.Stdout(), "Trigger: %s\n", pressedReleased(state.TriggerPressed))
	fmt.Fprintf(rl.Stdout(), "Shots:   %d\n", state.ShotCount)
	fmt.Fprintf(rl.Stdout(), "Remotes: %d\n", svc.ConnectionCount())
}

func cmdTimings(rl *readline.Instance, svc *service.LauncherService) {
	t := svc.Config().Timings

	// The controller fills zero fields with defaults; mirror that here
	// so the display matches what is actually running.
	if t.MotorRunTimeout == 0 {
		t.MotorRunTimeout = launcher.DefaultMotorRunTimeout
	}
	if t.TriggerPulseDuration == 0 {
		t.TriggerPulseDuration = launcher.DefaultTriggerPulseDuration
	}
	if t.FireInterval == 0 {
		t.FireInterval = launcher.DefaultFireInterval
	}
	if t.TriggerRestAngle == 0 && t.TriggerFireAngle == 0 {
		t.TriggerRestAngle = launcher.DefaultTriggerRestAngle
		t.TriggerFireAngle = launcher.DefaultTriggerFireAngle
	}

	fmt.Fprintf(rl.Stdout(), "Motor run timeout:   %s\n", t.MotorRunTimeout)
	fmt.Fprintf(rl.Stdout(), "Trigger pulse:       %s\n", t.TriggerPulseDuration)
	fmt.Fprintf(rl.Stdout(), "Fire interval:       %s\n", t.FireInterval)
	fmt.Fprintf(rl.Stdout(), "Servo rest angle:    %d\n", t.TriggerRestAngle)
	fmt.Fprintf(rl.Stdout(), "Servo fire angle:    %d\n", t.TriggerFireAngle)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func pressedReleased(b bool) string {
	if b {
		return "PRESSED"
	}
	return "RELEASED"
}
