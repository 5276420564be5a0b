// Command volley-log is a tool for viewing and analyzing VOLLEY protocol
// log files.
//
// Log files are created with the -log-file flag of volley-device and
// volley-remote.
//
// Usage:
//
//	volley-log <command> [flags] <file.vlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	volley-log view launcher.vlog
//
//	# View only controller-layer events
//	volley-log view -layer controller launcher.vlog
//
//	# View one connection's events since a point in time
//	volley-log view -conn abc12345 -since 2026-08-26T10:00:00Z launcher.vlog
//
//	# Show statistics
//	volley-log stats launcher.vlog
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/volley-protocol/volley-go/cmd/volley-log/commands"
	"github.com/volley-protocol/volley-go/pkg/log"
)

const usage = `volley-log - VOLLEY Protocol Log Analyzer

Usage:
  volley-log <command> [flags] <file.vlog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file

Use "volley-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `volley-log view - View log file in human-readable format

Usage:
  volley-log view [flags] <file.vlog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, controller, panel, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out, local)")
	category := fs.String("category", "", "Filter by category (message, control, state, actuation, timer, error)")
	conn := fs.String("conn", "", "Filter by connection ID prefix-free exact match")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter log.Filter
	filter.ConnectionID = *conn

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fatal(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fatal(fmt.Errorf("invalid -since value: %w", err))
		}
		filter.TimeStart = &t
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `volley-log stats - Show statistics about the log file

Usage:
  volley-log stats <file.vlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
