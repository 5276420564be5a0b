// Package commands implements the volley-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/volley-protocol/volley-go/pkg/log"
)

// RunView reads the capture and writes every matching event in
// human-readable form to w.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(w, event)
		count++
	}

	fmt.Fprintf(w, "%d events\n", count)
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)
	dir := directionArrow(event.Direction)

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Message != nil:
		typeLabel = event.Message.Type.String()
	case event.StateChange != nil:
		typeLabel = event.StateChange.Entity.String()
	case event.ControlMsg != nil:
		typeLabel = event.ControlMsg.Type.String()
	case event.Actuation != nil:
		typeLabel = event.Actuation.Kind.String()
	case event.Timer != nil:
		typeLabel = event.Timer.Kind.String()
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	// Use CTRL for control messages in header
	layerStr := event.Layer.String()
	if event.Category == log.CategoryControl {
		layerStr = "CTRL"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, layerStr, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.ControlMsg != nil:
		formatControlDetails(w, event.ControlMsg)
	case event.Actuation != nil:
		formatActuationDetails(w, event.Actuation)
	case event.Timer != nil:
		formatTimerDetails(w, event.Timer)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// directionArrow renders the direction as an arrow glyph for the
// header line.
func directionArrow(d log.Direction) string {
	switch d {
	case log.DirectionIn:
		return "<--"
	case log.DirectionOut:
		return "-->"
	default:
		return "---"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatMessageDetails writes message-specific details.
func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  MessageID: %d\n", msg.MessageID)

	if msg.Action != nil {
		fmt.Fprintf(w, "  Action: %s\n", msg.Action.String())
	}
	if msg.Mode != "" {
		fmt.Fprintf(w, "  Mode: %s\n", msg.Mode)
	}
	if msg.Status != nil {
		fmt.Fprintf(w, "  Status: %s (%d)\n", msg.Status.String(), *msg.Status)
	}
	if msg.Text != "" {
		fmt.Fprintf(w, "  Text: %q\n", msg.Text)
	}
	if msg.State != nil {
		fmt.Fprintf(w, "  State: mode=%s motors=%t trigger=%t shots=%d\n",
			msg.State.Mode, msg.State.MotorsRunning, msg.State.TriggerPressed, msg.State.ShotCount)
	}
	if msg.ProcessingTime != nil {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*msg.ProcessingTime))
	}
}

// formatStateChangeDetails writes state-change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatControlDetails writes control message details.
func formatControlDetails(w io.Writer, cm *log.ControlMsgEvent) {
	if cm.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", cm.Reason)
	}
}

// formatActuationDetails writes hardware-write details.
func formatActuationDetails(w io.Writer, act *log.ActuationEvent) {
	switch act.Kind {
	case log.ActuationMotors:
		fmt.Fprintf(w, "  Motors: %t\n", act.On)
	case log.ActuationTrigger:
		fmt.Fprintf(w, "  Angle: %d\n", act.Angle)
	}
}

// formatTimerDetails writes deadline transition details.
func formatTimerDetails(w io.Writer, tm *log.TimerEvent) {
	fmt.Fprintf(w, "  Change: %s", tm.Change.String())
	if tm.Deadline > 0 {
		fmt.Fprintf(w, "  Deadline: %s", formatDuration(tm.Deadline))
	}
	fmt.Fprintln(w)
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", e.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// formatDuration renders a duration with millisecond precision.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return d.Round(time.Microsecond).String()
}
