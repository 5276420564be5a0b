package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Connections       map[string]*ConnectionStats
	Shots             int
	Actuations        int
	Errors            int
	AckLatency        LatencyStats
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Requests  int
	Responses int
}

// LatencyStats aggregates command-to-acknowledgement round trips, as
// recorded by the dispatcher in response ProcessingTime.
type LatencyStats struct {
	Count int
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
}

// add folds one sample into the aggregate.
func (l *LatencyStats) add(d time.Duration) {
	if l.Count == 0 || d < l.Min {
		l.Min = d
	}
	if d > l.Max {
		l.Max = d
	}
	l.Total += d
	l.Count++
}

// Mean returns the average latency, or zero without samples.
func (l *LatencyStats) Mean() time.Duration {
	if l.Count == 0 {
		return 0
	}
	return l.Total / time.Duration(l.Count)
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}

	printStats(w, stats)
	return nil
}

// collectStats folds every event of the capture into the aggregate.
func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.ConnectionID != "" {
			conn, ok := stats.Connections[event.ConnectionID]
			if !ok {
				conn = &ConnectionStats{
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				}
				stats.Connections[event.ConnectionID] = conn
			}
			conn.Events++
			if event.Timestamp.After(conn.LastSeen) {
				conn.LastSeen = event.Timestamp
			}
			if event.Message != nil {
				switch event.Message.Type {
				case wire.MessageTypeRequest:
					conn.Requests++
				case wire.MessageTypeResponse:
					conn.Responses++
				}
			}
		}

		if event.Message != nil && event.Message.ProcessingTime != nil {
			stats.AckLatency.add(*event.Message.ProcessingTime)
		}

		if event.Actuation != nil {
			stats.Actuations++
			if event.Actuation.Kind == log.ActuationTrigger {
				stats.Shots++
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	// Each shot is a press and a release.
	stats.Shots /= 2

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== VOLLEY Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerController, log.LayerPanel, log.LayerService} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryControl, log.CategoryState, log.CategoryActuation, log.CategoryTimer, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Shots:      %d\n", stats.Shots)
	fmt.Fprintf(w, "Actuations: %d\n", stats.Actuations)
	fmt.Fprintf(w, "Errors:     %d\n", stats.Errors)
	fmt.Fprintln(w)

	if stats.AckLatency.Count > 0 {
		fmt.Fprintln(w, "Command/Ack Latency:")
		fmt.Fprintf(w, "  Count: %d\n", stats.AckLatency.Count)
		fmt.Fprintf(w, "  Min:   %s\n", formatDuration(stats.AckLatency.Min))
		fmt.Fprintf(w, "  Mean:  %s\n", formatDuration(stats.AckLatency.Mean()))
		fmt.Fprintf(w, "  Max:   %s\n", formatDuration(stats.AckLatency.Max))
		fmt.Fprintln(w)
	}

	if len(stats.Connections) > 0 {
		fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))

		ids := make([]string, 0, len(stats.Connections))
		for id := range stats.Connections {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			conn := stats.Connections[id]
			fmt.Fprintf(w, "  %s: %d events, %d requests, %d responses (%s)\n",
				shortenConnID(id), conn.Events, conn.Requests, conn.Responses,
				conn.LastSeen.Sub(conn.FirstSeen).Round(time.Millisecond))
		}
	}
}
