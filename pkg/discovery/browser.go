package discovery

import (
	"context"
	"time"
)

// Browser provides mDNS service browsing capabilities.
type Browser interface {
	// Browse searches for launchers and streams Added/Removed events
	// until the context is cancelled. The returned channel is closed
	// when browsing ends.
	Browse(ctx context.Context) (<-chan Event, error)

	// Lookup resolves a single launcher by instance name. Returns
	// ErrNotFound when the browse window closes without a match.
	Lookup(ctx context.Context, instance string) (*LauncherService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds Lookup when the caller's context has no
	// deadline. Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// EventType identifies a browse event.
type EventType uint8

const (
	// EventAdded reports a launcher appearing on the network.
	EventAdded EventType = iota

	// EventRemoved reports a launcher disappearing from every
	// interface it was seen on.
	EventRemoved
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "ADDED"
	case EventRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Event is a single browse observation.
type Event struct {
	// Type indicates whether the launcher appeared or disappeared.
	Type EventType

	// Service is the launcher the event refers to.
	Service *LauncherService
}
