package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type for launchers.
	ServiceType = "_volley._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the default launcher control port.
	DefaultPort = 8617
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS lookups.
	BrowseTimeout = 10 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// State hints carried in the ST TXT key. They are a coarse reflection
// of the launcher's firing mode for device lists; the authoritative
// state always comes from the control connection.
const (
	StateHintIdle       = "idle"
	StateHintSingleShot = "single-shot"
	StateHintContinuous = "continuous"
)

// ValidStateHint reports whether s is a known state hint.
func ValidStateHint(s string) bool {
	switch s {
	case StateHintIdle, StateHintSingleShot, StateHintContinuous:
		return true
	}
	return false
}

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrInvalidStateHint    = errors.New("invalid state hint")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameInvalid = errors.New("invalid instance name")
	ErrNotAdvertising      = errors.New("not advertising")
	ErrNotFound            = errors.New("service not found")
)

// LauncherInfo contains the information a launcher advertises.
type LauncherInfo struct {
	// InstanceName overrides the advertised instance name.
	// Empty means "<DeviceName> (<SerialNumber>)".
	InstanceName string

	// DeviceName is the user-facing launcher name.
	DeviceName string

	// Model is the hardware model designation.
	Model string

	// SerialNumber is the device serial number.
	SerialNumber string

	// ProtocolVersion is the control protocol version, e.g. "volley/1".
	ProtocolVersion string

	// State is the current state hint (one of the StateHint constants).
	// Empty defaults to StateHintIdle.
	State string

	// Port is the control port. Zero means DefaultPort.
	Port uint16
}

// Validate checks that the info can be advertised.
func (i *LauncherInfo) Validate() error {
	if i.DeviceName == "" {
		return fmt.Errorf("%w: device name", ErrMissingRequired)
	}
	if i.SerialNumber == "" {
		return fmt.Errorf("%w: serial number", ErrMissingRequired)
	}
	if i.State != "" && !ValidStateHint(i.State) {
		return fmt.Errorf("%w: %q", ErrInvalidStateHint, i.State)
	}
	return nil
}

// Instance returns the advertised instance name, deriving and
// sanitizing the default when none is set.
func (i *LauncherInfo) Instance() string {
	if i.InstanceName != "" {
		return SanitizeInstanceName(i.InstanceName)
	}
	return InstanceName(i.DeviceName, i.SerialNumber)
}

// TXTRecord returns the TXT record for this info.
func (i *LauncherInfo) TXTRecord() *TXTRecord {
	state := i.State
	if state == "" {
		state = StateHintIdle
	}
	return &TXTRecord{
		SchemaVersion:   TXTSchemaVersion,
		ProtocolVersion: i.ProtocolVersion,
		DeviceName:      i.DeviceName,
		Model:           i.Model,
		SerialNumber:    i.SerialNumber,
		State:           state,
	}
}

// LauncherService represents a launcher found via mDNS.
type LauncherService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the advertised hostname (e.g. "launcher-01.local.").
	Host string

	// Port is the control port.
	Port uint16

	// Addresses contains resolved IP addresses across all interfaces.
	Addresses []string

	// DeviceName is the launcher name (from TXT "DN").
	DeviceName string

	// Model is the hardware model (from TXT "MD").
	Model string

	// SerialNumber is the serial number (from TXT "SN").
	SerialNumber string

	// ProtocolVersion is the protocol version (from TXT "PV").
	ProtocolVersion string

	// State is the advertised state hint (from TXT "ST").
	State string
}

// Addr returns the first resolved address as "ip:port", or an empty
// string when no address was resolved.
func (s *LauncherService) Addr() string {
	if len(s.Addresses) == 0 {
		return ""
	}
	return net.JoinHostPort(s.Addresses[0], strconv.FormatUint(uint64(s.Port), 10))
}

// InstanceName builds the default instance name for a launcher:
// "<device name> (<serial>)", sanitized for use as a DNS label.
func InstanceName(deviceName, serial string) string {
	name := deviceName
	if serial != "" {
		name = fmt.Sprintf("%s (%s)", deviceName, serial)
	}
	return SanitizeInstanceName(name)
}

// SanitizeInstanceName makes a name safe to use as a DNS-SD instance
// label: dots become dashes, control characters are dropped, and the
// result is truncated to MaxInstanceNameLen bytes on a rune boundary.
func SanitizeInstanceName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '.':
			b.WriteRune('-')
		case r < 0x20 || r == 0x7f:
			// control characters break TXT parsing on some resolvers
		default:
			b.WriteRune(r)
		}
	}

	s := strings.TrimSpace(b.String())
	for len(s) > MaxInstanceNameLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return strings.TrimSpace(s)
}

// ValidateInstanceName checks that a name can be advertised.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameInvalid)
	}
	if len(name) > MaxInstanceNameLen {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInstanceNameInvalid, MaxInstanceNameLen)
	}
	return nil
}
