// Package version provides the protocol version token carried in
// discovery TXT records, plus parsing and compatibility checks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolName is the protocol identifier used in version tokens.
const ProtocolName = "volley"

// ProtocolVersion is the major protocol version implemented by this
// library. Peers interoperate iff their major versions match.
const ProtocolVersion uint16 = 1

// String returns the version token for this library: "volley/1".
func String() string {
	return fmt.Sprintf("%s/%d", ProtocolName, ProtocolVersion)
}

// Parse extracts the major version from a "volley/N" token.
func Parse(token string) (uint16, error) {
	prefix := ProtocolName + "/"
	if !strings.HasPrefix(token, prefix) {
		return 0, fmt.Errorf("not a %s version token: %q", ProtocolName, token)
	}

	suffix := token[len(prefix):]
	if suffix == "" {
		return 0, fmt.Errorf("empty major version in token %q", token)
	}

	major, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid major version in token %q: %w", token, err)
	}

	return uint16(major), nil
}

// IsCompatible reports whether a peer advertising the given token can
// interoperate with this library.
func IsCompatible(token string) bool {
	major, err := Parse(token)
	if err != nil {
		return false
	}
	return major == ProtocolVersion
}
