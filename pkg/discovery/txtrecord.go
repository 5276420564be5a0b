package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// TXTSchemaVersion is the current TXT record schema version.
const TXTSchemaVersion = 1

// TXT record key constants.
const (
	TXTKeySchemaVersion   = "V"  // TXT schema version
	TXTKeyProtocolVersion = "PV" // protocol version, e.g. "volley/1"
	TXTKeyDeviceName      = "DN" // device name
	TXTKeyModel           = "MD" // model designation
	TXTKeySerialNumber    = "SN" // serial number
	TXTKeyState           = "ST" // state hint: idle/single-shot/continuous
)

// TXTRecord is the parsed form of a launcher's TXT record.
type TXTRecord struct {
	// SchemaVersion is the TXT schema version (from "V").
	SchemaVersion uint8

	// ProtocolVersion is the control protocol version (from "PV").
	ProtocolVersion string

	// DeviceName is the launcher name (from "DN").
	DeviceName string

	// Model is the hardware model (from "MD").
	Model string

	// SerialNumber is the serial number (from "SN").
	SerialNumber string

	// State is the state hint (from "ST").
	State string
}

// Encode returns the record as "key=value" strings in a stable order,
// the format mDNS libraries expect. Empty optional fields are omitted.
func (r *TXTRecord) Encode() []string {
	version := r.SchemaVersion
	if version == 0 {
		version = TXTSchemaVersion
	}

	txt := []string{
		fmt.Sprintf("%s=%d", TXTKeySchemaVersion, version),
	}
	for _, kv := range []struct{ key, value string }{
		{TXTKeyProtocolVersion, r.ProtocolVersion},
		{TXTKeyDeviceName, r.DeviceName},
		{TXTKeyModel, r.Model},
		{TXTKeySerialNumber, r.SerialNumber},
		{TXTKeyState, r.State},
	} {
		if kv.value != "" {
			txt = append(txt, kv.key+"="+kv.value)
		}
	}
	return txt
}

// ParseTXTRecord parses "key=value" strings into a TXTRecord. Unknown
// keys are ignored for forward compatibility. A missing "V" key is
// treated as schema version 1.
func ParseTXTRecord(txt []string) (*TXTRecord, error) {
	record := &TXTRecord{SchemaVersion: TXTSchemaVersion}

	for _, s := range txt {
		key, value, found := strings.Cut(s, "=")
		if !found {
			// Key without value (boolean flag); nothing in the
			// current schema uses these.
			continue
		}

		switch key {
		case TXTKeySchemaVersion:
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: schema version %q", ErrInvalidTXTRecord, value)
			}
			record.SchemaVersion = uint8(v)
		case TXTKeyProtocolVersion:
			record.ProtocolVersion = value
		case TXTKeyDeviceName:
			record.DeviceName = value
		case TXTKeyModel:
			record.Model = value
		case TXTKeySerialNumber:
			record.SerialNumber = value
		case TXTKeyState:
			record.State = value
		}
	}

	return record, nil
}
