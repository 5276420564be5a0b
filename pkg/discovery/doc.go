// Package discovery implements mDNS/DNS-SD discovery for VOLLEY launchers.
//
// Launchers advertise a single service type on the local network:
//
//	_volley._tcp.local.
//
// # Advertisement
//
// A launcher registers one service instance named after its device name
// and serial number, e.g. "Courtside Launcher (VL-2040-0017)". The TXT
// record carries the launcher's identity and a coarse state hint so
// remotes can render a device list without opening a connection.
//
// # TXT Record
//
// Keys:
//
//	V   TXT schema version (currently 1)
//	PV  protocol version, e.g. "volley/1"
//	DN  device name
//	MD  model
//	SN  serial number
//	ST  state hint: idle, single-shot or continuous
//
// Unknown keys are ignored so older remotes keep working when the
// schema grows.
//
// # Browsing
//
// Browser.Browse streams Added/Removed events aggregated across network
// interfaces: a launcher reachable over several interfaces appears once,
// with its addresses merged, and is only reported removed when the last
// interface loses it. Lookup resolves a single instance by name.
package discovery
