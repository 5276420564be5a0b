package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu       sync.Mutex
	server   *zeroconf.Server
	instance string
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	return &MDNSAdvertiser{
		config: config,
	}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising the launcher, replacing any existing
// advertisement.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *LauncherInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	instance := info.Instance()
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := a.register(instance, info)
	if err != nil {
		return err
	}

	a.server = server
	a.instance = instance
	return nil
}

// Update refreshes the advertised TXT record. When the instance name
// is unchanged only the TXT data is replaced; otherwise the service is
// re-registered under the new name.
func (a *MDNSAdvertiser) Update(ctx context.Context, info *LauncherInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	instance := info.Instance()
	if err := ValidateInstanceName(instance); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}

	if instance == a.instance {
		a.server.SetText(info.TXTRecord().Encode())
		return nil
	}

	// Renames need a full re-registration.
	a.server.Shutdown()
	a.server = nil

	server, err := a.register(instance, info)
	if err != nil {
		return err
	}

	a.server = server
	a.instance = instance
	return nil
}

// register performs the zeroconf registration. Callers hold the mutex.
func (a *MDNSAdvertiser) register(instance string, info *LauncherInfo) (*zeroconf.Server, error) {
	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		info.TXTRecord().Encode(),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register launcher service: %w", err)
	}
	return server, nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.instance = ""
	}
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	nextID  uint64
	cancels map[uint64]context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) (*MDNSBrowser, error) {
	return &MDNSBrowser{
		config:  config,
		cancels: make(map[uint64]context.CancelFunc),
	}, nil
}

// Browse searches for launchers. Services are aggregated by instance
// name: addresses seen on multiple interfaces are combined into a
// single entry, and a removal is only reported once the last interface
// loses the service.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan Event, error) {
	ctx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.cancels[id] = cancel
	b.mu.Unlock()

	out := make(chan Event)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.cancels, id)
			b.mu.Unlock()
			cancel()
		}()

		// Track services by instance name, aggregating addresses.
		services := make(map[string]*LauncherService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				if svc == nil {
					continue
				}

				if existing, found := services[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}

				services[svc.InstanceName] = svc
				select {
				case out <- Event{Type: EventAdded, Service: svc}:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				existing, found := services[entry.Instance]
				if !found {
					continue
				}
				existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
				if len(existing.Addresses) > 0 {
					continue
				}

				delete(services, entry.Instance)
				select {
				case out <- Event{Type: EventRemoved, Service: existing}:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.browserOptions()...)
	}()

	return out, nil
}

// Lookup resolves a single launcher by instance name.
func (b *MDNSBrowser) Lookup(ctx context.Context, instance string) (*LauncherService, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := b.config.BrowseTimeout
		if timeout <= 0 {
			timeout = BrowseTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	events, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, ErrNotFound
			}
			if ev.Type == EventAdded && ev.Service.InstanceName == instance {
				return ev.Service, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, cancel := range b.cancels {
		cancel()
		delete(b.cancels, id)
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToService converts a zeroconf entry to a LauncherService.
func entryToService(entry *zeroconf.ServiceEntry) *LauncherService {
	record, err := ParseTXTRecord(entry.Text)
	if err != nil {
		return nil
	}

	return &LauncherService{
		InstanceName:    entry.Instance,
		Host:            entry.HostName,
		Port:            uint16(entry.Port),
		Addresses:       entryAddresses(entry),
		DeviceName:      record.DeviceName,
		Model:           record.Model,
		SerialNumber:    record.SerialNumber,
		ProtocolVersion: record.ProtocolVersion,
		State:           record.State,
	}
}

// entryAddresses flattens a zeroconf entry's resolved IPs.
func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to the existing list, avoiding
// duplicates.
func mergeAddresses(existing, found []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range found {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters the lost addresses out of the list.
func removeAddresses(addresses, lost []string) []string {
	toRemove := make(map[string]bool, len(lost))
	for _, addr := range lost {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// Ensure MDNSAdvertiser implements Advertiser interface.
var _ Advertiser = (*MDNSAdvertiser)(nil)

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
