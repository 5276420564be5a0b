package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/volley-protocol/volley-go/pkg/discovery"
	"github.com/volley-protocol/volley-go/pkg/interaction"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/transport"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// RemoteConfig configures a RemoteService.
type RemoteConfig struct {
	// Address is the launcher's "host:port". When set, discovery is
	// skipped.
	Address string

	// Instance is the mDNS instance name to resolve when Address is
	// empty.
	Instance string

	// ConnectTimeout bounds each connection attempt (default: 10s).
	ConnectTimeout time.Duration

	// RequestTimeout bounds each request awaiting its response
	// (default: interaction.DefaultRequestTimeout).
	RequestTimeout time.Duration

	// DisableReconnect turns automatic reconnection off.
	DisableReconnect bool

	// ReconnectBackoff tunes reconnection timing. Zero fields get the
	// package defaults.
	ReconnectBackoff BackoffConfig

	// Logger receives protocol events (optional).
	Logger log.Logger
}

// applyDefaults fills zero fields with usable values.
func (c *RemoteConfig) applyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = interaction.DefaultRequestTimeout
	}
	if c.Logger == nil {
		c.Logger = &log.NoopLogger{}
	}
}

// Validate checks the configuration.
func (c *RemoteConfig) Validate() error {
	if c.Address == "" && c.Instance == "" {
		return fmt.Errorf("%w: address or instance name required", ErrInvalidConfig)
	}
	return nil
}

// RemoteService maintains a control connection to one launcher. The
// initial connection is made in Start; after that, a lost connection
// is re-established automatically with exponential backoff unless
// reconnection is disabled.
//
// The command methods mirror interaction.Client and return
// ErrNotConnected while the link is down.
type RemoteService struct {
	mu sync.RWMutex

	config RemoteConfig
	state  ServiceState

	// browser may be pre-set before Start; otherwise an MDNSBrowser is
	// created on first lookup.
	browser discovery.Browser

	tclient *transport.Client
	conn    *transport.ClientConn
	client  *interaction.Client

	backoff     *backoff
	reconnectCh chan struct{}

	onStatus       func(state wire.LauncherState)
	onConnect      func(addr string)
	onDisconnect   func(reason string)
	onReconnecting func(attempt int, delay time.Duration)

	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRemoteService creates a remote for the configured launcher.
func NewRemoteService(config RemoteConfig) (*RemoteService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &RemoteService{
		config:      config,
		state:       StateIdle,
		backoff:     newBackoff(config.ReconnectBackoff),
		reconnectCh: make(chan struct{}, 1),
		logger:      config.Logger,
	}, nil
}

// State returns the current service state.
func (s *RemoteService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetBrowser replaces the mDNS browser used for instance lookup. Must
// be called before Start.
func (s *RemoteService) SetBrowser(b discovery.Browser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browser = b
}

// Connected reports whether the control connection is up.
func (s *RemoteService) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

// OnStatus registers a callback for pushed launcher state
// notifications.
func (s *RemoteService) OnStatus(fn func(state wire.LauncherState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// OnConnect registers a callback invoked after every successful
// connection with the resolved address.
func (s *RemoteService) OnConnect(fn func(addr string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

// OnDisconnect registers a callback invoked when the connection goes
// away.
func (s *RemoteService) OnDisconnect(fn func(reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = fn
}

// OnReconnecting registers a callback invoked before each reconnection
// attempt.
func (s *RemoteService) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReconnecting = fn
}

// Start resolves the launcher and establishes the control connection.
// A failed initial connection fails Start; automatic reconnection only
// covers connections lost afterwards.
func (s *RemoteService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.tclient = transport.NewClient(transport.ClientConfig{
		ConnectTimeout: s.config.ConnectTimeout,
		Logger:         s.logger,
		OnMessage:      s.handleIncoming,
		OnDisconnect:   s.handleDisconnect,
	})

	if err := s.connect(s.ctx); err != nil {
		s.cancel()
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	s.wg.Add(1)
	go s.reconnectLoop()

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	return nil
}

// Stop closes the connection and stops reconnection.
func (s *RemoteService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopping
	conn := s.conn
	browser := s.browser
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	if browser != nil {
		browser.Stop()
	}
	s.wg.Wait()

	s.mu.Lock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	s.conn = nil
	s.state = StateStopped
	s.mu.Unlock()

	return nil
}

// Fire requests a single shot.
func (s *RemoteService) Fire(ctx context.Context) (string, error) {
	client, err := s.currentClient()
	if err != nil {
		return "", err
	}
	return client.Fire(ctx)
}

// StartContinuous requests continuous fire.
func (s *RemoteService) StartContinuous(ctx context.Context) (string, error) {
	client, err := s.currentClient()
	if err != nil {
		return "", err
	}
	return client.StartContinuous(ctx)
}

// StopContinuous ends continuous fire.
func (s *RemoteService) StopContinuous(ctx context.Context) (string, error) {
	client, err := s.currentClient()
	if err != nil {
		return "", err
	}
	return client.StopContinuous(ctx)
}

// Halt performs an emergency stop.
func (s *RemoteService) Halt(ctx context.Context) (string, error) {
	client, err := s.currentClient()
	if err != nil {
		return "", err
	}
	return client.Halt(ctx)
}

// Status reads the launcher state.
func (s *RemoteService) Status(ctx context.Context) (wire.LauncherState, error) {
	client, err := s.currentClient()
	if err != nil {
		return wire.LauncherState{}, err
	}
	return client.Status(ctx)
}

// Client returns the current interaction client, or nil while the link
// is down. The client is replaced on every reconnect.
func (s *RemoteService) Client() *interaction.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *RemoteService) currentClient() (*interaction.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}

// connect resolves the launcher address and establishes a fresh
// connection with its own interaction client.
func (s *RemoteService) connect(ctx context.Context) error {
	address := s.config.Address
	if address == "" {
		svc, err := s.lookup(ctx)
		if err != nil {
			return err
		}
		address = svc.Addr()
		if address == "" {
			return fmt.Errorf("instance %q resolved without addresses", s.config.Instance)
		}
	}

	conn, err := s.tclient.Connect(ctx, address)
	if err != nil {
		return err
	}

	client := interaction.NewClient(conn)
	client.SetTimeout(s.config.RequestTimeout)
	client.SetNotificationHandler(s.handleNotification)

	s.mu.Lock()
	s.conn = conn
	s.client = client
	cb := s.onConnect
	s.mu.Unlock()

	if cb != nil {
		cb(address)
	}
	return nil
}

// lookup resolves the configured instance name via mDNS, creating the
// default browser unless one was injected.
func (s *RemoteService) lookup(ctx context.Context) (*discovery.LauncherService, error) {
	s.mu.Lock()
	if s.browser == nil {
		b, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.browser = b
	}
	browser := s.browser
	s.mu.Unlock()

	return browser.Lookup(ctx, s.config.Instance)
}

// handleIncoming routes raw frames from the transport to the current
// interaction client.
func (s *RemoteService) handleIncoming(data []byte) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client == nil {
		return
	}
	if err := client.HandleMessage(data); err != nil {
		s.logError(err, "handle message")
	}
}

// handleNotification forwards pushed launcher state to the registered
// callback.
func (s *RemoteService) handleNotification(state wire.LauncherState) {
	s.mu.RLock()
	cb := s.onStatus
	s.mu.RUnlock()
	if cb != nil {
		cb(state)
	}
}

// handleDisconnect tears down the per-connection client and schedules
// reconnection unless the service is stopping.
func (s *RemoteService) handleDisconnect(reason string) {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.conn = nil
	running := s.state == StateRunning || s.state == StateStarting
	cb := s.onDisconnect
	s.mu.Unlock()

	if client != nil {
		client.Close()
	}
	if cb != nil {
		cb(reason)
	}

	if running && !s.config.DisableReconnect {
		s.triggerReconnect()
	}
}

// triggerReconnect wakes the reconnect loop. A pending trigger is
// enough; extra ones collapse.
func (s *RemoteService) triggerReconnect() {
	select {
	case s.reconnectCh <- struct{}{}:
	default:
	}
}

// reconnectLoop waits for lost-connection triggers and re-establishes
// the connection with backoff.
func (s *RemoteService) reconnectLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.reconnectCh:
			s.runReconnect()
		}
	}
}

// runReconnect retries until connected, stopped, or the context ends.
func (s *RemoteService) runReconnect() {
	for {
		if s.State() != StateRunning || s.Connected() {
			return
		}

		delay := s.backoff.Next()

		s.mu.RLock()
		cb := s.onReconnecting
		s.mu.RUnlock()
		if cb != nil {
			cb(s.backoff.Attempts(), delay)
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}

		if s.State() != StateRunning {
			return
		}

		if err := s.connect(s.ctx); err != nil {
			s.logError(err, "reconnect")
			continue
		}

		s.backoff.Reset()
		return
	}
}

// logError records a remote-side error event.
func (s *RemoteService) logError(err error, operation string) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionLocal,
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		LocalRole: log.RoleRemote,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: operation,
		},
	})
}
