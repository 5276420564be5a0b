package service

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/volley-protocol/volley-go/pkg/clock"
	"github.com/volley-protocol/volley-go/pkg/discovery"
	"github.com/volley-protocol/volley-go/pkg/interaction"
	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/panel"
	"github.com/volley-protocol/volley-go/pkg/transport"
	"github.com/volley-protocol/volley-go/pkg/version"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// LauncherService runs the device side of the protocol: the firing
// loop, the control listener, the optional browser panel, and the mDNS
// advertisement.
type LauncherService struct {
	mu sync.RWMutex

	config Config
	state  ServiceState

	actuator launcher.Actuator
	clk      clock.Clock

	ctrl      *launcher.Controller
	loop      *launcher.Loop
	commander *launcher.LoopCommander

	server     *transport.Server
	dispatcher *interaction.Dispatcher
	panel      *panel.Server

	// advertiser may be pre-set before Start; otherwise an
	// MDNSAdvertiser is created on first use.
	advertiser discovery.Advertiser

	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLauncherService creates a launcher service driving the given
// actuator.
func NewLauncherService(act launcher.Actuator, config Config) (*LauncherService, error) {
	if act == nil {
		return nil, launcher.ErrNilActuator
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &LauncherService{
		config:   config,
		state:    StateIdle,
		actuator: act,
		clk:      clock.NewSystemClock(),
		logger:   config.Logger,
	}, nil
}

// Config returns the service configuration with defaults applied.
func (s *LauncherService) Config() Config {
	return s.config
}

// SetAdvertiser replaces the mDNS advertiser. Must be called before
// Start.
func (s *LauncherService) SetAdvertiser(adv discovery.Advertiser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advertiser = adv
}

// State returns the current service state.
func (s *LauncherService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start brings the service up: loop first, then the control listener,
// the panel, and the advertisement. On error everything already
// started is torn down again.
func (s *LauncherService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	oldState := s.state
	s.state = StateStarting
	s.mu.Unlock()
	s.logServiceState(oldState, StateStarting)

	s.ctx, s.cancel = context.WithCancel(ctx)

	// All hardware writes pass through the protocol log.
	act := &loggingActuator{
		inner:  s.actuator,
		logger: s.logger,
		serial: s.config.SerialNumber,
	}

	ctrl, err := launcher.NewController(act, s.config.Timings)
	if err != nil {
		return s.failStart(err)
	}
	ctrl.OnModeChange(s.handleModeChange)
	ctrl.OnShot(s.handleShot)
	ctrl.OnTimer(s.handleTimer)

	loop, err := launcher.NewLoop(ctrl, s.clk, launcher.LoopConfig{
		TickInterval: s.config.TickInterval,
	})
	if err != nil {
		return s.failStart(err)
	}

	commander, err := launcher.NewLoopCommander(loop, ctrl)
	if err != nil {
		return s.failStart(err)
	}

	dispatcher, err := interaction.NewDispatcher(interaction.DispatcherConfig{
		Commander:    commander,
		Logger:       s.logger,
		SerialNumber: s.config.SerialNumber,
	})
	if err != nil {
		return s.failStart(err)
	}

	server := transport.NewServer(transport.ServerConfig{
		Address:   s.config.ListenAddress,
		Logger:    s.logger,
		OnMessage: dispatcher.HandleMessage,
		OnError: func(connID string, err error) {
			s.logError(err, "connection "+connID)
		},
	})

	s.mu.Lock()
	s.ctrl = ctrl
	s.loop = loop
	s.commander = commander
	s.dispatcher = dispatcher
	s.server = server
	s.mu.Unlock()

	// The loop must consume submissions before the listener can hand
	// out commands.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = loop.Run(s.ctx)
	}()

	if err := server.Start(s.ctx); err != nil {
		s.stopLoop()
		return s.failStart(err)
	}

	if s.config.PanelAddress != "" {
		p, err := panel.NewServer(panel.Config{
			Address:      s.config.PanelAddress,
			Commander:    commander,
			Logger:       s.logger,
			SerialNumber: s.config.SerialNumber,
		})
		if err == nil {
			err = p.Start()
		}
		if err != nil {
			_ = server.Stop()
			s.stopLoop()
			return s.failStart(err)
		}
		s.mu.Lock()
		s.panel = p
		s.mu.Unlock()
	}

	if !s.config.DisableDiscovery {
		if err := s.startAdvertising(); err != nil {
			s.mu.RLock()
			p := s.panel
			s.mu.RUnlock()
			if p != nil {
				_ = p.Stop()
			}
			_ = server.Stop()
			s.stopLoop()
			return s.failStart(err)
		}
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()
	s.logServiceState(StateStarting, StateRunning)

	return nil
}

// Stop shuts the service down: advertisement first, then the panel and
// the control listener, then the loop, which drives the launcher to
// the rest state before the hardware is parked.
func (s *LauncherService) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = StateStopping
	advertiser := s.advertiser
	pnl := s.panel
	server := s.server
	s.mu.Unlock()
	s.logServiceState(StateRunning, StateStopping)

	if advertiser != nil {
		advertiser.Stop()
	}
	if pnl != nil {
		if err := pnl.Stop(); err != nil {
			s.logError(err, "panel stop")
		}
	}
	if server != nil {
		if err := server.Stop(); err != nil {
			s.logError(err, "transport stop")
		}
	}

	s.stopLoop()

	// The loop's exit path releases the trigger and stops the motors;
	// repeat the writes directly so the hardware is parked even if the
	// loop never got to run.
	s.actuator.SetMotors(false)
	s.actuator.SetTriggerAngle(s.ctrl.Config().TriggerRestAngle)

	s.mu.Lock()
	s.panel = nil
	s.state = StateStopped
	s.mu.Unlock()
	s.logServiceState(StateStopping, StateStopped)

	return nil
}

// stopLoop cancels the service context and waits for the loop
// goroutine to exit.
func (s *LauncherService) stopLoop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// failStart reverts a failed Start to the idle state.
func (s *LauncherService) failStart(err error) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.logServiceState(StateStarting, StateIdle)
	return err
}

// startAdvertising registers the mDNS advertisement, creating the
// default advertiser unless one was injected.
func (s *LauncherService) startAdvertising() error {
	s.mu.Lock()
	if s.advertiser == nil {
		adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.advertiser = adv
	}
	advertiser := s.advertiser
	s.mu.Unlock()

	return advertiser.Advertise(s.ctx, s.launcherInfo(s.ctrl.Mode()))
}

// launcherInfo builds the advertisement payload for the given mode.
func (s *LauncherService) launcherInfo(mode launcher.FireMode) *discovery.LauncherInfo {
	var port uint16
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()
	if server != nil {
		if tcp, ok := server.Addr().(*net.TCPAddr); ok {
			port = uint16(tcp.Port)
		}
	}

	return &discovery.LauncherInfo{
		InstanceName:    s.config.Name,
		DeviceName:      s.config.Name,
		Model:           s.config.Model,
		SerialNumber:    s.config.SerialNumber,
		ProtocolVersion: version.String(),
		State:           stateHint(mode),
		Port:            port,
	}
}

// stateHint maps a fire mode to its mDNS TXT state hint.
func stateHint(mode launcher.FireMode) string {
	switch mode {
	case launcher.ModeSingleShot:
		return discovery.StateHintSingleShot
	case launcher.ModeContinuous:
		return discovery.StateHintContinuous
	default:
		return discovery.StateHintIdle
	}
}

// Commander returns the command surface backed by the firing loop.
// Valid only between Start and Stop.
func (s *LauncherService) Commander() launcher.Commander {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.commander == nil {
		return nil
	}
	return s.commander
}

// Addr returns the control listener address, or nil before Start.
func (s *LauncherService) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

// PanelAddr returns the panel listener address, or nil when the panel
// is disabled or the service is not running.
func (s *LauncherService) PanelAddr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.panel == nil {
		return nil
	}
	return s.panel.Addr()
}

// ConnectionCount returns the number of connected remotes.
func (s *LauncherService) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return 0
	}
	return s.server.ConnectionCount()
}

// handleModeChange runs on the loop goroutine after every fire-mode
// transition.
func (s *LauncherService) handleModeChange(oldMode, newMode launcher.FireMode) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerController,
		Category:     log.CategoryState,
		LocalRole:    log.RoleDevice,
		SerialNumber: s.config.SerialNumber,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityFireMode,
			OldState: oldMode.String(),
			NewState: newMode.String(),
		},
	})

	s.broadcastState()
	s.updateAdvertisement(newMode)
}

// handleShot runs on the loop goroutine after every issued shot.
func (s *LauncherService) handleShot(count uint64) {
	s.broadcastState()
}

// handleTimer runs on the loop goroutine for every deadline
// transition.
func (s *LauncherService) handleTimer(timer launcher.Timer, transition launcher.TimerTransition, deadline time.Duration) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerController,
		Category:     log.CategoryTimer,
		LocalRole:    log.RoleDevice,
		SerialNumber: s.config.SerialNumber,
		Timer: &log.TimerEvent{
			Kind:     timerKind(timer),
			Change:   timerChange(transition),
			Deadline: deadline,
		},
	})
}

// broadcastState pushes the current launcher state to every connected
// remote and panel socket.
func (s *LauncherService) broadcastState() {
	s.mu.RLock()
	ctrl := s.ctrl
	server := s.server
	pnl := s.panel
	s.mu.RUnlock()

	if ctrl == nil {
		return
	}
	state := ctrl.Snapshot()

	if server != nil {
		notif := &wire.Notification{State: *interaction.StateToWire(state)}
		data, err := wire.EncodeNotification(notif)
		if err != nil {
			s.logError(err, "encode notification")
		} else {
			server.Broadcast(data)
		}
	}

	if pnl != nil {
		pnl.BroadcastState(state)
	}
}

// updateAdvertisement refreshes the mDNS TXT state hint.
func (s *LauncherService) updateAdvertisement(mode launcher.FireMode) {
	s.mu.RLock()
	advertiser := s.advertiser
	ctx := s.ctx
	s.mu.RUnlock()

	if advertiser == nil {
		return
	}
	if err := advertiser.Update(ctx, s.launcherInfo(mode)); err != nil {
		s.logError(err, "advertisement update")
	}
}

// logServiceState records a lifecycle transition.
func (s *LauncherService) logServiceState(oldState, newState ServiceState) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		LocalRole:    log.RoleDevice,
		SerialNumber: s.config.SerialNumber,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityService,
			OldState: oldState.String(),
			NewState: newState.String(),
		},
	})
}

// logError records a service-layer error event.
func (s *LauncherService) logError(err error, operation string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerService,
		Category:     log.CategoryError,
		LocalRole:    log.RoleDevice,
		SerialNumber: s.config.SerialNumber,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: operation,
		},
	})
}

// timerKind maps a controller deadline to its log representation.
func timerKind(t launcher.Timer) log.TimerKind {
	switch t {
	case launcher.TimerTriggerPulse:
		return log.TimerTriggerPulse
	case launcher.TimerFireInterval:
		return log.TimerFireInterval
	default:
		return log.TimerMotorRun
	}
}

// timerChange maps a deadline transition to its log representation.
func timerChange(t launcher.TimerTransition) log.TimerChange {
	switch t {
	case launcher.TimerExpired:
		return log.TimerExpired
	case launcher.TimerDisarmed:
		return log.TimerDisarmed
	default:
		return log.TimerArmed
	}
}

// loggingActuator decorates an actuator so every hardware write is
// captured as a protocol event.
type loggingActuator struct {
	inner  launcher.Actuator
	logger log.Logger
	serial string
}

func (a *loggingActuator) SetMotors(on bool) {
	a.inner.SetMotors(on)
	a.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerController,
		Category:     log.CategoryActuation,
		LocalRole:    log.RoleDevice,
		SerialNumber: a.serial,
		Actuation: &log.ActuationEvent{
			Kind: log.ActuationMotors,
			On:   on,
		},
	})
}

func (a *loggingActuator) SetTriggerAngle(angle uint8) {
	a.inner.SetTriggerAngle(angle)
	a.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerController,
		Category:     log.CategoryActuation,
		LocalRole:    log.RoleDevice,
		SerialNumber: a.serial,
		Actuation: &log.ActuationEvent{
			Kind:  log.ActuationTrigger,
			Angle: angle,
		},
	})
}

var _ launcher.Actuator = (*loggingActuator)(nil)
