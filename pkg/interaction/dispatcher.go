package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// Dispatcher errors.
var (
	ErrNilCommander = errors.New("commander must not be nil")
)

// DefaultCommandTimeout bounds how long a decoded command may wait on
// the control loop before the request is abandoned.
const DefaultCommandTimeout = 5 * time.Second

// Dispatcher turns incoming request frames into launcher commands and
// builds the response for each. Validation failures are answered with
// an error status; the commander only ever sees valid commands.
type Dispatcher struct {
	commander launcher.Commander
	logger    log.Logger
	serial    string
	timeout   time.Duration
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Commander executes launcher commands. Required.
	Commander launcher.Commander

	// Logger receives wire-layer message events. Defaults to NoopLogger.
	Logger log.Logger

	// SerialNumber is stamped on log events.
	SerialNumber string

	// CommandTimeout bounds command execution. Zero means
	// DefaultCommandTimeout.
	CommandTimeout time.Duration
}

// NewDispatcher creates a dispatcher for the given commander.
func NewDispatcher(config DispatcherConfig) (*Dispatcher, error) {
	if config.Commander == nil {
		return nil, ErrNilCommander
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	timeout := config.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Dispatcher{
		commander: config.Commander,
		logger:    logger,
		serial:    config.SerialNumber,
		timeout:   timeout,
	}, nil
}

// HandleMessage decodes a framed request, executes it and returns the
// encoded response. The signature matches the transport server's
// message handler. A non-nil error means the connection should carry
// no reply; the remote's request times out.
func (d *Dispatcher) HandleMessage(connID string, data []byte) ([]byte, error) {
	start := time.Now()

	req, err := wire.DecodeRequest(data)
	if err != nil {
		d.logError(connID, err, "decoding request")
		resp := errorResponse(0, wire.StatusMalformedRequest, "malformed request")
		d.logResponse(connID, resp, time.Since(start))
		return wire.EncodeResponse(resp)
	}

	d.logRequest(connID, req)

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	resp, err := d.HandleRequest(ctx, req)
	if err != nil {
		d.logError(connID, err, req.Action.String())
		return nil, err
	}

	d.logResponse(connID, resp, time.Since(start))
	return wire.EncodeResponse(resp)
}

// HandleRequest executes a decoded request and builds its response. A
// non-nil error means the launcher could not take the command at all
// (the control loop is gone or ctx ran out), not that the request was
// rejected; rejections are responses with an error status.
func (d *Dispatcher) HandleRequest(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	if req.MessageID == wire.NotificationMessageID {
		return errorResponse(req.MessageID, wire.StatusMalformedRequest,
			"messageId 0 is reserved for notifications"), nil
	}

	switch req.Action {
	case wire.ActionFire:
		if err := d.commander.Fire(ctx); err != nil {
			return nil, fmt.Errorf("fire command failed: %w", err)
		}
		return successResponse(req.MessageID, wire.TextSingleFire), nil

	case wire.ActionContinuous:
		return d.handleContinuous(ctx, req)

	case wire.ActionHalt:
		if err := d.commander.Halt(ctx); err != nil {
			return nil, fmt.Errorf("halt command failed: %w", err)
		}
		return successResponse(req.MessageID, wire.TextStopped), nil

	case wire.ActionStatus:
		state := d.commander.Status()
		return &wire.Response{
			MessageID: req.MessageID,
			Status:    wire.StatusSuccess,
			State:     StateToWire(state),
		}, nil

	default:
		return errorResponse(req.MessageID, wire.StatusInvalidAction, "unknown action"), nil
	}
}

// handleContinuous validates the mode argument and starts or stops
// continuous fire.
func (d *Dispatcher) handleContinuous(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	switch req.Mode {
	case wire.ModeStart:
		if err := d.commander.StartContinuous(ctx); err != nil {
			return nil, fmt.Errorf("continuous start failed: %w", err)
		}
		return successResponse(req.MessageID, wire.TextContinuousStarted), nil

	case wire.ModeStop:
		if err := d.commander.StopContinuous(ctx); err != nil {
			return nil, fmt.Errorf("continuous stop failed: %w", err)
		}
		return successResponse(req.MessageID, wire.TextContinuousStopped), nil

	case "":
		return errorResponse(req.MessageID, wire.StatusMissingParameter, wire.TextMissingMode), nil

	default:
		return errorResponse(req.MessageID, wire.StatusInvalidParameter, wire.TextInvalidMode), nil
	}
}

// StateToWire converts a controller snapshot to its wire representation.
func StateToWire(s launcher.State) *wire.LauncherState {
	return &wire.LauncherState{
		Mode:           s.Mode.String(),
		MotorsRunning:  s.MotorsRunning,
		TriggerPressed: s.TriggerPressed,
		ShotCount:      s.ShotCount,
	}
}

// successResponse creates a success response with an acknowledgement text.
func successResponse(msgID uint32, text string) *wire.Response {
	return &wire.Response{
		MessageID: msgID,
		Status:    wire.StatusSuccess,
		Text:      text,
	}
}

// errorResponse creates an error response.
func errorResponse(msgID uint32, status wire.Status, text string) *wire.Response {
	return &wire.Response{
		MessageID: msgID,
		Status:    status,
		Text:      text,
	}
}

func (d *Dispatcher) logRequest(connID string, req *wire.Request) {
	action := req.Action
	d.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleDevice,
		SerialNumber: d.serial,
		Message: &log.MessageEvent{
			Type:      wire.MessageTypeRequest,
			MessageID: req.MessageID,
			Action:    &action,
			Mode:      req.Mode,
		},
	})
}

func (d *Dispatcher) logResponse(connID string, resp *wire.Response, took time.Duration) {
	status := resp.Status
	d.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleDevice,
		SerialNumber: d.serial,
		Message: &log.MessageEvent{
			Type:           wire.MessageTypeResponse,
			MessageID:      resp.MessageID,
			Status:         &status,
			Text:           resp.Text,
			State:          resp.State,
			ProcessingTime: &took,
		},
	})
}

func (d *Dispatcher) logError(connID string, err error, operation string) {
	d.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    log.RoleDevice,
		SerialNumber: d.serial,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: operation,
		},
	})
}
