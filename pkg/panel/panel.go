package panel

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/log"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// Panel errors.
var (
	ErrNilCommander = errors.New("commander must not be nil")
)

// shutdownTimeout bounds how long Stop waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

//go:embed static/index.html
var indexHTML []byte

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The panel is served on the launcher's own LAN address; the page
	// and the socket share an origin only when reached by that address.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Config configures a panel server.
type Config struct {
	// Address to listen on (e.g., ":8080").
	Address string

	// Commander executes launcher commands. Required.
	Commander launcher.Commander

	// Logger receives panel-layer events. Defaults to NoopLogger.
	Logger log.Logger

	// SerialNumber is stamped on log events.
	SerialNumber string
}

// Server serves the control page, the command API and the status
// stream.
type Server struct {
	config    Config
	commander launcher.Commander
	logger    log.Logger
	router    chi.Router
	httpSrv   *http.Server
	listener  net.Listener

	// Connected status stream clients
	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewServer creates a panel server. Zero config fields get defaults.
func NewServer(config Config) (*Server, error) {
	if config.Commander == nil {
		return nil, ErrNilCommander
	}
	if config.Address == "" {
		config.Address = ":8080"
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}

	s := &Server{
		config:    config,
		commander: config.Commander,
		logger:    config.Logger,
		clients:   make(map[*wsClient]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Post("/fire", s.handleFire)
		r.Post("/continuous", s.handleContinuous)
		r.Post("/halt", s.handleHalt)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/ws", s.handleWS)
	s.router = r

	s.httpSrv = &http.Server{Handler: r}

	return s, nil
}

// Handler returns the panel's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("panel already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logError(err, "serving panel")
		}
	}()

	return nil
}

// Stop closes the status stream and shuts the HTTP server down.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	// WebSocket connections are hijacked, so Shutdown would not wait
	// for them; close them explicitly to end their handlers.
	s.clientsMu.Lock()
	for client := range s.clients {
		client.close()
	}
	s.clients = make(map[*wsClient]struct{})
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpSrv.Shutdown(ctx)

	s.wg.Wait()
	return err
}

// Addr returns the panel's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ClientCount returns the number of connected status stream clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastState pushes a state snapshot to every connected status
// stream client. Clients whose write fails are dropped; their read
// loops clean up.
func (s *Server) BroadcastState(state launcher.State) {
	payload := newStatusJSON(state)

	s.clientsMu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(payload); err != nil {
			s.removeClient(client)
		}
	}
}

// statusJSON is the snapshot shape served to the panel.
type statusJSON struct {
	Mode           string `json:"mode"`
	MotorsRunning  bool   `json:"motorsRunning"`
	TriggerPressed bool   `json:"triggerPressed"`
	ShotCount      uint64 `json:"shotCount"`
}

func newStatusJSON(state launcher.State) statusJSON {
	return statusJSON{
		Mode:           state.Mode.String(),
		MotorsRunning:  state.MotorsRunning,
		TriggerPressed: state.TriggerPressed,
		ShotCount:      state.ShotCount,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	s.logCommand(r, wire.ActionFire, "")
	if err := s.commander.Fire(r.Context()); err != nil {
		s.commandUnavailable(w, err)
		return
	}
	s.ack(w, r, wire.TextSingleFire)
}

func (s *Server) handleContinuous(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	s.logCommand(r, wire.ActionContinuous, mode)

	switch mode {
	case wire.ModeStart:
		if err := s.commander.StartContinuous(r.Context()); err != nil {
			s.commandUnavailable(w, err)
			return
		}
		s.ack(w, r, wire.TextContinuousStarted)

	case wire.ModeStop:
		if err := s.commander.StopContinuous(r.Context()); err != nil {
			s.commandUnavailable(w, err)
			return
		}
		s.ack(w, r, wire.TextContinuousStopped)

	case "":
		s.reject(w, r, wire.StatusMissingParameter, wire.TextMissingMode)

	default:
		s.reject(w, r, wire.StatusInvalidParameter, wire.TextInvalidMode)
	}
}

func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	s.logCommand(r, wire.ActionHalt, "")
	if err := s.commander.Halt(r.Context()); err != nil {
		s.commandUnavailable(w, err)
		return
	}
	s.ack(w, r, wire.TextStopped)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatusJSON(s.commander.Status()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logError(err, "upgrading status stream")
		return
	}

	client := &wsClient{conn: conn}
	s.addClient(client)
	defer s.removeClient(client)

	// Prime the stream so the page renders without waiting for the
	// next state change.
	if err := client.writeJSON(newStatusJSON(s.commander.Status())); err != nil {
		return
	}

	// The panel never sends data; reading just services control frames
	// and notices the peer going away.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// ack answers an accepted command with its acknowledgement text.
func (s *Server) ack(w http.ResponseWriter, r *http.Request, text string) {
	s.logReply(r, wire.StatusSuccess, text)
	writeText(w, http.StatusOK, text)
}

// reject answers a request that failed validation. The launcher is
// never touched on this path.
func (s *Server) reject(w http.ResponseWriter, r *http.Request, status wire.Status, text string) {
	s.logReply(r, status, text)
	writeText(w, http.StatusBadRequest, text)
}

// commandUnavailable answers a valid command the launcher could not
// take (the control loop is shutting down).
func (s *Server) commandUnavailable(w http.ResponseWriter, err error) {
	s.logError(err, "submitting command")
	writeText(w, http.StatusServiceUnavailable, "launcher unavailable")
}

func (s *Server) addClient(client *wsClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client] = struct{}{}
}

func (s *Server) removeClient(client *wsClient) {
	s.clientsMu.Lock()
	_, ok := s.clients[client]
	if ok {
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	if ok {
		client.close()
	}
}

// wsClient serializes writes to one status stream connection.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}

// writeText writes a plain-text response with the exact body.
func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) logCommand(r *http.Request, action wire.Action, mode string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionIn,
		Layer:        log.LayerPanel,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleDevice,
		RemoteAddr:   r.RemoteAddr,
		SerialNumber: s.config.SerialNumber,
		Message: &log.MessageEvent{
			Type:   wire.MessageTypeRequest,
			Action: &action,
			Mode:   mode,
		},
	})
}

func (s *Server) logReply(r *http.Request, status wire.Status, text string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionOut,
		Layer:        log.LayerPanel,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleDevice,
		RemoteAddr:   r.RemoteAddr,
		SerialNumber: s.config.SerialNumber,
		Message: &log.MessageEvent{
			Type:   wire.MessageTypeResponse,
			Status: &status,
			Text:   text,
		},
	})
}

func (s *Server) logError(err error, operation string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		Direction:    log.DirectionLocal,
		Layer:        log.LayerPanel,
		Category:     log.CategoryError,
		LocalRole:    log.RoleDevice,
		SerialNumber: s.config.SerialNumber,
		Error: &log.ErrorEventData{
			Layer:   log.LayerPanel,
			Message: err.Error(),
			Context: operation,
		},
	})
}
