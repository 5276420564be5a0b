package transport_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/volley-protocol/volley-go/pkg/transport"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// startTestServer starts a server on a random loopback port and wires
// Stop into the test cleanup.
func startTestServer(t *testing.T, config transport.ServerConfig) *transport.Server {
	t.Helper()

	config.Address = "127.0.0.1:0"
	server := transport.NewServer(config)

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	return server
}

// dialTestServer opens a raw framed connection to the server.
func dialTestServer(t *testing.T, server *transport.Server) (net.Conn, *transport.Framer) {
	t.Helper()

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Failed to dial server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, transport.NewFramer(conn)
}

func TestServerEchoesHandlerReply(t *testing.T) {
	request := []byte("status request")
	reply := []byte("status reply")

	server := startTestServer(t, transport.ServerConfig{
		OnMessage: func(connID string, data []byte) ([]byte, error) {
			if !bytes.Equal(data, request) {
				t.Errorf("OnMessage data = %q, want %q", data, request)
			}
			return reply, nil
		},
	})

	conn, framer := dialTestServer(t, server)

	if err := framer.WriteFrame(request); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read reply: %v", err)
	}
	if !bytes.Equal(got, reply) {
		t.Errorf("reply = %q, want %q", got, reply)
	}
}

func TestServerNoReplyForNilHandlerResult(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{
		OnMessage: func(connID string, data []byte) ([]byte, error) {
			return nil, nil
		},
	})

	conn, framer := dialTestServer(t, server)

	if err := framer.WriteFrame([]byte("one-way")); err != nil {
		t.Fatalf("Failed to send frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := framer.ReadFrame(); err == nil {
		t.Error("expected no reply for a nil handler result")
	}
}

func TestServerConnectionCallbacks(t *testing.T) {
	type connection struct {
		id   string
		addr net.Addr
	}
	connectCh := make(chan connection, 1)
	disconnectCh := make(chan string, 1)

	server := startTestServer(t, transport.ServerConfig{
		OnConnect: func(connID string, remoteAddr net.Addr) {
			connectCh <- connection{connID, remoteAddr}
		},
		OnDisconnect: func(connID, reason string) {
			disconnectCh <- reason
		},
	})

	conn, _ := dialTestServer(t, server)

	var connected connection
	select {
	case connected = <-connectCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for OnConnect")
	}

	if connected.id == "" {
		t.Error("OnConnect connID is empty")
	}
	if connected.addr == nil {
		t.Error("OnConnect remoteAddr is nil")
	}
	if got := server.ConnectionCount(); got != 1 {
		t.Errorf("ConnectionCount = %d, want 1", got)
	}
	ids := server.ConnectionIDs()
	if len(ids) != 1 || ids[0] != connected.id {
		t.Errorf("ConnectionIDs = %v, want [%s]", ids, connected.id)
	}

	conn.Close()

	select {
	case reason := <-disconnectCh:
		if reason != "closed by peer" {
			t.Errorf("disconnect reason = %q, want %q", reason, "closed by peer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for OnDisconnect")
	}

	if got := server.ConnectionCount(); got != 0 {
		t.Errorf("ConnectionCount after close = %d, want 0", got)
	}
}

func TestServerAnswersPing(t *testing.T) {
	messageSeen := make(chan struct{}, 1)

	server := startTestServer(t, transport.ServerConfig{
		OnMessage: func(connID string, data []byte) ([]byte, error) {
			messageSeen <- struct{}{}
			return nil, nil
		},
	})

	conn, framer := dialTestServer(t, server)

	ping, err := wire.EncodePing(&wire.Ping{Timestamp: 1724500000123})
	if err != nil {
		t.Fatalf("EncodePing failed: %v", err)
	}
	if err := framer.WriteFrame(ping); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	response, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}

	pong, err := wire.DecodePong(response)
	if err != nil {
		t.Fatalf("Failed to decode pong: %v", err)
	}
	if pong.Timestamp != 1724500000123 {
		t.Errorf("pong timestamp = %d, want 1724500000123", pong.Timestamp)
	}

	// The ping must not surface as a data message.
	select {
	case <-messageSeen:
		t.Error("ping reached OnMessage")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServerCloseHandshake(t *testing.T) {
	disconnectCh := make(chan string, 1)

	server := startTestServer(t, transport.ServerConfig{
		OnDisconnect: func(connID, reason string) {
			disconnectCh <- reason
		},
	})

	conn, framer := dialTestServer(t, server)

	closeFrame, err := wire.EncodeClose(&wire.Close{Reason: "remote done"})
	if err != nil {
		t.Fatalf("EncodeClose failed: %v", err)
	}
	if err := framer.WriteFrame(closeFrame); err != nil {
		t.Fatalf("Failed to send close: %v", err)
	}

	// The server acknowledges with its own close frame.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	ack, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read close ack: %v", err)
	}
	msgType, err := wire.PeekMessageType(ack)
	if err != nil || msgType != wire.MessageTypeClose {
		t.Errorf("ack type = %v (err %v), want MessageTypeClose", msgType, err)
	}

	select {
	case reason := <-disconnectCh:
		if !strings.Contains(reason, "closed by peer") || !strings.Contains(reason, "remote done") {
			t.Errorf("disconnect reason = %q, want peer close with carried reason", reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for OnDisconnect")
	}
}

func TestServerSendToConnection(t *testing.T) {
	connIDCh := make(chan string, 1)

	server := startTestServer(t, transport.ServerConfig{
		OnConnect: func(connID string, remoteAddr net.Addr) {
			connIDCh <- connID
		},
	})

	conn, framer := dialTestServer(t, server)

	var connID string
	select {
	case connID = <-connIDCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for OnConnect")
	}

	notification := []byte("unsolicited frame")
	if err := server.Send(connID, notification); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := framer.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read pushed frame: %v", err)
	}
	if !bytes.Equal(got, notification) {
		t.Errorf("pushed frame = %q, want %q", got, notification)
	}
}

func TestServerSendUnknownConnection(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{})

	err := server.Send("no-such-conn", []byte("data"))
	if !errors.Is(err, transport.ErrUnknownConnection) {
		t.Errorf("expected ErrUnknownConnection, got %v", err)
	}
}

func TestServerBroadcast(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{})

	conn1, framer1 := dialTestServer(t, server)
	conn2, framer2 := dialTestServer(t, server)

	// Wait until both read pumps are registered.
	deadline := time.Now().Add(2 * time.Second)
	for server.ConnectionCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("connections never registered, count = %d", server.ConnectionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	payload := []byte("state update")
	server.Broadcast(payload)

	for i, pair := range []struct {
		conn   net.Conn
		framer *transport.Framer
	}{{conn1, framer1}, {conn2, framer2}} {
		pair.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		got, err := pair.framer.ReadFrame()
		if err != nil {
			t.Fatalf("client %d: failed to read broadcast: %v", i, err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("client %d: broadcast = %q, want %q", i, got, payload)
		}
	}
}

func TestServerConcurrentConnections(t *testing.T) {
	var connCount int
	var mu sync.Mutex

	server := startTestServer(t, transport.ServerConfig{
		OnConnect: func(connID string, remoteAddr net.Addr) {
			mu.Lock()
			connCount++
			mu.Unlock()
		},
	})

	numClients := 5
	var wg sync.WaitGroup
	conns := make([]net.Conn, numClients)

	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", server.Addr().String())
			if err != nil {
				t.Errorf("Client %d: connection failed: %v", idx, err)
				return
			}
			conns[idx] = conn
		}(i)
	}

	wg.Wait()

	// Give the server time to register the connections
	deadline := time.Now().Add(2 * time.Second)
	for server.ConnectionCount() < numClients && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	if connCount != numClients {
		t.Errorf("Expected %d OnConnect calls, got %d", numClients, connCount)
	}
	mu.Unlock()

	if got := server.ConnectionCount(); got != numClients {
		t.Errorf("Expected %d active connections, got %d", numClients, got)
	}

	for _, conn := range conns {
		if conn != nil {
			conn.Close()
		}
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	server := startTestServer(t, transport.ServerConfig{})

	conn, framer := dialTestServer(t, server)

	// Wait for registration so Stop has something to close.
	deadline := time.Now().Add(2 * time.Second)
	for server.ConnectionCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := framer.ReadFrame(); err == nil {
		t.Error("expected read to fail after server stop")
	}

	// Stop again is a no-op.
	if err := server.Stop(); err != nil {
		t.Errorf("second Stop returned %v", err)
	}
}
