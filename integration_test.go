package volley_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/volley-protocol/volley-go/pkg/hal"
	"github.com/volley-protocol/volley-go/pkg/launcher"
	"github.com/volley-protocol/volley-go/pkg/service"
	"github.com/volley-protocol/volley-go/pkg/wire"
)

// fastTimings keeps the end-to-end tests quick while preserving the
// ordering constraints (pulse < interval, pulse < motor timeout).
var fastTimings = launcher.Config{
	MotorRunTimeout:      400 * time.Millisecond,
	TriggerPulseDuration: 40 * time.Millisecond,
	FireInterval:         100 * time.Millisecond,
}

// startLauncher brings up a full device service on loopback with the
// simulator HAL and registers its teardown.
func startLauncher(t *testing.T, ctx context.Context, panelAddr string) (*service.LauncherService, *hal.Simulator) {
	t.Helper()

	sim := hal.NewSimulator()
	svc, err := service.NewLauncherService(sim, service.Config{
		Name:             "E2E Launcher",
		SerialNumber:     "E2E-001",
		ListenAddress:    "127.0.0.1:0",
		PanelAddress:     panelAddr,
		Timings:          fastTimings,
		TickInterval:     2 * time.Millisecond,
		DisableDiscovery: true,
	})
	if err != nil {
		t.Fatalf("NewLauncherService: %v", err)
	}

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if svc.State() == service.StateRunning {
			_ = svc.Stop()
		}
	})

	return svc, sim
}

// connectRemote dials the launcher and registers its teardown.
func connectRemote(t *testing.T, ctx context.Context, svc *service.LauncherService) *service.RemoteService {
	t.Helper()

	remote, err := service.NewRemoteService(service.RemoteConfig{
		Address:          svc.Addr().String(),
		DisableReconnect: true,
	})
	if err != nil {
		t.Fatalf("NewRemoteService: %v", err)
	}
	if err := remote.Start(ctx); err != nil {
		t.Fatalf("remote Start: %v", err)
	}
	t.Cleanup(func() {
		if remote.State() == service.StateRunning {
			_ = remote.Stop()
		}
	})

	return remote
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestE2E_SingleShot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, sim := startLauncher(t, ctx, "")
	remote := connectRemote(t, ctx, svc)

	ack, err := remote.Fire(ctx)
	if err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if ack != wire.TextSingleFire {
		t.Errorf("ack = %q, want %q", ack, wire.TextSingleFire)
	}

	// Motors spin up and the trigger pulses immediately.
	waitFor(t, time.Second, sim.MotorsOn, "motors never started")

	// Fail-safe: motors stop on their own within the run timeout.
	waitFor(t, 2*fastTimings.MotorRunTimeout, func() bool { return !sim.MotorsOn() },
		"motors did not auto-stop after the run timeout")

	state, err := remote.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Mode != launcher.ModeIdle.String() {
		t.Errorf("mode = %q, want %q", state.Mode, launcher.ModeIdle)
	}
	if state.ShotCount != 1 {
		t.Errorf("shot count = %d, want 1", state.ShotCount)
	}

	// The trigger saw exactly one press.
	presses := 0
	for _, ev := range sim.Events() {
		if ev.Kind == hal.EventTrigger && ev.Angle == launcher.DefaultTriggerFireAngle {
			presses++
		}
	}
	if presses != 1 {
		t.Errorf("trigger presses = %d, want 1", presses)
	}
}

func TestE2E_ContinuousFire(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, sim := startLauncher(t, ctx, "")
	remote := connectRemote(t, ctx, svc)

	ack, err := remote.StartContinuous(ctx)
	if err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}
	if ack != wire.TextContinuousStarted {
		t.Errorf("ack = %q, want %q", ack, wire.TextContinuousStarted)
	}

	// Motors persist well past the single-shot run timeout.
	time.Sleep(2 * fastTimings.MotorRunTimeout)
	if !sim.MotorsOn() {
		t.Fatal("motors stopped in continuous mode")
	}

	// Several shots accumulated at the configured cadence.
	state, err := remote.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.ShotCount < 3 {
		t.Errorf("shot count = %d, want at least 3", state.ShotCount)
	}

	ack, err = remote.StopContinuous(ctx)
	if err != nil {
		t.Fatalf("StopContinuous: %v", err)
	}
	if ack != wire.TextContinuousStopped {
		t.Errorf("ack = %q, want %q", ack, wire.TextContinuousStopped)
	}

	waitFor(t, time.Second, func() bool { return !sim.MotorsOn() }, "motors still running after stop")

	before, err := remote.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	time.Sleep(3 * fastTimings.FireInterval)
	after, err := remote.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if after.ShotCount != before.ShotCount {
		t.Errorf("shots kept firing after stop: %d -> %d", before.ShotCount, after.ShotCount)
	}
}

func TestE2E_EmergencyStop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, sim := startLauncher(t, ctx, "")
	remote := connectRemote(t, ctx, svc)

	if _, err := remote.StartContinuous(ctx); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}
	waitFor(t, time.Second, sim.MotorsOn, "motors never started")

	ack, err := remote.Halt(ctx)
	if err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if ack != wire.TextStopped {
		t.Errorf("ack = %q, want %q", ack, wire.TextStopped)
	}

	waitFor(t, time.Second, func() bool {
		return !sim.MotorsOn() && sim.TriggerAngle() == launcher.DefaultTriggerRestAngle
	}, "halt did not park the hardware")

	// Idempotent: repeated halts stay accepted and stay idle.
	for i := 0; i < 3; i++ {
		if _, err := remote.Halt(ctx); err != nil {
			t.Fatalf("repeat Halt: %v", err)
		}
	}
	state, err := remote.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state.Mode != launcher.ModeIdle.String() || state.MotorsRunning || state.TriggerPressed {
		t.Errorf("state after repeated halts = %+v, want idle rest state", state)
	}
}

func TestE2E_StateNotifications(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, _ := startLauncher(t, ctx, "")
	remote := connectRemote(t, ctx, svc)

	var mu sync.Mutex
	var pushed []wire.LauncherState
	remote.OnStatus(func(state wire.LauncherState) {
		mu.Lock()
		pushed = append(pushed, state)
		mu.Unlock()
	})

	if _, err := remote.Fire(ctx); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	// At least the idle->single-shot and single-shot->idle transitions
	// arrive as pushes.
	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(pushed) >= 2
	}, "expected at least two pushed state notifications")

	mu.Lock()
	defer mu.Unlock()
	sawSingle := false
	for _, st := range pushed {
		if st.Mode == launcher.ModeSingleShot.String() {
			sawSingle = true
		}
	}
	if !sawSingle {
		t.Errorf("no pushed notification carried the single-shot mode: %+v", pushed)
	}
}

func TestE2E_Panel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, sim := startLauncher(t, ctx, "127.0.0.1:0")

	base := fmt.Sprintf("http://%s", svc.PanelAddr())
	client := &http.Client{Timeout: 5 * time.Second}

	post := func(path string) (int, string) {
		t.Helper()
		resp, err := client.Post(base+path, "", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, strings.TrimSpace(string(body))
	}

	// Fire through the panel surface.
	code, body := post("/api/fire")
	if code != http.StatusOK || body != wire.TextSingleFire {
		t.Errorf("fire: %d %q", code, body)
	}
	waitFor(t, time.Second, sim.MotorsOn, "panel fire never reached the hardware")

	// Missing and invalid mode are rejected without a state change.
	code, body = post("/api/continuous")
	if code != http.StatusBadRequest || body != wire.TextMissingMode {
		t.Errorf("missing mode: %d %q", code, body)
	}
	code, body = post("/api/continuous?mode=sideways")
	if code != http.StatusBadRequest || body != wire.TextInvalidMode {
		t.Errorf("invalid mode: %d %q", code, body)
	}

	code, body = post("/api/halt")
	if code != http.StatusOK || body != wire.TextStopped {
		t.Errorf("halt: %d %q", code, body)
	}
	waitFor(t, time.Second, func() bool { return !sim.MotorsOn() }, "panel halt never reached the hardware")

	// Status JSON reflects the rest state.
	resp, err := client.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()
	statusBody, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(statusBody), launcher.ModeIdle.String()) {
		t.Errorf("status body = %s, want idle mode", statusBody)
	}
}

func TestE2E_ServiceStopParksHardware(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, sim := startLauncher(t, ctx, "")
	remote := connectRemote(t, ctx, svc)

	if _, err := remote.StartContinuous(ctx); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}
	waitFor(t, time.Second, sim.MotorsOn, "motors never started")

	_ = remote.Stop()
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if sim.MotorsOn() {
		t.Error("motors still energized after service stop")
	}
	if sim.TriggerAngle() != launcher.DefaultTriggerRestAngle {
		t.Errorf("trigger angle = %d, want rest %d", sim.TriggerAngle(), launcher.DefaultTriggerRestAngle)
	}
}
