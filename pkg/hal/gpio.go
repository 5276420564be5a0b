package hal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/volley-protocol/volley-go/pkg/launcher"
)

// Default pin assignments for a Raspberry Pi header. GPIO18 carries
// hardware PWM, which gives the servo a stable 50Hz frame.
const (
	DefaultMotorAPin = "GPIO17"
	DefaultMotorBPin = "GPIO27"
	DefaultServoPin  = "GPIO18"
)

// GPIOConfig names the pins driving the launcher.
type GPIOConfig struct {
	// MotorAPin and MotorBPin switch the two flywheel motor drivers.
	// Both are driven together, forward only.
	MotorAPin string
	MotorBPin string

	// ServoPin drives the trigger servo.
	ServoPin string

	// OnError receives pin faults. Optional; faults never propagate
	// into the control path.
	OnError func(err error)
}

func (c *GPIOConfig) applyDefaults() {
	if c.MotorAPin == "" {
		c.MotorAPin = DefaultMotorAPin
	}
	if c.MotorBPin == "" {
		c.MotorBPin = DefaultMotorBPin
	}
	if c.ServoPin == "" {
		c.ServoPin = DefaultServoPin
	}
}

var (
	hostInitOnce sync.Once
	hostInitErr  error
)

// GPIO drives the launcher hardware through periph.io. Actuation
// methods are called from the control loop goroutine only.
type GPIO struct {
	motorA  gpio.PinIO
	motorB  gpio.PinIO
	servo   gpio.PinIO
	onError func(error)
}

// NewGPIO loads the host drivers (once per process) and resolves the
// configured pins.
func NewGPIO(cfg GPIOConfig) (*GPIO, error) {
	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return nil, fmt.Errorf("initializing host drivers: %w", hostInitErr)
	}

	cfg.applyDefaults()

	motorA := gpioreg.ByName(cfg.MotorAPin)
	if motorA == nil {
		return nil, fmt.Errorf("unknown motor pin %q", cfg.MotorAPin)
	}
	motorB := gpioreg.ByName(cfg.MotorBPin)
	if motorB == nil {
		return nil, fmt.Errorf("unknown motor pin %q", cfg.MotorBPin)
	}
	servo := gpioreg.ByName(cfg.ServoPin)
	if servo == nil {
		return nil, fmt.Errorf("unknown servo pin %q", cfg.ServoPin)
	}

	return &GPIO{
		motorA:  motorA,
		motorB:  motorB,
		servo:   servo,
		onError: cfg.OnError,
	}, nil
}

// SetMotors drives both flywheel pins high (on) or low (off).
func (g *GPIO) SetMotors(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := g.motorA.Out(level); err != nil {
		g.fault(fmt.Errorf("motor pin %s: %w", g.motorA.Name(), err))
	}
	if err := g.motorB.Out(level); err != nil {
		g.fault(fmt.Errorf("motor pin %s: %w", g.motorB.Name(), err))
	}
}

// SetTriggerAngle emits the 50Hz servo duty cycle for the angle.
func (g *GPIO) SetTriggerAngle(angle uint8) {
	if err := g.servo.PWM(servoDuty(angle), servoFrequency); err != nil {
		g.fault(fmt.Errorf("servo pin %s: %w", g.servo.Name(), err))
	}
}

// Close de-energizes every output. Call after the control loop has
// stopped.
func (g *GPIO) Close() error {
	var firstErr error
	for _, pin := range []gpio.PinIO{g.motorA, g.motorB, g.servo} {
		if err := pin.Out(gpio.Low); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("parking pin %s: %w", pin.Name(), err)
		}
	}
	return firstErr
}

func (g *GPIO) fault(err error) {
	if g.onError != nil {
		g.onError(err)
	}
}

var _ launcher.Actuator = (*GPIO)(nil)
