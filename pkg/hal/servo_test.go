package hal

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
)

func TestServoDuty(t *testing.T) {
	tests := []struct {
		angle uint8
		want  gpio.Duty
	}{
		// 0 degrees: 1ms of a 20ms frame.
		{0, gpio.Duty(int64(gpio.DutyMax) / 20)},
		// 90 degrees: 1.5ms of a 20ms frame.
		{90, gpio.Duty(int64(gpio.DutyMax) * 3 / 40)},
		// 180 degrees: 2ms of a 20ms frame.
		{180, gpio.Duty(int64(gpio.DutyMax) / 10)},
		// Out-of-range angles clamp to 180.
		{200, gpio.Duty(int64(gpio.DutyMax) / 10)},
	}

	for _, tt := range tests {
		if got := servoDuty(tt.angle); got != tt.want {
			t.Errorf("servoDuty(%d) = %d, want %d", tt.angle, got, tt.want)
		}
	}
}

func TestServoDutyMonotonic(t *testing.T) {
	prev := servoDuty(0)
	for angle := uint8(1); angle <= 180; angle++ {
		d := servoDuty(angle)
		if d < prev {
			t.Fatalf("servoDuty(%d) = %d < servoDuty(%d) = %d", angle, d, angle-1, prev)
		}
		prev = d
	}
}

func TestNewGPIORejectsUnknownPin(t *testing.T) {
	_, err := NewGPIO(GPIOConfig{MotorAPin: "no-such-pin-0"})
	if err == nil {
		t.Fatal("NewGPIO() with bogus pin name succeeded, want error")
	}
}
