package hal

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Servo timing. Standard hobby servos expect a 50Hz signal whose
// 1-2ms high time maps linearly onto 0-180 degrees.
const (
	servoFrequency = 50 * physic.Hertz
	servoPeriod    = 20 * time.Millisecond
	servoMinPulse  = 1 * time.Millisecond
	servoMaxPulse  = 2 * time.Millisecond
)

// servoDuty converts an angle in degrees to the PWM duty cycle for a
// 50Hz frame. Angles above 180 are clamped.
func servoDuty(angle uint8) gpio.Duty {
	if angle > 180 {
		angle = 180
	}
	pulse := servoMinPulse + time.Duration(angle)*(servoMaxPulse-servoMinPulse)/180
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(servoPeriod))
}
