// Package brake drives a linear brake actuator from position feedback.
package brake

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/brake.go/pkg/msgs"
	"github.com/robotalks/brake.go/pkg/ticker"
)

// State is the actuator's operating state.
type State uint8

// Actuator states.
const (
	Released State = iota
	Releasing
	Pushed
	Pushing
	Stopped
)

func (s State) String() string {
	switch s {
	case Released:
		return "released"
	case Releasing:
		return "releasing"
	case Pushed:
		return "pushed"
	case Pushing:
		return "pushing"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Position thresholds on the 12-bit sensor range.
const (
	PositionReleased  uint16 = 200
	PositionPushed    uint16 = 3800
	PositionTolerance uint16 = 100
)

const (
	motorDuty uint8 = 80

	minValidPosition uint16 = 50
	maxValidPosition uint16 = 4000
	maxSampleErrors  uint8  = 10

	opTimeout          ticker.Ticks = 5000
	defaultPushTime    ticker.Ticks = 2000
	defaultReleaseTime ticker.Ticks = 2000
)

// Motor drives the actuator. Duty is percent of full drive, 0-100.
type Motor interface {
	Drive(push bool, duty uint8)
	Stop()
}

// Sensor returns one position sample per call. Implementations may block
// briefly (bounded) while sampling.
type Sensor interface {
	Position() uint16
}

// Actuator is the position-feedback state machine. All methods, including
// EmergencyStop, must be called from the same execution context as Tick;
// nothing here is interrupt-safe.
type Actuator struct {
	motor  Motor
	sensor Sensor
	clock  ticker.Clock

	state    State
	position uint16
	target   uint16
	opStart  ticker.Ticks
	estimate ticker.Ticks
	errCount uint8
}

// New creates an actuator, reads the initial position and derives the
// starting state from it. The motor starts stopped.
func New(motor Motor, sensor Sensor, clock ticker.Clock) *Actuator {
	a := &Actuator{
		motor:    motor,
		sensor:   sensor,
		clock:    clock,
		estimate: defaultPushTime,
	}
	a.motor.Stop()
	a.position = a.sensor.Position()
	a.deriveState()
	return a
}

// deriveState maps the current position to a settled state. A position on
// neither threshold counts as released.
func (a *Actuator) deriveState() {
	switch {
	case a.position <= PositionReleased+PositionTolerance:
		a.state, a.target = Released, PositionReleased
	case a.position >= PositionPushed-PositionTolerance:
		a.state, a.target = Pushed, PositionPushed
	default:
		a.state, a.target = Released, PositionReleased
	}
}

// UpdatePosition samples the sensor and validates the reading. A valid
// sample is stored and resets the invalid counter; reaching the invalid
// threshold forces Stopped and halts the motor, pre-empting any operation
// in progress.
func (a *Actuator) UpdatePosition() {
	pos := a.sensor.Position()
	if pos >= minValidPosition && pos <= maxValidPosition {
		a.position = pos
		a.errCount = 0
		return
	}
	if a.errCount < maxSampleErrors {
		a.errCount++
	}
	if a.errCount >= maxSampleErrors && a.state != Stopped {
		glog.Errorf("position sensor fault: %d consecutive invalid samples, stopping", a.errCount)
		a.state = Stopped
		a.motor.Stop()
	}
}

// ProcessCommand begins a push or release operation. Commands for an
// operation already in progress or complete are ignored, so duplicates do
// not restart the timing. While stopped on a sensor fault every command is
// rejected until ClearError succeeds; a Stopped state entered through an
// operation timeout accepts a fresh command. The asymmetry matches the
// peer-visible behavior and is kept deliberately.
func (a *Actuator) ProcessCommand(dir msgs.Direction) {
	if a.state == Stopped && a.errCount >= maxSampleErrors {
		return
	}
	switch dir {
	case msgs.Push:
		if a.state == Pushing || a.state == Pushed {
			return
		}
		a.begin(Pushing, PositionPushed, defaultPushTime)
	case msgs.Release:
		if a.state == Releasing || a.state == Released {
			return
		}
		a.begin(Releasing, PositionReleased, defaultReleaseTime)
	}
}

func (a *Actuator) begin(s State, target uint16, estimate ticker.Ticks) {
	glog.V(1).Infof("begin %v from position %d", s, a.position)
	a.state = s
	a.target = target
	a.opStart = a.clock.Now()
	a.estimate = estimate
}

// Tick advances the state machine. Mid-operation it checks the absolute
// timeout, refreshes the completion estimate, and either finishes when the
// position crosses the target's tolerance band or re-asserts the motor
// command. Settled states keep the motor at zero duty.
func (a *Actuator) Tick(now ticker.Ticks) {
	if (a.state == Pushing || a.state == Releasing) &&
		ticker.Since(now, a.opStart) > opTimeout {
		glog.Warningf("%v timed out after %dms, stopping", a.state, ticker.Since(now, a.opStart))
		a.state = Stopped
		a.motor.Stop()
		return
	}

	switch a.state {
	case Pushing:
		a.updateEstimate(now)
		if a.position >= PositionPushed-PositionTolerance {
			a.state = Pushed
			a.motor.Stop()
		} else {
			a.motor.Drive(true, motorDuty)
		}
	case Releasing:
		a.updateEstimate(now)
		if a.position <= PositionReleased+PositionTolerance {
			a.state = Released
			a.motor.Stop()
		} else {
			a.motor.Drive(false, motorDuty)
		}
	default:
		a.motor.Stop()
		a.estimate = 0
	}
}

// updateEstimate extrapolates the remaining operation time linearly from
// the distance already covered. Until measurable progress exists the
// direction's static default stands in, which also guards the division.
func (a *Actuator) updateEstimate(now ticker.Ticks) {
	var start uint16
	var fallback ticker.Ticks
	switch a.state {
	case Pushing:
		start, fallback = PositionReleased, defaultPushTime
	case Releasing:
		start, fallback = PositionPushed, defaultReleaseTime
	default:
		a.estimate = 0
		return
	}

	elapsed := ticker.Since(now, a.opStart)
	if elapsed == 0 {
		return
	}
	total := distance(start, a.target)
	remaining := distance(a.position, a.target)
	traveled := int32(total) - int32(remaining)
	if traveled > 0 {
		perUnit := uint32(elapsed) / uint32(traveled)
		a.estimate = ticker.Ticks(perUnit * remaining)
	} else {
		a.estimate = fallback
	}
}

func distance(from, to uint16) uint32 {
	if from > to {
		return uint32(from - to)
	}
	return uint32(to - from)
}

// TimeToEnd returns the estimated remaining operation time in milliseconds,
// zero when no operation is in progress.
func (a *Actuator) TimeToEnd() uint16 {
	if a.state != Pushing && a.state != Releasing {
		return 0
	}
	elapsed := ticker.Since(a.clock.Now(), a.opStart)
	if elapsed >= a.estimate {
		return 0
	}
	remaining := a.estimate - elapsed
	if remaining > 0xFFFF {
		return 0xFFFF
	}
	return uint16(remaining)
}

// EmergencyStop halts the motor and enters Stopped immediately. Like every
// other method it must run in the polling loop's context.
func (a *Actuator) EmergencyStop() {
	glog.Warning("emergency stop")
	a.motor.Stop()
	a.state = Stopped
}

// ClearError resets the invalid-sample counter, takes a fresh sample and,
// only if that sample is valid, re-derives the settled state from it. This
// is the only way out of a Stopped state caused by a sensor fault.
func (a *Actuator) ClearError() bool {
	a.errCount = 0
	a.UpdatePosition()
	if a.errCount != 0 {
		return false
	}
	a.deriveState()
	return true
}

// HasError reports whether the invalid-sample counter is at threshold.
func (a *Actuator) HasError() bool {
	return a.errCount >= maxSampleErrors
}

// State returns the current state. Other components read it, never set it.
func (a *Actuator) State() State {
	return a.state
}

// Position returns the last valid sensor reading.
func (a *Actuator) Position() uint16 {
	return a.position
}

// TargetPosition returns the position the current or last operation aims at.
func (a *Actuator) TargetPosition() uint16 {
	return a.target
}

// PositionPercent maps the position to 0-100 between the released and
// pushed thresholds, clamped at both ends.
func (a *Actuator) PositionPercent() uint8 {
	if a.position <= PositionReleased {
		return 0
	}
	if a.position >= PositionPushed {
		return 100
	}
	span := uint32(PositionPushed - PositionReleased)
	return uint8(uint32(a.position-PositionReleased) * 100 / span)
}
