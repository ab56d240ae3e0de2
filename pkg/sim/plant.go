// Package sim provides an in-process stand-in for the brake hardware: a
// one-axis actuator plant, a loopback transceiver and a status lamp.
package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"
)

// Gate adapts a mutex to the ring's interrupt-mask contract, for
// deployments where the "interrupt" is another goroutine.
type Gate struct {
	mu sync.Mutex
}

// Mask implements can.Gate.
func (g *Gate) Mask() { g.mu.Lock() }

// Unmask implements can.Gate.
func (g *Gate) Unmask() { g.mu.Unlock() }

// DefaultSpeed is the plant's full-duty travel speed in sensor units per
// second. 2000 units/s crosses the full stroke in roughly two seconds,
// matching the static operation estimates.
const DefaultSpeed = 2000.0

// Plant simulates the linear actuator: a position integrator with a
// potentiometer readout. It implements both brake.Motor and brake.Sensor.
type Plant struct {
	Speed float64

	mu       sync.Mutex
	position float64
	push     bool
	duty     uint8
	last     time.Time
}

// NewPlant creates a plant resting at the initial position.
func NewPlant(initial uint16) *Plant {
	return &Plant{
		Speed:    DefaultSpeed,
		position: float64(initial),
		last:     time.Now(),
	}
}

// step integrates motion up to now. Callers hold the lock.
func (p *Plant) step(now time.Time) {
	dt := now.Sub(p.last).Seconds()
	p.last = now
	if p.duty == 0 || dt <= 0 {
		return
	}
	v := p.Speed * float64(p.duty) / 100
	if !p.push {
		v = -v
	}
	p.position += v * dt
	if p.position < 0 {
		p.position = 0
	}
	if p.position > 4095 {
		p.position = 4095
	}
}

// Drive implements brake.Motor.
func (p *Plant) Drive(push bool, duty uint8) {
	if duty > 100 {
		duty = 100
	}
	p.mu.Lock()
	p.step(time.Now())
	p.push, p.duty = push, duty
	p.mu.Unlock()
}

// Stop implements brake.Motor.
func (p *Plant) Stop() {
	p.mu.Lock()
	p.step(time.Now())
	p.duty = 0
	p.mu.Unlock()
}

// Position implements brake.Sensor.
func (p *Plant) Position() uint16 {
	p.mu.Lock()
	p.step(time.Now())
	pos := uint16(p.position)
	p.mu.Unlock()
	return pos
}

// Lamp is a status indicator that remembers its state.
type Lamp struct {
	mu sync.Mutex
	on bool
}

// Set implements ctl.Indicator.
func (l *Lamp) Set(on bool) {
	l.mu.Lock()
	if l.on != on {
		glog.V(3).Infof("lamp %v", on)
	}
	l.on = on
	l.mu.Unlock()
}

// On returns the lamp state.
func (l *Lamp) On() bool {
	l.mu.Lock()
	on := l.on
	l.mu.Unlock()
	return on
}
