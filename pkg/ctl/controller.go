// Package ctl runs the node-presence protocol: periodic heartbeat and
// telemetry transmission, the peer heartbeat watchdog, command dispatch and
// aggregate health tracking.
package ctl

import (
	"github.com/golang/glog"

	"github.com/robotalks/brake.go/pkg/brake"
	"github.com/robotalks/brake.go/pkg/can"
	"github.com/robotalks/brake.go/pkg/msgs"
	"github.com/robotalks/brake.go/pkg/ticker"
)

// Protocol timing, milliseconds.
const (
	HeartbeatInterval ticker.Ticks = 50
	TelemetryInterval ticker.Ticks = 100
	WatchdogTimeout   ticker.Ticks = 200

	initPeriod ticker.Ticks = 1000
	blinkSlow  ticker.Ticks = 500
	blinkFast  ticker.Ticks = 125
)

// Indicator drives the status lamp.
type Indicator interface {
	Set(on bool)
}

// PeerHeartbeat is the last heartbeat received from the peer. The record is
// only overwritten by a newer heartbeat; a watchdog timeout keeps the stale
// values around for diagnostics.
type PeerHeartbeat struct {
	NodeID  uint8
	Count   uint32
	Health  msgs.Health
	Stamp   uint16
	Arrival ticker.Ticks
	Seen    bool
}

// Controller mediates between the transport and the actuator. Tick must be
// called from the polling loop only.
type Controller struct {
	transport *can.Transport
	actuator  *brake.Actuator
	indicator Indicator
	clock     ticker.Clock

	nodeID uint8
	peerID uint8
	health msgs.Health

	hbCount   uint32
	teleMsgID uint8

	lastHeartbeat ticker.Ticks
	lastTelemetry ticker.Ticks
	lastToggle    ticker.Ticks
	lampOn        bool

	peer        PeerHeartbeat
	droppedSeen uint32
}

// New creates a controller with the fixed device and peer identities.
// Health starts at Init and moves to On one second after the clock's zero.
func New(transport *can.Transport, actuator *brake.Actuator, indicator Indicator, clock ticker.Clock) *Controller {
	now := clock.Now()
	return &Controller{
		transport:     transport,
		actuator:      actuator,
		indicator:     indicator,
		clock:         clock,
		nodeID:        msgs.NodeDevice,
		peerID:        msgs.NodePeer,
		health:        msgs.HealthInit,
		lastHeartbeat: now,
		lastTelemetry: now,
		lastToggle:    now,
	}
}

// Tick runs one protocol cycle: drain and dispatch inbound frames, send the
// periodic messages that are due, refresh health and the status indicator.
func (c *Controller) Tick(now ticker.Ticks) {
	c.processInbound(now)

	if ticker.Since(now, c.lastHeartbeat) >= HeartbeatInterval {
		c.sendHeartbeat(now)
		c.lastHeartbeat = now
	}
	if ticker.Since(now, c.lastTelemetry) >= TelemetryInterval {
		c.sendTelemetry(now)
		c.lastTelemetry = now
	}

	c.updateHealth(now)
	c.updateIndicator(now)
}

func (c *Controller) processInbound(now ticker.Ticks) {
	for {
		f, ok := c.transport.Receive()
		if !ok {
			break
		}
		m, err := msgs.Decode(f)
		if err != nil {
			glog.V(2).Infof("dropping frame 0x%X: %v", f.ID, err)
			continue
		}
		switch m := m.(type) {
		case msgs.Heartbeat:
			// heartbeats from any other node, including our own looped
			// back, are ignored
			if m.NodeID != c.peerID {
				break
			}
			c.peer = PeerHeartbeat{
				NodeID:  m.NodeID,
				Count:   m.Count,
				Health:  m.Health,
				Stamp:   m.Stamp,
				Arrival: now,
				Seen:    true,
			}
		case msgs.BrakeCommand:
			glog.V(1).Infof("command %v (msg_id=%d)", m.State, m.MsgID)
			c.actuator.ProcessCommand(m.State)
		case msgs.BrakeTelemetry:
			// our own telemetry looped back
		}
	}

	if n := c.transport.RxDropped(); n != c.droppedSeen {
		glog.Warningf("inbound queue overflow, %d frames dropped", n-c.droppedSeen)
		c.droppedSeen = n
	}
}

func (c *Controller) sendHeartbeat(now ticker.Ticks) {
	m := msgs.Heartbeat{
		NodeID: c.nodeID,
		Count:  c.hbCount,
		Health: c.health,
		Stamp:  uint16(now),
	}
	c.hbCount++
	if err := c.transport.Send(m.MarshalCANFrame()); err != nil {
		glog.V(1).Infof("heartbeat dropped: %v", err)
	}
}

func (c *Controller) sendTelemetry(now ticker.Ticks) {
	state := c.actuator.State()
	m := msgs.BrakeTelemetry{
		MsgID:     c.teleMsgID,
		Stamp:     uint16(now),
		Releasing: state == brake.Releasing,
		Released:  state == brake.Released,
		Pushing:   state == brake.Pushing,
		Pushed:    state == brake.Pushed,
		TimeToEnd: c.actuator.TimeToEnd(),
	}
	c.teleMsgID++
	if err := c.transport.Send(m.MarshalCANFrame()); err != nil {
		glog.V(1).Infof("telemetry dropped: %v", err)
	}
}

// updateHealth applies the automatic transitions: the watchdog toggles
// between On and Warning, Init becomes On one second after boot, and an
// actuator fault clamps health to at least Failure. The Failure floor is
// sticky; only SetHealth changes it afterwards.
func (c *Controller) updateHealth(now ticker.Ticks) {
	if c.peer.Seen {
		if ticker.Since(now, c.peer.Arrival) > WatchdogTimeout {
			if c.health == msgs.HealthOn {
				glog.Warning("peer heartbeat lost")
				c.health = msgs.HealthWarning
			}
		} else if c.health == msgs.HealthWarning {
			glog.Info("peer heartbeat restored")
			c.health = msgs.HealthOn
		}
	}

	if c.health == msgs.HealthInit && now > initPeriod {
		c.health = msgs.HealthOn
	}

	if c.actuator.HasError() && c.health < msgs.HealthFailure {
		c.health = msgs.HealthFailure
	}
}

// updateIndicator maps the actuator state to the lamp: released off,
// pushed on, mid-operation slow blink, stopped fast blink.
func (c *Controller) updateIndicator(now ticker.Ticks) {
	switch c.actuator.State() {
	case brake.Released:
		c.setLamp(false)
	case brake.Pushed:
		c.setLamp(true)
	case brake.Releasing, brake.Pushing:
		c.blink(now, blinkSlow)
	case brake.Stopped:
		c.blink(now, blinkFast)
	}
}

func (c *Controller) setLamp(on bool) {
	c.lampOn = on
	c.indicator.Set(on)
}

func (c *Controller) blink(now, period ticker.Ticks) {
	if ticker.Since(now, c.lastToggle) >= period {
		c.setLamp(!c.lampOn)
		c.lastToggle = now
	}
}

// SetNodeID changes the node id used in outgoing heartbeats.
func (c *Controller) SetNodeID(id uint8) {
	c.nodeID = id
}

// NodeID returns the node id used in outgoing heartbeats.
func (c *Controller) NodeID() uint8 {
	return c.nodeID
}

// SetHealth overrides the health code. This is the only way to lower a
// health previously clamped to Failure. Out-of-range codes are ignored.
func (c *Controller) SetHealth(h msgs.Health) {
	if h.Valid() {
		c.health = h
	}
}

// Health returns the current health code.
func (c *Controller) Health() msgs.Health {
	return c.health
}

// Peer returns a snapshot of the last received peer heartbeat.
func (c *Controller) Peer() PeerHeartbeat {
	return c.peer
}

// SendHeartbeatNow transmits a heartbeat immediately and restarts its
// period.
func (c *Controller) SendHeartbeatNow() {
	now := c.clock.Now()
	c.sendHeartbeat(now)
	c.lastHeartbeat = now
}

// SendTelemetryNow transmits telemetry immediately and restarts its period.
func (c *Controller) SendTelemetryNow() {
	now := c.clock.Now()
	c.sendTelemetry(now)
	c.lastTelemetry = now
}
