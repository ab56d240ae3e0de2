// Package msgs defines the CAN messages exchanged with the peer: the
// heartbeat, the brake command and the brake telemetry. The byte layout is
// fixed by the peer's database and is little-endian throughout.
package msgs

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/robotalks/brake.go/pkg/can"
)

// Frame identifiers (29-bit extended, fixed by the peer).
const (
	FrameIDHeartbeat uint32 = 0x18FF0D00
	FrameIDBrakeCmd  uint32 = 0x18FF0D09
	FrameIDTelemetry uint32 = 0x18FF0D0A
)

// Node identities on the bus.
const (
	NodeDevice uint8 = 0xF0
	NodePeer   uint8 = 0x10
)

var (
	// ErrUnknownID indicates a frame identifier outside the protocol.
	ErrUnknownID = errors.New("msgs: unknown frame identifier")
	// ErrShortPayload indicates a recognized frame with too few bytes.
	ErrShortPayload = errors.New("msgs: payload too short")
	// ErrBadField indicates a field value outside its enumeration.
	ErrBadField = errors.New("msgs: field out of range")
)

// Health is the node health code carried in heartbeats. The wire values are
// fixed by the peer's database.
type Health uint8

// Health codes.
const (
	HealthOff Health = iota
	HealthOn
	HealthInit
	HealthWarning
	HealthFailure
	HealthCritical
)

// Valid reports whether h is a defined health code.
func (h Health) Valid() bool {
	return h <= HealthCritical
}

func (h Health) String() string {
	switch h {
	case HealthOff:
		return "off"
	case HealthOn:
		return "on"
	case HealthInit:
		return "init"
	case HealthWarning:
		return "warning"
	case HealthFailure:
		return "failure"
	case HealthCritical:
		return "critical-failure"
	}
	return fmt.Sprintf("health(%d)", uint8(h))
}

// Direction selects the commanded brake operation.
type Direction uint8

// Command directions.
const (
	Push    Direction = 0
	Release Direction = 1
)

// Valid reports whether d is a defined direction.
func (d Direction) Valid() bool {
	return d <= Release
}

func (d Direction) String() string {
	switch d {
	case Push:
		return "push"
	case Release:
		return "release"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Message is one of the protocol message kinds. Decode returns exactly one
// of Heartbeat, BrakeCommand or BrakeTelemetry.
type Message interface {
	MarshalCANFrame() can.Frame
}

// Heartbeat is the periodic node presence and health message. Both sides
// send it on the same identifier; the node id field tells them apart.
type Heartbeat struct {
	NodeID uint8  `json:"node_id"`
	Count  uint32 `json:"msg_count"`
	Health Health `json:"health"`
	Stamp  uint16 `json:"stamp"`
}

const heartbeatLen = 8

// MarshalCANFrame implements Message.
func (m Heartbeat) MarshalCANFrame() can.Frame {
	f := can.Frame{ID: FrameIDHeartbeat, Extended: true, Len: heartbeatLen}
	f.Data[0] = m.NodeID
	binary.LittleEndian.PutUint32(f.Data[1:5], m.Count)
	f.Data[5] = byte(m.Health)
	binary.LittleEndian.PutUint16(f.Data[6:8], m.Stamp)
	return f
}

// UnmarshalCANFrame decodes a heartbeat frame.
func (m *Heartbeat) UnmarshalCANFrame(f can.Frame) error {
	if f.ID != FrameIDHeartbeat {
		return ErrUnknownID
	}
	if f.Len < heartbeatLen {
		return ErrShortPayload
	}
	m.NodeID = f.Data[0]
	m.Count = binary.LittleEndian.Uint32(f.Data[1:5])
	m.Health = Health(f.Data[5])
	m.Stamp = binary.LittleEndian.Uint16(f.Data[6:8])
	if !m.Health.Valid() {
		return ErrBadField
	}
	return nil
}

// BrakeCommand orders a push or release operation.
type BrakeCommand struct {
	State Direction `json:"brake_state"`
	MsgID uint8     `json:"msg_id"`
	Stamp uint16    `json:"stamp"`
}

const brakeCommandLen = 4

// MarshalCANFrame implements Message.
func (m BrakeCommand) MarshalCANFrame() can.Frame {
	f := can.Frame{ID: FrameIDBrakeCmd, Extended: true, Len: brakeCommandLen}
	f.Data[0] = byte(m.State)
	f.Data[1] = m.MsgID
	binary.LittleEndian.PutUint16(f.Data[2:4], m.Stamp)
	return f
}

// UnmarshalCANFrame decodes a brake command frame.
func (m *BrakeCommand) UnmarshalCANFrame(f can.Frame) error {
	if f.ID != FrameIDBrakeCmd {
		return ErrUnknownID
	}
	if f.Len < brakeCommandLen {
		return ErrShortPayload
	}
	m.State = Direction(f.Data[0])
	m.MsgID = f.Data[1]
	m.Stamp = binary.LittleEndian.Uint16(f.Data[2:4])
	if !m.State.Valid() {
		return ErrBadField
	}
	return nil
}

// BrakeTelemetry reports the actuator state. Exactly one of the four state
// flags is set.
type BrakeTelemetry struct {
	MsgID     uint8  `json:"msg_id"`
	Stamp     uint16 `json:"stamp"`
	Releasing bool   `json:"brake_releasing"`
	Released  bool   `json:"brake_released"`
	Pushing   bool   `json:"brake_pushing"`
	Pushed    bool   `json:"brake_pushed"`
	TimeToEnd uint16 `json:"time_to_end_operation"`
}

const brakeTelemetryLen = 6

// MarshalCANFrame implements Message.
func (m BrakeTelemetry) MarshalCANFrame() can.Frame {
	f := can.Frame{ID: FrameIDTelemetry, Extended: true, Len: brakeTelemetryLen}
	f.Data[0] = m.MsgID
	binary.LittleEndian.PutUint16(f.Data[1:3], m.Stamp)
	var flags byte
	if m.Releasing {
		flags |= 1 << 0
	}
	if m.Released {
		flags |= 1 << 1
	}
	if m.Pushing {
		flags |= 1 << 2
	}
	if m.Pushed {
		flags |= 1 << 3
	}
	f.Data[3] = flags
	binary.LittleEndian.PutUint16(f.Data[4:6], m.TimeToEnd)
	return f
}

// UnmarshalCANFrame decodes a telemetry frame.
func (m *BrakeTelemetry) UnmarshalCANFrame(f can.Frame) error {
	if f.ID != FrameIDTelemetry {
		return ErrUnknownID
	}
	if f.Len < brakeTelemetryLen {
		return ErrShortPayload
	}
	m.MsgID = f.Data[0]
	m.Stamp = binary.LittleEndian.Uint16(f.Data[1:3])
	flags := f.Data[3]
	m.Releasing = flags&(1<<0) != 0
	m.Released = flags&(1<<1) != 0
	m.Pushing = flags&(1<<2) != 0
	m.Pushed = flags&(1<<3) != 0
	m.TimeToEnd = binary.LittleEndian.Uint16(f.Data[4:6])
	return nil
}

// Decode maps a frame to its message kind. Unrecognized identifiers return
// ErrUnknownID; recognized identifiers with undecodable payloads return the
// field error. Callers drop erroring frames silently.
func Decode(f can.Frame) (Message, error) {
	switch f.ID {
	case FrameIDHeartbeat:
		var m Heartbeat
		if err := m.UnmarshalCANFrame(f); err != nil {
			return nil, err
		}
		return m, nil
	case FrameIDBrakeCmd:
		var m BrakeCommand
		if err := m.UnmarshalCANFrame(f); err != nil {
			return nil, err
		}
		return m, nil
	case FrameIDTelemetry:
		var m BrakeTelemetry
		if err := m.UnmarshalCANFrame(f); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrUnknownID
}
