// Package mon mirrors bus traffic to MQTT for monitoring and lets tooling
// inject peer traffic into the device.
package mon

import (
	"encoding/json"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/brake.go/pkg/can"
	"github.com/robotalks/brake.go/pkg/mqtt"
	"github.com/robotalks/brake.go/pkg/msgs"
)

// Topics relative to the queue's prefix.
const (
	TopicHeartbeat = "brake/heartbeat"
	TopicTelemetry = "brake/telemetry"
	TopicCommand   = "brake/cmd"
	TopicPeer      = "brake/peer"
)

// ClientID derives a stable MQTT client id for this host.
func ClientID(component string) string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return component
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return component + "-" + id
}

// NewQueue connects a queue to the broker URL with a client id derived
// from the component name.
func NewQueue(brokerURL, component string) (*mqtt.Queue, error) {
	options, prefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if options.ClientID == "" {
		options.SetClientID(ClientID(component))
	}
	q := mqtt.NewQueue(options, prefix)
	if err = q.Connect(); err != nil {
		return nil, err
	}
	return q, nil
}

// TopicFor maps an outbound message to its monitoring topic, empty for
// kinds the device never sends.
func TopicFor(m msgs.Message) string {
	switch m.(type) {
	case msgs.Heartbeat:
		return TopicHeartbeat
	case msgs.BrakeTelemetry:
		return TopicTelemetry
	}
	return ""
}

// Bridge publishes frames leaving the device as JSON and converts messages
// arriving on the command/peer topics into CAN frames handed to the
// transport's receive-interrupt entry. The paho delivery goroutine plays
// the role of the bus interrupt, which is why the transport's gate must be
// mutex-backed in this deployment.
type Bridge struct {
	Queue     *mqtt.Queue
	Transport *can.Transport
}

// Start subscribes the inbound topics.
func (b *Bridge) Start() error {
	if err := b.Queue.Sub(TopicCommand, b.handleCommand); err != nil {
		return err
	}
	return b.Queue.Sub(TopicPeer, b.handlePeer)
}

// Publish mirrors an outbound frame to its monitoring topic. Frames that
// are not protocol messages are skipped.
func (b *Bridge) Publish(f can.Frame) {
	m, err := msgs.Decode(f)
	if err != nil {
		return
	}
	topic := TopicFor(m)
	if topic == "" {
		return
	}
	payload, err := json.Marshal(m)
	if err != nil {
		glog.Errorf("encode %s: %v", topic, err)
		return
	}
	b.Queue.Pub(topic, payload)
}

func (b *Bridge) handleCommand(_ string, payload []byte) {
	var m msgs.BrakeCommand
	if err := json.Unmarshal(payload, &m); err != nil {
		glog.Warningf("bad command payload: %v", err)
		return
	}
	b.Transport.HandleRx(m.MarshalCANFrame())
}

func (b *Bridge) handlePeer(_ string, payload []byte) {
	var m msgs.Heartbeat
	if err := json.Unmarshal(payload, &m); err != nil {
		glog.Warningf("bad peer heartbeat payload: %v", err)
		return
	}
	b.Transport.HandleRx(m.MarshalCANFrame())
}
