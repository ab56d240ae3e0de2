package main

//go-build: CGO_ENABLED=0

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/brake.go/pkg/ctl"
	"github.com/robotalks/brake.go/pkg/mon"
	"github.com/robotalks/brake.go/pkg/mqtt"
	"github.com/robotalks/brake.go/pkg/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/robo/"
)

func init() {
	if val := os.Getenv("BRAKE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

// session is the peer side of the protocol: it issues commands, emulates
// the peer heartbeat and records what the device reports back.
type session struct {
	queue *mqtt.Queue

	mu        sync.Mutex
	msgID     uint8
	hbStop    chan struct{}
	hbCount   uint32
	heartbeat *msgs.Heartbeat
	telemetry *msgs.BrakeTelemetry
}

func newSession(q *mqtt.Queue) (*session, error) {
	s := &session{queue: q}
	err := q.Sub(mon.TopicHeartbeat, func(_ string, payload []byte) {
		var m msgs.Heartbeat
		if json.Unmarshal(payload, &m) == nil {
			s.mu.Lock()
			s.heartbeat = &m
			s.mu.Unlock()
		}
	})
	if err != nil {
		return nil, err
	}
	err = q.Sub(mon.TopicTelemetry, func(_ string, payload []byte) {
		var m msgs.BrakeTelemetry
		if json.Unmarshal(payload, &m) == nil {
			s.mu.Lock()
			s.telemetry = &m
			s.mu.Unlock()
		}
	})
	return s, err
}

func (s *session) pub(topic string, m msgs.Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.queue.Pub(topic, payload)
}

func (s *session) command(dir msgs.Direction) {
	s.mu.Lock()
	s.msgID++
	id := s.msgID
	s.mu.Unlock()
	s.pub(mon.TopicCommand, msgs.BrakeCommand{
		State: dir,
		MsgID: id,
		Stamp: uint16(time.Now().UnixNano() / int64(time.Millisecond)),
	})
}

// startHeartbeat emulates the peer node so the device's watchdog stays
// satisfied while the shell is attached.
func (s *session) startHeartbeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hbStop != nil {
		return false
	}
	stop := make(chan struct{})
	s.hbStop = stop
	go func() {
		t := time.NewTicker(time.Duration(ctl.HeartbeatInterval) * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.mu.Lock()
				count := s.hbCount
				s.hbCount++
				s.mu.Unlock()
				s.pub(mon.TopicPeer, msgs.Heartbeat{
					NodeID: msgs.NodePeer,
					Count:  count,
					Health: msgs.HealthOn,
				})
			}
		}
	}()
	return true
}

func (s *session) stopHeartbeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hbStop == nil {
		return false
	}
	close(s.hbStop)
	s.hbStop = nil
	return true
}

func telemetryState(m *msgs.BrakeTelemetry) string {
	switch {
	case m.Releasing:
		return "releasing"
	case m.Released:
		return "released"
	case m.Pushing:
		return "pushing"
	case m.Pushed:
		return "pushed"
	}
	return "stopped"
}

func main() {
	flag.Parse()

	q, err := mon.NewQueue(mqttURL, "brakecli")
	if err != nil {
		log.Fatalln(err)
	}
	defer q.Close()
	s, err := newSession(q)
	if err != nil {
		log.Fatalln(err)
	}
	defer s.stopHeartbeat()

	shell := ishell.New()
	shell.SetPrompt("brake > ")
	shell.AddCmd(&ishell.Cmd{
		Name: "push",
		Help: "engage the brake",
		Func: func(c *ishell.Context) { s.command(msgs.Push) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "release",
		Help: "release the brake",
		Func: func(c *ishell.Context) { s.command(msgs.Release) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "show last reported actuator state",
		Func: func(c *ishell.Context) {
			s.mu.Lock()
			m := s.telemetry
			s.mu.Unlock()
			if m == nil {
				c.Println("no telemetry yet")
				return
			}
			c.Printf("%s, time-to-end %dms\n", telemetryState(m), m.TimeToEnd)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "health",
		Help: "show last device heartbeat",
		Func: func(c *ishell.Context) {
			s.mu.Lock()
			m := s.heartbeat
			s.mu.Unlock()
			if m == nil {
				c.Println("no heartbeat yet")
				return
			}
			c.Printf("node %02x: %s (count %d)\n", m.NodeID, m.Health, m.Count)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "hb",
		Help: "hb start|stop: emulate the peer heartbeat",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: hb start|stop"))
				return
			}
			switch c.Args[0] {
			case "start":
				if !s.startHeartbeat() {
					c.Println("already running")
				}
			case "stop":
				if !s.stopHeartbeat() {
					c.Println("not running")
				}
			default:
				c.Err(fmt.Errorf("usage: hb start|stop"))
			}
		},
	})
	shell.Run()
}
