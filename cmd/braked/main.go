package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/brake.go/pkg/brake"
	"github.com/robotalks/brake.go/pkg/can"
	"github.com/robotalks/brake.go/pkg/ctl"
	"github.com/robotalks/brake.go/pkg/loop"
	"github.com/robotalks/brake.go/pkg/mon"
	"github.com/robotalks/brake.go/pkg/sim"
	"github.com/robotalks/brake.go/pkg/ticker"
)

var (
	mqttURL = "mqtt://localhost:1883/robo/"
	initPos = uint(brake.PositionReleased)
	nodeID  = uint(0xf0)
)

func init() {
	if val := os.Getenv("BRAKE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.UintVar(&initPos, "position", initPos, "Initial actuator position.")
	flag.UintVar(&nodeID, "node-id", nodeID, "Device node id on the bus.")
}

func main() {
	flag.Parse()

	plant := sim.NewPlant(uint16(initPos))
	bus := &sim.Bus{}
	transport := can.NewTransport(bus, &sim.Gate{})

	clock := ticker.NewWall()
	actuator := brake.New(plant, plant, clock)
	controller := ctl.New(transport, actuator, &sim.Lamp{}, clock)
	controller.SetNodeID(uint8(nodeID))

	q, err := mon.NewQueue(mqttURL, "braked")
	if err != nil {
		glog.Exitf("mqtt: %v", err)
	}
	defer q.Close()
	bridge := &mon.Bridge{Queue: q, Transport: transport}
	bus.Output = bridge.Publish
	if err = bridge.Start(); err != nil {
		glog.Exitf("subscribe: %v", err)
	}

	l := loop.New(clock).Add(
		loop.TickFunc(func(ticker.Ticks) { actuator.UpdatePosition() }),
		actuator,
		controller,
		loop.TickFunc(func(ticker.Ticks) { transport.Flush() }),
	)
	if err = loop.NewRunner().HandleSignals().Go(l).Wait(); err != nil {
		glog.Exit(err)
	}
}
