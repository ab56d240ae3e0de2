package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/robotalks/brake.go/pkg/mon"
	"github.com/robotalks/brake.go/pkg/mqtt"
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

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mon.NewQueue(mqttURL, "brakemon")
	if err != nil {
		log.Fatalln(err)
	}

	err = q.Sub("brake/#", mqtt.Handler(func(topic string, payload []byte) {
		if !json.Valid(payload) {
			log.Printf("%s: bad payload: %q", topic, payload)
			return
		}
		log.Printf("%s: %s", topic, payload)
	}))
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
