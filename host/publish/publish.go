// Package publish sends learned frames to an MQTT broker as JSON.
package publish

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"irlearn/core"
)

// DefaultTopic is used when none is configured
const DefaultTopic = "irlearn/frame"

const publishTimeout = 5 * time.Second

var errTimeout = errors.New("mqtt: timed out")

// FrameMessage is the JSON document published for a frame
type FrameMessage struct {
	Device    string   `json:"device"`
	Length    int      `json:"length"`
	Times     []uint16 `json:"times"`
	Durations []uint16 `json:"durations"`
	// Blob is the base64 encoded persisted layout
	Blob string `json:"blob"`
}

// NewFrameMessage describes f
func NewFrameMessage(device string, f *core.Frame) FrameMessage {
	blob, _ := f.MarshalBinary()
	return FrameMessage{
		Device:    device,
		Length:    f.Len(),
		Times:     f.Times(),
		Durations: f.Durations(),
		Blob:      base64.StdEncoding.EncodeToString(blob),
	}
}

// Frame decodes the blob back into a frame
func (m FrameMessage) Frame() (*core.Frame, error) {
	blob, err := base64.StdEncoding.DecodeString(m.Blob)
	if err != nil {
		return nil, err
	}
	f := &core.Frame{}
	if err := f.UnmarshalBinary(blob); err != nil {
		return nil, err
	}
	return f, nil
}

// Connect opens an MQTT connection to broker, e.g. "tcp://localhost:1883"
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, token.Error())
	}
	return c, nil
}

// Client is the part of mqtt.Client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher publishes frames to one topic
type Publisher struct {
	client Client
	topic  string

	// QoS of published messages
	QoS byte
	// Retain keeps the last frame on the broker for late subscribers
	Retain bool
}

// NewPublisher publishes to topic through client
func NewPublisher(client Client, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: client, topic: topic, QoS: 1, Retain: true}
}

// PublishFrame sends f for device and waits for the broker to accept it
func (p *Publisher) PublishFrame(device string, f *core.Frame) error {
	msg, err := json.Marshal(NewFrameMessage(device, f))
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.QoS, p.Retain, msg)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: %w", p.topic, errTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	return nil
}
