package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"irlearn/core"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	messages []published
	err      error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return newFakeToken(c.err)
}

func testFrame() *core.Frame {
	f := &core.Frame{}
	for _, d := range []uint16{4500, 560, 1690, 560, 3500} {
		f.Add(d)
	}
	return f
}

func TestPublishFrame(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "")
	if err := p.PublishFrame("pico-1", testFrame()); err != nil {
		t.Fatalf("PublishFrame failed: %v", err)
	}

	if len(client.messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(client.messages))
	}
	m := client.messages[0]
	if m.topic != DefaultTopic || m.qos != 1 || !m.retained {
		t.Errorf("Unexpected publish options %+v", m)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(m.payload, &doc); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	for _, key := range []string{"device", "length", "times", "durations", "blob"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("Missing key %q", key)
		}
	}

	var msg FrameMessage
	if err := json.Unmarshal(m.payload, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Device != "pico-1" || msg.Length != 5 || len(msg.Times) != 4 {
		t.Errorf("Unexpected message %+v", msg)
	}
	if msg.Durations[4] != 3500 {
		t.Errorf("Expected last duration 3500, got %d", msg.Durations[4])
	}

	f, err := msg.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if !f.Equal(testFrame()) {
		t.Error("Blob does not decode to the published frame")
	}
}

func TestPublishFrameError(t *testing.T) {
	want := errors.New("not connected")
	p := NewPublisher(&fakeClient{err: want}, "ir/living-room")
	if err := p.PublishFrame("pico-1", testFrame()); !errors.Is(err, want) {
		t.Errorf("Expected wrapped broker error, got %v", err)
	}
}
