/*Package telemetry publishes camera health and imagery over MQTT.

One Publisher serves any number of cameras; topics are laid out as

	<prefix>/status            "online" or "offline", retained, LWT "lost"
	<prefix>/<serial>/events   DeviceEvent JSON
	<prefix>/<serial>/stats    FrameStats JSON
	<prefix>/<serial>/image    base64 JPEG of a frame

Wire a camera in with the handler adapters:

	pub, err := telemetry.Dial(telemetry.Config{Broker: "tcp://broker:1883"})
	c.RegisterImageHandler(pub.ImageHandler(serial))
	c.RegisterDeviceHandler(pub.DeviceHandler(serial))

Image publishing is decimated to every Nth delivered frame so a camera
running full tilt does not saturate the broker.
*/
package telemetry

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	cam "github.com/candelalabs/gencam/camera"
)

// Config parameterizes a Publisher.  Broker is required; everything
// else has a usable default.
type Config struct {
	// Broker is the MQTT broker URL, e.g. tcp://10.0.0.5:1883
	Broker string

	// ClientID identifies this process to the broker, default "gencam"
	ClientID string

	// Prefix is the topic root, default "gencam"
	Prefix string

	// QOS is the MQTT quality of service for publishes, default 1
	QOS byte

	// EveryNth decimates image publishing; 30 publishes one frame in
	// thirty.  Default 30.
	EveryNth int

	// Timeout bounds the initial connect and each publish, default 10s
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = "gencam"
	}
	if c.Prefix == "" {
		c.Prefix = "gencam"
	}
	if c.QOS == 0 {
		c.QOS = 1
	}
	if c.EveryNth == 0 {
		c.EveryNth = 30
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Publisher is a connected MQTT client with the topic layout above.
type Publisher struct {
	c   mqtt.Client
	cfg Config
}

// Dial connects to the broker and announces "online" on the status
// topic.  The connection auto-reconnects; the broker marks the status
// "lost" if the process dies holding it.
func Dial(cfg Config) (*Publisher, error) {
	cfg = cfg.withDefaults()
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.SetWill(cfg.Prefix+"/status", "lost", cfg.QOS, true)
	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("telemetry: connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	p := &Publisher{c: c, cfg: cfg}
	if err := p.publish(cfg.Prefix+"/status", []byte("online"), true); err != nil {
		c.Disconnect(250)
		return nil, err
	}
	return p, nil
}

// Close announces "offline" and disconnects.
func (p *Publisher) Close() error {
	err := p.publish(p.cfg.Prefix+"/status", []byte("offline"), true)
	p.c.Disconnect(250)
	return err
}

func (p *Publisher) topic(serial, leaf string) string {
	return fmt.Sprintf("%s/%s/%s", p.cfg.Prefix, serial, leaf)
}

func (p *Publisher) publish(topic string, payload []byte, retain bool) error {
	tok := p.c.Publish(topic, p.cfg.QOS, retain, payload)
	if !tok.WaitTimeout(p.cfg.Timeout) {
		return fmt.Errorf("telemetry: publish to %s timed out", topic)
	}
	return tok.Error()
}

// PublishEvent sends a device event as JSON.
func (p *Publisher) PublishEvent(serial string, e cam.DeviceEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.publish(p.topic(serial, "events"), b, false)
}

// PublishStats sends a statistics snapshot as JSON, retained so late
// subscribers see the last known state.
func (p *Publisher) PublishStats(serial string, s cam.FrameStats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.publish(p.topic(serial, "stats"), b, true)
}

func encodeB64JPEG(f *cam.Frame) ([]byte, error) {
	img, err := f.Image()
	if err != nil {
		return nil, err
	}
	buf := bytes.Buffer{}
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	b64 := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(b64, buf.Bytes())
	return b64, nil
}

// PublishFrame sends a frame as a base64 JPEG.
func (p *Publisher) PublishFrame(serial string, f *cam.Frame) error {
	b64, err := encodeB64JPEG(f)
	if err != nil {
		return err
	}
	return p.publish(p.topic(serial, "image"), b64, false)
}

// ImageHandler adapts the publisher to a camera's image stream,
// publishing every Nth frame.  The publish token is not waited on;
// the handler runs on the delivery goroutine and must not stall it.
func (p *Publisher) ImageHandler(serial string) cam.ImageHandler {
	var n uint64
	topic := p.topic(serial, "image")
	return cam.ImageHandlerFunc(func(f *cam.Frame) {
		i := atomic.AddUint64(&n, 1)
		if (i-1)%uint64(p.cfg.EveryNth) != 0 {
			return
		}
		b64, err := encodeB64JPEG(f)
		if err != nil {
			return
		}
		p.c.Publish(topic, p.cfg.QOS, false, b64)
	})
}

// DeviceHandler adapts the publisher to a camera's event stream.
func (p *Publisher) DeviceHandler(serial string) cam.DeviceHandler {
	return cam.DeviceHandlerFunc(func(e cam.DeviceEvent) {
		p.PublishEvent(serial, e)
	})
}
