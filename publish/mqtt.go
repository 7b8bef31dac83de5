// Package publish forwards received messages to an MQTT broker.
package publish

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ystepanoff/acomm/config"
	"github.com/ystepanoff/acomm/param"
	proto "github.com/ystepanoff/acomm/protocol"
)

// Payload is the JSON document published for every received message.
type Payload struct {
	ID        string    `json:"id"`
	Station   uint8     `json:"station"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Value     string    `json:"value"`
	Data      string    `json:"data"`
	Bits      int       `json:"bits"`
	Timestamp time.Time `json:"timestamp"`
}

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type MQTT struct {
	client  client
	params  *param.Registry
	topic   string
	qos     byte
	timeout time.Duration
}

// Connect dials the broker. The station id in each payload is the modem id
// read from params at publish time.
func Connect(cfg config.MQTTConfig, params *param.Registry) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("acomm_" + uuid.NewString())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("[MQTT] Connected to %s\r\n", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v\r\n", err)
	})

	c := mqtt.NewClient(opts)
	m := newMQTT(c, cfg, params)
	token := c.Connect()
	if !token.WaitTimeout(m.timeout) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return m, nil
}

func newMQTT(c client, cfg config.MQTTConfig, params *param.Registry) *MQTT {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MQTT{
		client:  c,
		params:  params,
		topic:   cfg.TopicPrefix + "/rx",
		qos:     cfg.QoS,
		timeout: timeout,
	}
}

// Encode renders msg as a Payload document.
func Encode(msg *proto.Message, station uint8) ([]byte, error) {
	return json.Marshal(Payload{
		ID:        uuid.NewString(),
		Station:   station,
		Type:      msg.Type.String(),
		Content:   msg.ContentType.String(),
		Value:     msg.Content(),
		Data:      hex.EncodeToString(msg.Data),
		Bits:      msg.LengthBits,
		Timestamp: msg.Timestamp.UTC(),
	})
}

func (m *MQTT) Publish(msg *proto.Message) error {
	station, err := m.params.GetUint8(param.ModemID)
	if err != nil {
		return err
	}
	body, err := Encode(msg, station)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, m.qos, false, body)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish to %s: %w", m.topic, ErrTimeout)
	}
	return token.Error()
}

// Handle publishes msg and logs failures. It has the signature of a
// receiver callback.
func (m *MQTT) Handle(msg *proto.Message) {
	if err := m.Publish(msg); err != nil {
		log.Printf("[MQTT] Dropping %s message: %v\r\n", msg.ContentType, err)
	}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
