// Package mqttbus implements hal.Bus over MQTT using paho.mqtt.golang,
// wiring the tls.Certificate produced by internal/identity through
// pkg/transport's NewClientTLSConfig, and driving reconnection through
// pkg/connection's Manager/Backoff rather than paho's own built-in
// auto-reconnect.
package mqttbus

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/pkg/connection"
	"github.com/nu-cryo/cryo-bridge/pkg/transport"
)

const (
	connectTimeout = 10 * time.Second
	lwtQoS         = 1
)

// Config describes how to reach the broker and identify this node.
type Config struct {
	Host        string
	Port        int
	ClientID    string
	Username    string
	Password    string
	Cert        tls.Certificate
	InsecureTLS bool

	// TopicPrefix namespaces every subtopic, e.g. "cryo/<machine>/<node>".
	TopicPrefix string

	// LWTSubtopic and LWTOffline are published (retained) by the broker
	// if this client disconnects uncleanly.
	LWTSubtopic string
	LWTOffline  string
}

// Bus is the reference MQTT implementation of hal.Bus. Reconnection is
// owned by a connection.Manager rather than paho's own auto-reconnect,
// so the bridge's broker link uses the same backoff/jitter policy as any
// other connection.Manager-driven link in the module.
type Bus struct {
	cfg     Config
	client  mqtt.Client
	handler func(topic string, payload []byte)
	mgr     *connection.Manager
}

// New constructs an unconnected Bus; call Begin to connect.
func New(cfg Config) *Bus {
	return &Bus{cfg: cfg}
}

// Begin connects to the broker with the configured TLS identity and LWT,
// then starts the background reconnect loop.
func (b *Bus) Begin() bool {
	tlsConfig, err := transport.NewClientTLSConfig(&transport.TLSConfig{
		Certificate:        b.cfg.Cert,
		HasCertificate:     true,
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: b.cfg.InsecureTLS,
	})
	if err != nil {
		return false
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tls://%s:%d", b.cfg.Host, b.cfg.Port))
	opts.SetClientID(b.cfg.ClientID)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}
	opts.SetTLSConfig(tlsConfig)
	opts.SetConnectTimeout(connectTimeout)
	// connection.Manager owns reconnection, not paho.
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		b.mgr.NotifyConnectionLost()
	})

	if b.cfg.LWTSubtopic != "" {
		opts.SetWill(b.topic(b.cfg.LWTSubtopic), b.cfg.LWTOffline, lwtQoS, true)
	}

	opts.SetDefaultPublishHandler(func(c mqtt.Client, msg mqtt.Message) {
		if b.handler != nil {
			b.handler(msg.Topic(), msg.Payload())
		}
	})

	b.client = mqtt.NewClient(opts)
	b.mgr = connection.NewManager(b.connectOnce)
	b.mgr.StartReconnectLoop()

	return b.mgr.Connect(context.Background()) == nil
}

// connectOnce is the connection.ConnectFunc driving both the initial
// connect and every later reconnect attempt.
func (b *Bus) connectOnce(ctx context.Context) error {
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqttbus: connect to %s timed out", b.cfg.Host)
	}
	return token.Error()
}

func (b *Bus) topic(subtopic string) string {
	if b.cfg.TopicPrefix == "" {
		return subtopic
	}
	return b.cfg.TopicPrefix + "/" + subtopic
}

func (b *Bus) Publish(subtopic string, payload []byte, retained bool, qos int) bool {
	if b.mgr == nil || !b.mgr.IsConnected() {
		return false
	}
	token := b.client.Publish(b.topic(subtopic), byte(qos), retained, payload)
	return token.WaitTimeout(connectTimeout) && token.Error() == nil
}

func (b *Bus) Subscribe(subtopic string) bool {
	if b.mgr == nil || !b.mgr.IsConnected() {
		return false
	}
	token := b.client.Subscribe(b.topic(subtopic), 1, func(c mqtt.Client, msg mqtt.Message) {
		if b.handler != nil {
			b.handler(msg.Topic(), msg.Payload())
		}
	})
	return token.WaitTimeout(connectTimeout) && token.Error() == nil
}

func (b *Bus) SetHandler(cb func(topic string, payload []byte)) {
	b.handler = cb
}

var _ hal.Bus = (*Bus)(nil)
