package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/radio"
)

// publisher is the part of mqtt.Client the loot publisher uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// LootPublisher publishes a message each time a signal opens the squelch.
// Repeated samples of the same open signal are not republished.
type LootPublisher struct {
	client publisher
	topic  string
	qos    byte

	mu       sync.Mutex
	openFreq uint32
	open     bool
	sent     int
}

// NewLootPublisher connects to the broker in cfg. A failed first connect
// is logged and retried in the background.
func NewLootPublisher(cfg *config.Config) (*LootPublisher, error) {
	if !cfg.MQTT.Enabled {
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	brokerURL := fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.MQTT.ClientID)
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logging.Info("telemetry", "mqtt connected", map[string]interface{}{"broker": brokerURL})
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logging.Warn("telemetry", "mqtt connection lost", map[string]interface{}{"error": err.Error()})
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		logging.Warn("telemetry", "mqtt initial connection failed, retrying in background", map[string]interface{}{
			"error": token.Error().Error(),
		})
	}

	return newLootPublisher(client, cfg.MQTT.Topic, cfg.MQTT.QoS), nil
}

func newLootPublisher(client publisher, topic string, qos byte) *LootPublisher {
	return &LootPublisher{client: client, topic: topic, qos: qos}
}

// Update publishes on the closed-to-open edge of a frequency.
func (p *LootPublisher) Update(m radio.Measurement) {
	if p == nil {
		return
	}
	p.mu.Lock()
	edge := m.Open && !(p.open && p.openFreq == m.Frequency)
	p.open = m.Open
	p.openFreq = m.Frequency
	p.mu.Unlock()

	if edge {
		if err := p.publish(lootFrom(m, time.Now())); err != nil {
			logging.Debug("telemetry", "loot not published", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Replace forgets the open state once the scan pointer moves.
func (p *LootPublisher) Replace(freq uint32) {
	if p == nil {
		return
	}
	p.mu.Lock()
	if freq != p.openFreq {
		p.open = false
	}
	p.mu.Unlock()
}

func (p *LootPublisher) publish(l Loot) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal loot: %w", err)
	}

	topic := fmt.Sprintf("%s/%d", p.topic, l.Frequency)
	token := p.client.Publish(topic, p.qos, false, data)
	p.mu.Lock()
	p.sent++
	p.mu.Unlock()

	go func() {
		if token.Wait() && token.Error() != nil {
			logging.Error("telemetry", "mqtt publish failed", map[string]interface{}{
				"topic": topic,
				"error": token.Error().Error(),
			})
		}
	}()
	return nil
}

// Sent counts messages handed to the client.
func (p *LootPublisher) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}
