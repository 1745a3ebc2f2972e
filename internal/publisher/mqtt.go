package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/i474232898/weather-board/internal/config"
	"github.com/i474232898/weather-board/internal/logger"
	"github.com/i474232898/weather-board/internal/weather"
)

const publishTimeout = 5 * time.Second

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// StateSource is anything that pushes FetchState updates.
type StateSource interface {
	Subscribe() (<-chan weather.FetchState, func())
}

// MQTTPublisher mirrors every completed fetch cycle to a retained MQTT topic.
type MQTTPublisher struct {
	client client
	topic  string
	log    logger.Logger
}

// NewMQTTPublisher builds a publisher for cfg. It does not connect.
func NewMQTTPublisher(cfg config.MQTTConfig, log logger.Logger) *MQTTPublisher {
	log = log.WithField("component", "mqtt_publisher")

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "weather-board-" + uuid.NewString()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Infof("mqtt connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warnf("mqtt connection lost")
	})

	return &MQTTPublisher{
		client: mqtt.NewClient(opts),
		topic:  cfg.Topic,
		log:    log,
	}
}

// Connect waits for the initial broker connection or ctx.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Run publishes states from source until ctx is done or the source closes.
// States of a cycle still in flight are skipped.
func (p *MQTTPublisher) Run(ctx context.Context, source StateSource) {
	updates, cancel := source.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if st.Loading || (st.UpdatedAt.IsZero() && st.Error == nil) {
				continue
			}
			if err := p.Publish(st); err != nil {
				p.log.WithError(err).Warnf("failed to mirror weather state")
			}
		}
	}
}

type statePayload struct {
	Snapshots []weather.WeatherSnapshot `json:"snapshots"`
	Error     *string                   `json:"error"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// Publish sends st to the configured topic as a retained message.
func (p *MQTTPublisher) Publish(st weather.FetchState) error {
	snaps := st.Snapshots
	if snaps == nil {
		snaps = []weather.WeatherSnapshot{}
	}

	data, err := json.Marshal(statePayload{
		Snapshots: snaps,
		Error:     st.Error,
		UpdatedAt: st.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	token := p.client.Publish(p.topic, 1, true, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}

	p.log.Debugf("published weather state to %s", p.topic)
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
	p.log.Infof("mqtt disconnected")
}
