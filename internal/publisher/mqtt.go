package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jgoulah/campusscraper/internal/config"
	"github.com/jgoulah/campusscraper/pkg/models"
)

const publishTimeout = 10 * time.Second

// Client is the subset of the paho client the publisher uses
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher pushes parking availability to an MQTT broker
type Publisher struct {
	client      Client
	topicPrefix string
}

// New connects to the broker described by cfg
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Set default topic prefix if not specified
	topicPrefix := cfg.TopicPrefix
	if topicPrefix == "" {
		topicPrefix = config.DefaultMQTTTopic
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = config.DefaultMQTTClientID
	}
	// Unique per run so overlapping invocations do not kick each other off
	clientID = clientID + "-" + uuid.NewString()[:8]

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	// Create and connect client
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	logrus.WithFields(logrus.Fields{"broker": cfg.Broker, "client_id": clientID}).Info("Connected to MQTT broker")
	return NewWithClient(client, topicPrefix), nil
}

// NewWithClient wraps an already connected client
func NewWithClient(client Client, topicPrefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: strings.TrimSuffix(topicPrefix, "/")}
}

// RecordTopic returns the topic a record's available spaces are published to
func (p *Publisher) RecordTopic(r models.ParkingRecord) string {
	return strings.Join([]string{p.topicPrefix, Slug(r.Garage), Slug(r.Level), Slug(r.PermitType)}, "/")
}

// SnapshotTopic returns the topic the full snapshot JSON is published to
func (p *Publisher) SnapshotTopic() string {
	return p.topicPrefix + "/snapshot"
}

// PublishSnapshot sends every record's available spaces as a retained
// message, then the whole snapshot as JSON. It returns the number of
// messages published.
func (p *Publisher) PublishSnapshot(snapshot models.ParkingSnapshot) (int, error) {
	published := 0
	for _, r := range snapshot.Data {
		if err := p.publish(p.RecordTopic(r), r.AvailableSpaces); err != nil {
			return published, err
		}
		published++
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return published, fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := p.publish(p.SnapshotTopic(), payload); err != nil {
		return published, err
	}
	published++

	logrus.WithFields(logrus.Fields{
		"messages":  published,
		"timestamp": snapshot.Timestamp,
	}).Info("Published parking snapshot")
	return published, nil
}

func (p *Publisher) publish(topic string, payload interface{}) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	logrus.WithField("topic", topic).Debug("Published message")
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// Slug lowercases s and collapses every run of non-alphanumerics into a
// single underscore so it is safe as an MQTT topic level
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
