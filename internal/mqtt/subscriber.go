package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/SpherenexLabs/npk/internal/metrics"
	"github.com/SpherenexLabs/npk/internal/models"
)

var errNotObject = errors.New("payload is not a JSON object")

// Subscriber handles MQTT subscriptions and writes readings to a channel
type Subscriber struct {
	client mqtt.Client

	// Output channel (written by subscriber, read by the advisor service)
	ReadingChan chan *models.DeviceReading

	readingTopic string
	sendTimeout  time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	ReadingTopic string // e.g., "npk/+/reading"
}

// NewSubscriber creates a new MQTT subscriber writing to readingChan
func NewSubscriber(client mqtt.Client, config SubscriberConfig, readingChan chan *models.DeviceReading) *Subscriber {
	return &Subscriber{
		client:       client,
		ReadingChan:  readingChan,
		readingTopic: config.ReadingTopic,
		sendTimeout:  1 * time.Second,
	}
}

// SubscribeAll subscribes to the configured reading topic
func (s *Subscriber) SubscribeAll() error {
	if s.readingTopic == "" {
		return fmt.Errorf("no reading topic configured")
	}

	token := s.client.Subscribe(s.readingTopic, 1, s.handleReading)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to reading topic: %w", token.Error())
	}

	log.Printf("Subscribed to reading topic: %s", s.readingTopic)
	return nil
}

// handleReading decodes a reading payload and writes it to the channel
func (s *Subscriber) handleReading(client mqtt.Client, msg mqtt.Message) {
	// npk/{device_id}/reading
	deviceID := extractDeviceID(msg.Topic())
	if deviceID == "" {
		log.Printf("Could not extract device ID from topic: %s", msg.Topic())
		metrics.ReadingsDropped.Inc()
		return
	}

	reading, err := decodeReading(msg.Payload())
	if err != nil {
		log.Printf("Error decoding reading from %s: %v", deviceID, err)
		metrics.ReadingsDropped.Inc()
		return
	}

	// Generate timestamp server-side
	dr := &models.DeviceReading{
		DeviceID:  deviceID,
		Reading:   reading,
		Timestamp: time.Now(),
		Source:    "mqtt",
	}

	select {
	case s.ReadingChan <- dr:
	case <-time.After(s.sendTimeout):
		log.Printf("Warning: Reading channel full, dropping message from %s", deviceID)
		metrics.ReadingsDropped.Inc()
	}
}

// decodeReading parses a flat JSON object. Numbers are kept as json.Number
// so large integers survive unchanged.
func decodeReading(payload []byte) (models.Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var reading models.Reading
	if err := dec.Decode(&reading); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if reading == nil {
		return nil, errNotObject
	}
	return reading, nil
}

// extractDeviceID returns the second topic segment
// Example: "npk/tank-01/reading" -> "tank-01"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
