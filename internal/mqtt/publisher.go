package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/SpherenexLabs/npk/internal/models"
)

// Publisher publishes advice results from a channel
type Publisher struct {
	client mqtt.Client

	// Input channel (read by publisher, written through Publish)
	ResultChan chan *models.IngestResult

	adviceTopic    string // e.g., "npk/{device_id}/advice"
	enqueueTimeout time.Duration
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	AdviceTopic string // e.g., "npk/{device_id}/advice"
}

// NewPublisher creates a new MQTT publisher reading from resultChan
func NewPublisher(client mqtt.Client, config PublisherConfig, resultChan chan *models.IngestResult) *Publisher {
	return &Publisher{
		client:         client,
		ResultChan:     resultChan,
		adviceTopic:    config.AdviceTopic,
		enqueueTimeout: 1 * time.Second,
	}
}

// Name identifies the publisher as a result sink
func (p *Publisher) Name() string {
	return "mqtt"
}

// Publish enqueues a result for the advice topic. A full queue drops the
// result after the enqueue timeout.
func (p *Publisher) Publish(ctx context.Context, result *models.IngestResult) error {
	select {
	case p.ResultChan <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.enqueueTimeout):
		return fmt.Errorf("advice channel full, dropping result for %s", result.DeviceID)
	}
}

// Start publishes queued results until ctx is cancelled or the channel is closed
func (p *Publisher) Start(ctx context.Context) {
	log.Println("MQTT Publisher: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("MQTT Publisher: Context cancelled, shutting down...")
			return

		case result, ok := <-p.ResultChan:
			if !ok {
				log.Println("MQTT Publisher: Result channel closed, shutting down...")
				return
			}

			if err := p.publishAdvice(result); err != nil {
				log.Printf("Error publishing advice: %v", err)
			}
		}
	}
}

// publishAdvice publishes one result to the device's advice topic
func (p *Publisher) publishAdvice(result *models.IngestResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal advice: %w", err)
	}

	topic := formatTopic(p.adviceTopic, result.DeviceID)

	token := p.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish advice: %w", token.Error())
	}

	log.Printf("Published advice for device %s to topic: %s", result.DeviceID, topic)
	return nil
}

// formatTopic replaces {device_id} placeholder with actual device ID
func formatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
