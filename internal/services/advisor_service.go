package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SpherenexLabs/npk/internal/aggregator"
	"github.com/SpherenexLabs/npk/internal/knn"
	"github.com/SpherenexLabs/npk/internal/metrics"
	"github.com/SpherenexLabs/npk/internal/models"
)

var (
	// ErrUnknownDevice is returned by read views for a device that never reported
	ErrUnknownDevice = errors.New("unknown device")
	// ErrUnknownField is returned when a trend is requested for a field not in history
	ErrUnknownField = errors.New("unknown history field")
	// ErrEmptyDeviceID is returned when a reading carries no device id
	ErrEmptyDeviceID = errors.New("device id is required")
)

// Reading sources
const (
	SourceMQTT = "mqtt"
	SourceHTTP = "http"
)

// ResultSink receives every ingest result (MQTT advice topic, Redis, ClickHouse)
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, result *models.IngestResult) error
}

// deviceStream owns one device's coordinator. mu serialises ingest and reads.
type deviceStream struct {
	mu           sync.Mutex
	coordinator  *aggregator.Coordinator
	registeredAt time.Time
	lastSeen     time.Time
}

// AdvisorServiceConfig holds configuration for the advisor service
type AdvisorServiceConfig struct {
	HistoryCapacity    int
	ReadingChannelSize int
}

// DefaultAdvisorServiceConfig returns default configuration
func DefaultAdvisorServiceConfig() AdvisorServiceConfig {
	return AdvisorServiceConfig{
		HistoryCapacity:    aggregator.DefaultHistoryCapacity,
		ReadingChannelSize: 100,
	}
}

// AdvisorService keeps one coordinator per device, classifies incoming
// readings and fans the results out to the configured sinks
type AdvisorService struct {
	classifier *knn.Classifier
	config     AdvisorServiceConfig
	sinks      []ResultSink

	// Input channel from the MQTT subscriber
	ReadingChan chan *models.DeviceReading

	devices map[string]*deviceStream
	mu      sync.RWMutex

	// Called once per device on first sight
	onDeviceRegistered func(*models.Device)
}

// NewAdvisorService creates a new advisor service
func NewAdvisorService(classifier *knn.Classifier, config AdvisorServiceConfig, sinks ...ResultSink) (*AdvisorService, error) {
	if classifier == nil {
		return nil, &models.ConfigError{Component: "advisor", Reason: "classifier is required"}
	}
	if config.HistoryCapacity < 1 {
		return nil, &models.ConfigError{
			Component: "advisor",
			Field:     "history_capacity",
			Reason:    fmt.Sprintf("capacity %d must be at least 1", config.HistoryCapacity),
		}
	}
	if config.ReadingChannelSize < 1 {
		config.ReadingChannelSize = DefaultAdvisorServiceConfig().ReadingChannelSize
	}

	return &AdvisorService{
		classifier:  classifier,
		config:      config,
		sinks:       sinks,
		ReadingChan: make(chan *models.DeviceReading, config.ReadingChannelSize),
		devices:     make(map[string]*deviceStream),
	}, nil
}

// AddSink registers another result sink. Call before Start.
func (s *AdvisorService) AddSink(sink ResultSink) {
	s.sinks = append(s.sinks, sink)
}

// SetDeviceCallback sets the function invoked when a device first reports
func (s *AdvisorService) SetDeviceCallback(callback func(*models.Device)) {
	s.onDeviceRegistered = callback
}

// Start drains ReadingChan until ctx is cancelled or the channel is closed
func (s *AdvisorService) Start(ctx context.Context) {
	log.Println("AdvisorService: Starting...")

	for {
		select {
		case <-ctx.Done():
			log.Println("AdvisorService: Shutting down...")
			return

		case reading, ok := <-s.ReadingChan:
			if !ok {
				log.Println("AdvisorService: Reading channel closed, shutting down...")
				return
			}

			source := reading.Source
			if source == "" {
				source = SourceMQTT
			}
			if _, err := s.IngestFrom(ctx, source, reading.DeviceID, reading.Reading, reading.Timestamp); err != nil {
				log.Printf("AdvisorService: Error ingesting reading from %s: %v", reading.DeviceID, err)
			}
		}
	}
}

// Ingest processes one reading for a device
func (s *AdvisorService) Ingest(ctx context.Context, deviceID string, reading models.Reading, ts time.Time) (*models.IngestResult, error) {
	return s.IngestFrom(ctx, SourceHTTP, deviceID, reading, ts)
}

// IngestFrom processes one reading and tags its metrics with source.
// Sink failures are logged and counted; the result is still returned.
func (s *AdvisorService) IngestFrom(ctx context.Context, source, deviceID string, reading models.Reading, ts time.Time) (*models.IngestResult, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	stream, err := s.getOrCreateStream(deviceID, ts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stream.mu.Lock()
	result := stream.coordinator.Ingest(reading, ts)
	stream.lastSeen = ts
	stream.mu.Unlock()
	metrics.IngestLatency.Observe(time.Since(start).Seconds())

	result.ResultID = uuid.NewString()
	result.DeviceID = deviceID

	metrics.RecordIngest(source, &result)
	if len(result.Warnings) > 0 {
		log.Printf("AdvisorService: device=%s defaulted %d attribute(s): %v", deviceID, len(result.Warnings), result.Warnings)
	}
	log.Printf("AdvisorService: device=%s suggestion=%q alerts=%d history=%d",
		deviceID, result.Classification.LabelOr("none"), len(result.Alerts), len(result.History))

	s.publish(ctx, &result)
	return &result, nil
}

// publish delivers the result to every sink in registration order
func (s *AdvisorService) publish(ctx context.Context, result *models.IngestResult) {
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, result); err != nil {
			metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
			log.Printf("AdvisorService: Error publishing to %s for %s: %v", sink.Name(), result.DeviceID, err)
		}
	}
}

// getOrCreateStream returns the device's stream, creating and announcing it on first sight
func (s *AdvisorService) getOrCreateStream(deviceID string, ts time.Time) (*deviceStream, error) {
	s.mu.RLock()
	stream, exists := s.devices[deviceID]
	s.mu.RUnlock()
	if exists {
		return stream, nil
	}

	s.mu.Lock()
	if stream, exists = s.devices[deviceID]; exists {
		s.mu.Unlock()
		return stream, nil
	}

	coordinator, err := aggregator.NewCoordinator(s.classifier, s.config.HistoryCapacity, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	stream = &deviceStream{coordinator: coordinator, registeredAt: ts, lastSeen: ts}
	s.devices[deviceID] = stream
	count := len(s.devices)
	s.mu.Unlock()

	metrics.ActiveDevices.Set(float64(count))
	log.Printf("AdvisorService: Registered device %s", deviceID)

	if s.onDeviceRegistered != nil {
		s.onDeviceRegistered(&models.Device{
			DeviceID:     deviceID,
			Name:         deviceID,
			Location:     "Unknown",
			RegisteredAt: ts,
			LastSeen:     ts,
			IsActive:     true,
		})
	}
	return stream, nil
}

func (s *AdvisorService) stream(deviceID string) (*deviceStream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, exists := s.devices[deviceID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return stream, nil
}

// History returns the device's history window, oldest first
func (s *AdvisorService) History(deviceID string) ([]models.HistoryPoint, error) {
	stream, err := s.stream(deviceID)
	if err != nil {
		return nil, err
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()
	return stream.coordinator.History(), nil
}

// Latest returns the device's most recent classification
func (s *AdvisorService) Latest(deviceID string) (models.ClassificationResult, error) {
	stream, err := s.stream(deviceID)
	if err != nil {
		return models.ClassificationResult{}, err
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()
	latest, ok := stream.coordinator.Latest()
	if !ok {
		return models.ClassificationResult{}, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return latest, nil
}

// Trend summarises the device's history for one field, or every field when field is empty
func (s *AdvisorService) Trend(deviceID, field string) ([]aggregator.TrendSummary, error) {
	stream, err := s.stream(deviceID)
	if err != nil {
		return nil, err
	}

	stream.mu.Lock()
	points := stream.coordinator.History()
	fields := stream.coordinator.Fields()
	stream.mu.Unlock()

	if field == "" {
		return aggregator.SummarizeAll(points, fields), nil
	}
	for _, f := range fields {
		if f == field {
			return []aggregator.TrendSummary{aggregator.Summarize(points, field)}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Devices lists every device that has reported, ordered by id
func (s *AdvisorService) Devices() []models.Device {
	s.mu.RLock()
	devices := make([]models.Device, 0, len(s.devices))
	for id, stream := range s.devices {
		stream.mu.Lock()
		devices = append(devices, models.Device{
			DeviceID:     id,
			Name:         id,
			Location:     "Unknown",
			RegisteredAt: stream.registeredAt,
			LastSeen:     stream.lastSeen,
			IsActive:     true,
		})
		stream.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].DeviceID < devices[j].DeviceID
	})
	return devices
}

// Classifier returns the shared classifier
func (s *AdvisorService) Classifier() *knn.Classifier {
	return s.classifier
}
