package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestExtractDeviceID(t *testing.T) {
	assert.Equal(t, "tank-01", extractDeviceID("npk/tank-01/reading"))
	assert.Equal(t, "tank-01", extractDeviceID("npk/tank-01"))
	assert.Equal(t, "", extractDeviceID("npk"))
}

func TestFormatTopic(t *testing.T) {
	assert.Equal(t, "npk/tank-01/advice", formatTopic("npk/{device_id}/advice", "tank-01"))
	assert.Equal(t, "npk/advice", formatTopic("npk/advice", "tank-01"))
}

func TestDecodeReading(t *testing.T) {
	reading, err := decodeReading([]byte(`{"ph": 6.82, "tds_ppm": "310", "hum": null}`))
	require.NoError(t, err)

	ph, ok := reading.Float("ph")
	assert.True(t, ok)
	assert.Equal(t, 6.82, ph)

	tds, ok := reading.Float("tds_ppm")
	assert.True(t, ok)
	assert.Equal(t, 310.0, tds)

	assert.True(t, reading.Has("hum"))
	_, ok = reading.Float("hum")
	assert.False(t, ok)
}

func TestDecodeReading_RejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[1,2]`, `6.5`, `"ph"`, `null`, `{bad`, ``} {
		_, err := decodeReading([]byte(payload))
		assert.True(t, errors.Is(err, errNotObject), payload)
	}
}

func TestHandleReading(t *testing.T) {
	ch := make(chan *models.DeviceReading, 1)
	s := NewSubscriber(nil, SubscriberConfig{ReadingTopic: "npk/+/reading"}, ch)

	s.handleReading(nil, &fakeMessage{topic: "npk/tank-07/reading", payload: []byte(`{"ph": 7.1}`)})

	require.Len(t, ch, 1)
	got := <-ch
	assert.Equal(t, "tank-07", got.DeviceID)
	assert.Equal(t, "mqtt", got.Source)
	assert.False(t, got.Timestamp.IsZero())
}

func TestHandleReading_DropsMalformed(t *testing.T) {
	ch := make(chan *models.DeviceReading, 1)
	s := NewSubscriber(nil, SubscriberConfig{}, ch)

	s.handleReading(nil, &fakeMessage{topic: "npk/tank-07/reading", payload: []byte(`[]`)})
	s.handleReading(nil, &fakeMessage{topic: "npk", payload: []byte(`{"ph": 7}`)})
	assert.Len(t, ch, 0)
}

func TestHandleReading_DropsWhenFull(t *testing.T) {
	ch := make(chan *models.DeviceReading, 1)
	s := NewSubscriber(nil, SubscriberConfig{}, ch)
	s.sendTimeout = 10 * time.Millisecond

	msg := &fakeMessage{topic: "npk/tank-07/reading", payload: []byte(`{"ph": 7}`)}
	s.handleReading(nil, msg)
	s.handleReading(nil, msg)
	assert.Len(t, ch, 1)
}

func TestPublisher_PublishEnqueues(t *testing.T) {
	ch := make(chan *models.IngestResult, 1)
	p := NewPublisher(nil, PublisherConfig{AdviceTopic: "npk/{device_id}/advice"}, ch)
	p.enqueueTimeout = 10 * time.Millisecond

	result := &models.IngestResult{DeviceID: "tank-01"}
	require.NoError(t, p.Publish(context.Background(), result))
	assert.Same(t, result, <-ch)

	ch <- result
	assert.Error(t, p.Publish(context.Background(), result))
}

func TestAdvicePayloadShape(t *testing.T) {
	label := "Dilute"
	result := &models.IngestResult{
		ResultID: "r-1",
		DeviceID: "tank-01",
		Classification: models.ClassificationResult{
			Label:         &label,
			Justification: "High TDS/EC detected.",
			Neighbors:     []models.NeighborResult{{Index: 3, Label: "Dilute", DistanceSquared: 0.01}},
			K:             3,
		},
		History: []models.HistoryPoint{{Values: map[string]float64{"ph": 6.7}}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	classification := decoded["classification"].(map[string]interface{})
	assert.Equal(t, "Dilute", classification["label"])
	neighbor := classification["neighbors"].([]interface{})[0].(map[string]interface{})
	assert.Contains(t, neighbor, "distance_squared")

	point := decoded["history"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 6.7, point["ph"])
	assert.Contains(t, point, "timestamp")
}
