package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reading is a raw sensor payload as delivered by a device.
// Keys are attribute names; values are whatever the firmware sent.
type Reading map[string]interface{}

// Float returns the numeric value of an attribute.
// ok is false when the attribute is absent or not a finite number.
func (r Reading) Float(name string) (value float64, ok bool) {
	raw, present := r[name]
	if !present {
		return 0, false
	}
	return toFloat(raw)
}

// Has reports whether the attribute key is present at all, valid or not.
func (r Reading) Has(name string) bool {
	_, present := r[name]
	return present
}

func toFloat(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		// Firmware often stringifies values (e.g. "6.82")
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// HistoryPoint is the numeric projection of one ingested reading.
// Absent or invalid fields are stored as 0.
type HistoryPoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Value returns the projected value of a field (0 when not projected).
func (p HistoryPoint) Value(field string) float64 {
	return p.Values[field]
}

// Clone returns a deep copy so callers never share the values map.
func (p HistoryPoint) Clone() HistoryPoint {
	values := make(map[string]float64, len(p.Values))
	for k, v := range p.Values {
		values[k] = v
	}
	return HistoryPoint{Timestamp: p.Timestamp, Values: values}
}

// MarshalJSON flattens the values next to the timestamp, matching what
// chart consumers expect: {"timestamp": ..., "ph": 6.1, "tds_ppm": 300, ...}.
func (p HistoryPoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(p.Values)+1)
	for k, v := range p.Values {
		flat[k] = v
	}
	flat["timestamp"] = p.Timestamp
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON.
func (p *HistoryPoint) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	p.Values = make(map[string]float64, len(flat))
	for k, raw := range flat {
		if k == "timestamp" {
			if err := json.Unmarshal(raw, &p.Timestamp); err != nil {
				return err
			}
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		p.Values[k] = v
	}
	return nil
}

// DeviceReading is a reading tagged with its origin, as queued for ingestion
type DeviceReading struct {
	DeviceID  string
	Reading   Reading
	Timestamp time.Time
	Source    string // "mqtt", "http"
}
