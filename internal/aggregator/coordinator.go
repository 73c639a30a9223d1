package aggregator

import (
	"time"

	"github.com/SpherenexLabs/npk/internal/knn"
	"github.com/SpherenexLabs/npk/internal/models"
)

// DisplayFields are history fields that are charted but not classified on
var DisplayFields = []string{"hum"}

// Coordinator processes one device stream: every reading is projected into
// the history window, classified, and checked against the status bands.
// It performs no I/O and is not safe for concurrent use.
type Coordinator struct {
	classifier *knn.Classifier
	history    *HistoryBuffer
	fields     []string
	thresholds StatusThresholds

	latest *models.ClassificationResult
}

// NewCoordinator creates a coordinator with its own history buffer.
// fields lists the history projection; nil means the classifier's features
// followed by DisplayFields.
func NewCoordinator(classifier *knn.Classifier, capacity int, fields []string) (*Coordinator, error) {
	if classifier == nil {
		return nil, &models.ConfigError{Component: "coordinator", Reason: "classifier is required"}
	}

	history, err := NewHistoryBuffer(capacity)
	if err != nil {
		return nil, err
	}

	if fields == nil {
		fields = HistoryFields(classifier.Table())
	}

	return &Coordinator{
		classifier: classifier,
		history:    history,
		fields:     fields,
		thresholds: DefaultStatusThresholds(),
	}, nil
}

// HistoryFields returns the feature names followed by the display-only fields
func HistoryFields(table *knn.FeatureTable) []string {
	names := table.Names()
	for _, f := range DisplayFields {
		dup := false
		for _, n := range names {
			if n == f {
				dup = true
				break
			}
		}
		if !dup {
			names = append(names, f)
		}
	}
	return names
}

// SetThresholds overrides the status bands
func (c *Coordinator) SetThresholds(th StatusThresholds) {
	c.thresholds = th
}

// Ingest appends the reading to history, classifies it and evaluates its status.
// Missing or non-numeric fields are stored as 0 in history; every such
// recognised feature is reported as a warning.
func (c *Coordinator) Ingest(raw models.Reading, ts time.Time) models.IngestResult {
	c.history.Append(c.project(raw, ts))

	classification, warnings := c.classifier.Classify(raw)
	latest := classification.Clone()
	c.latest = &latest

	if warnings == nil {
		warnings = []models.DataQualityWarning{}
	}

	return models.IngestResult{
		Timestamp:      ts,
		Classification: classification,
		Alerts:         EvaluateStatus(raw, c.thresholds),
		Warnings:       warnings,
		History:        c.history.Snapshot(),
	}
}

// Latest returns the most recent classification, or false before the first reading
func (c *Coordinator) Latest() (models.ClassificationResult, bool) {
	if c.latest == nil {
		return models.ClassificationResult{}, false
	}
	return c.latest.Clone(), true
}

// History returns a snapshot of the history window, oldest first
func (c *Coordinator) History() []models.HistoryPoint {
	return c.history.Snapshot()
}

// Fields returns the history projection fields
func (c *Coordinator) Fields() []string {
	out := make([]string, len(c.fields))
	copy(out, c.fields)
	return out
}

func (c *Coordinator) project(raw models.Reading, ts time.Time) models.HistoryPoint {
	values := make(map[string]float64, len(c.fields))
	for _, f := range c.fields {
		v, ok := raw.Float(f)
		if !ok {
			v = 0
		}
		values[f] = v
	}
	return models.HistoryPoint{Timestamp: ts, Values: values}
}
