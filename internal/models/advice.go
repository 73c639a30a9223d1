package models

import "time"

// Exemplar is a labelled reference sample used for nearest-neighbour lookups
type Exemplar struct {
	Attributes    Reading `json:"attributes" yaml:"attributes"`
	Label         string  `json:"label" yaml:"label"`
	Justification string  `json:"suggestion" yaml:"suggestion"`
}

// NeighborResult pairs a reference exemplar with its squared distance to the query
type NeighborResult struct {
	Index           int     `json:"index"` // position in the reference dataset
	Label           string  `json:"label"`
	Justification   string  `json:"justification"`
	DistanceSquared float64 `json:"distance_squared"`
}

// ClassificationResult is the outcome of one k-NN vote
type ClassificationResult struct {
	Label         *string          `json:"label"` // nil when undeterminable
	Justification string           `json:"justification"`
	Neighbors     []NeighborResult `json:"neighbors"`
	K             int              `json:"k"`
}

// LabelOr returns the label, or fallback when there is none
func (c ClassificationResult) LabelOr(fallback string) string {
	if c.Label == nil {
		return fallback
	}
	return *c.Label
}

// Clone returns a copy that shares no slices or pointers with c
func (c ClassificationResult) Clone() ClassificationResult {
	out := c
	if c.Label != nil {
		label := *c.Label
		out.Label = &label
	}
	if c.Neighbors != nil {
		out.Neighbors = make([]NeighborResult, len(c.Neighbors))
		copy(out.Neighbors, c.Neighbors)
	}
	return out
}

// StatusAlert flags a reading outside its safe operating band
type StatusAlert struct {
	Field    string  `json:"field"`
	Value    float64 `json:"value"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
}

// IngestResult is everything produced for one ingested reading
type IngestResult struct {
	ResultID       string               `json:"result_id"`
	DeviceID       string               `json:"device_id"`
	Timestamp      time.Time            `json:"timestamp"`
	Classification ClassificationResult `json:"classification"`
	Alerts         []StatusAlert        `json:"alerts"`
	Warnings       []DataQualityWarning `json:"warnings"`
	History        []HistoryPoint       `json:"history"`
}
