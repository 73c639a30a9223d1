// Package aggregator holds the per-device ingestion state: the bounded
// history window, the coordinator that feeds it, and the status and trend
// helpers derived from it.
package aggregator

import (
	"fmt"

	"github.com/SpherenexLabs/npk/internal/models"
)

// DefaultHistoryCapacity matches the chart window of the dashboard
const DefaultHistoryCapacity = 50

// HistoryBuffer is a fixed-capacity FIFO of history points backed by a ring.
// When full, appending evicts the oldest point.
// Not safe for concurrent use; the owning service serialises access.
type HistoryBuffer struct {
	points []models.HistoryPoint
	size   int
	index  int // next write position
	count  int
}

// NewHistoryBuffer creates a buffer holding at most capacity points
func NewHistoryBuffer(capacity int) (*HistoryBuffer, error) {
	if capacity < 1 {
		return nil, &models.ConfigError{
			Component: "history",
			Field:     "capacity",
			Reason:    fmt.Sprintf("capacity %d must be at least 1", capacity),
		}
	}
	return &HistoryBuffer{
		points: make([]models.HistoryPoint, capacity),
		size:   capacity,
	}, nil
}

// Append adds a point, evicting the oldest when the buffer is full
func (h *HistoryBuffer) Append(point models.HistoryPoint) {
	h.points[h.index] = point.Clone()
	h.index = (h.index + 1) % h.size
	if h.count < h.size {
		h.count++
	}
}

// Snapshot returns an independent copy of the buffer, oldest first
func (h *HistoryBuffer) Snapshot() []models.HistoryPoint {
	out := make([]models.HistoryPoint, h.count)
	start := (h.index - h.count + h.size) % h.size
	for i := 0; i < h.count; i++ {
		out[i] = h.points[(start+i)%h.size].Clone()
	}
	return out
}

// Len returns the number of points currently held
func (h *HistoryBuffer) Len() int {
	return h.count
}

// Cap returns the fixed capacity
func (h *HistoryBuffer) Cap() int {
	return h.size
}
