package aggregator

import (
	"math"

	"github.com/SpherenexLabs/npk/internal/models"
)

// TrendSummary describes one field over a history snapshot
type TrendSummary struct {
	Field  string  `json:"field"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"` // population
	Delta  float64 `json:"delta"`  // last minus previous
}

// Summarize computes the trend of field over points (oldest first).
// An empty input yields a zero summary.
func Summarize(points []models.HistoryPoint, field string) TrendSummary {
	summary := TrendSummary{Field: field, Count: len(points)}
	if len(points) == 0 {
		return summary
	}

	var sum, sumSq float64
	summary.Min = math.Inf(1)
	summary.Max = math.Inf(-1)
	for _, p := range points {
		v := p.Value(field)
		sum += v
		sumSq += v * v
		summary.Min = math.Min(summary.Min, v)
		summary.Max = math.Max(summary.Max, v)
	}

	n := float64(len(points))
	summary.Mean = sum / n
	variance := sumSq/n - summary.Mean*summary.Mean
	if variance < 0 {
		variance = 0
	}
	summary.StdDev = math.Sqrt(variance)

	if len(points) >= 2 {
		summary.Delta = points[len(points)-1].Value(field) - points[len(points)-2].Value(field)
	}
	return summary
}

// SummarizeAll computes a summary for every field, in the given order
func SummarizeAll(points []models.HistoryPoint, fields []string) []TrendSummary {
	out := make([]TrendSummary, 0, len(fields))
	for _, f := range fields {
		out = append(out, Summarize(points, f))
	}
	return out
}
