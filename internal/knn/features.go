// Package knn implements the nearest-neighbour advisor: feature
// normalisation, vectorisation, the reference dataset and the classifier.
package knn

import (
	"fmt"

	"github.com/SpherenexLabs/npk/internal/models"
)

// FeatureSpec describes how one sensor attribute is normalised
type FeatureSpec struct {
	Name   string  `json:"name" yaml:"name"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"` // 0 means default (1.0)
}

// FeatureVector holds one weighted, normalised component per feature,
// in FeatureTable order
type FeatureVector []float64

// FeatureTable is the validated, ordered set of recognised attributes.
// It is immutable once built and safe to share between goroutines.
type FeatureTable struct {
	specs []FeatureSpec
}

// DefaultFeatureSpecs returns the stock water-chemistry feature set
func DefaultFeatureSpecs() []FeatureSpec {
	return []FeatureSpec{
		{Name: "ph", Min: 0, Max: 14, Weight: 1.2},
		{Name: "tds_ppm", Min: 0, Max: 2000, Weight: 1.0},      // ppm
		{Name: "turbidity_ntu", Min: 0, Max: 100, Weight: 1.0}, // NTU
		{Name: "temp", Min: -5, Max: 60, Weight: 0.6},          // °C
		{Name: "ec", Min: 0, Max: 5000, Weight: 0.8},           // µS/cm
		{Name: "water_pct", Min: 0, Max: 100, Weight: 0.4},
		{Name: "n", Min: 0, Max: 500, Weight: 0.9},
		{Name: "p", Min: 0, Max: 500, Weight: 0.9},
		{Name: "k", Min: 0, Max: 500, Weight: 0.9},
	}
}

// NewFeatureTable validates specs and fixes their order.
func NewFeatureTable(specs []FeatureSpec) (*FeatureTable, error) {
	if len(specs) == 0 {
		return nil, &models.ConfigError{Component: "features", Reason: "no features defined"}
	}

	seen := make(map[string]bool, len(specs))
	validated := make([]FeatureSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &models.ConfigError{Component: "features", Reason: "feature with empty name"}
		}
		if seen[spec.Name] {
			return nil, &models.ConfigError{Component: "features", Field: spec.Name, Reason: "duplicate feature"}
		}
		seen[spec.Name] = true

		if !(spec.Min < spec.Max) {
			return nil, &models.ConfigError{
				Component: "features",
				Field:     spec.Name,
				Reason:    fmt.Sprintf("range [%g, %g] is degenerate (min must be below max)", spec.Min, spec.Max),
			}
		}
		if spec.Weight < 0 {
			return nil, &models.ConfigError{
				Component: "features",
				Field:     spec.Name,
				Reason:    fmt.Sprintf("weight %g must be positive", spec.Weight),
			}
		}
		if spec.Weight == 0 {
			spec.Weight = 1.0
		}
		validated = append(validated, spec)
	}

	return &FeatureTable{specs: validated}, nil
}

// DefaultFeatureTable builds the table from DefaultFeatureSpecs
func DefaultFeatureTable() *FeatureTable {
	table, err := NewFeatureTable(DefaultFeatureSpecs())
	if err != nil {
		panic(err) // stock specs are static
	}
	return table
}

// Specs returns a copy of the validated specs in vector order
func (t *FeatureTable) Specs() []FeatureSpec {
	out := make([]FeatureSpec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Names returns feature names in vector order
func (t *FeatureTable) Names() []string {
	names := make([]string, len(t.specs))
	for i, spec := range t.specs {
		names[i] = spec.Name
	}
	return names
}

// Len returns the vector length
func (t *FeatureTable) Len() int {
	return len(t.specs)
}

// Normalize clamps value into [Min, Max] and maps it linearly onto [0, 1].
// A value that is absent or not numeric maps to 0, the low end of the range.
func Normalize(value float64, ok bool, spec FeatureSpec) float64 {
	if !ok {
		return 0
	}
	if value < spec.Min {
		value = spec.Min
	}
	if value > spec.Max {
		value = spec.Max
	}
	return (value - spec.Min) / (spec.Max - spec.Min)
}

// Vectorize projects a reading onto the table. Every recognised attribute
// that had to be defaulted produces one warning; unrecognised keys are ignored.
func (t *FeatureTable) Vectorize(reading models.Reading) (FeatureVector, []models.DataQualityWarning) {
	vec := make(FeatureVector, len(t.specs))
	var warnings []models.DataQualityWarning

	for i, spec := range t.specs {
		value, ok := reading.Float(spec.Name)
		if !ok {
			reason := models.ReasonMissing
			if reading.Has(spec.Name) && reading[spec.Name] != nil {
				reason = models.ReasonInvalid
			}
			warnings = append(warnings, models.DataQualityWarning{Field: spec.Name, Reason: reason})
		}
		vec[i] = Normalize(value, ok, spec) * spec.Weight
	}

	return vec, warnings
}

// SquaredDistance returns the squared Euclidean distance between a and b.
// Vectors built from the same table always share a length; if they do not,
// only the common prefix is compared.
func SquaredDistance(a, b FeatureVector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
