package knn

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

func TestNormalize_WithinRange(t *testing.T) {
	spec := FeatureSpec{Name: "ph", Min: 0, Max: 14, Weight: 1}

	prev := -1.0
	for v := 0.0; v <= 14.0; v += 0.25 {
		n := Normalize(v, true, spec)
		assert.GreaterOrEqual(t, n, 0.0)
		assert.LessOrEqual(t, n, 1.0)
		assert.GreaterOrEqual(t, n, prev, "normalize must be monotonic at %v", v)
		prev = n
	}

	assert.InDelta(t, 0.5, Normalize(7, true, spec), 1e-12)
}

func TestNormalize_Clamps(t *testing.T) {
	spec := FeatureSpec{Name: "temp", Min: -5, Max: 60, Weight: 1}

	assert.Equal(t, 0.0, Normalize(-40, true, spec))
	assert.Equal(t, 1.0, Normalize(200, true, spec))
	assert.InDelta(t, 5.0/65.0, Normalize(0, true, spec), 1e-12)
}

func TestNormalize_MissingIsZero(t *testing.T) {
	for _, spec := range DefaultFeatureSpecs() {
		assert.Equal(t, 0.0, Normalize(123, false, spec), spec.Name)
	}
}

func TestNewFeatureTable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		specs []FeatureSpec
		field string
	}{
		{"empty table", nil, ""},
		{"degenerate range", []FeatureSpec{{Name: "ph", Min: 7, Max: 7}}, "ph"},
		{"inverted range", []FeatureSpec{{Name: "ph", Min: 14, Max: 0}}, "ph"},
		{"negative weight", []FeatureSpec{{Name: "ec", Min: 0, Max: 1, Weight: -1}}, "ec"},
		{"duplicate name", []FeatureSpec{{Name: "n", Min: 0, Max: 1}, {Name: "n", Min: 0, Max: 2}}, "n"},
		{"empty name", []FeatureSpec{{Name: "", Min: 0, Max: 1}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewFeatureTable(tt.specs)
			require.Error(t, err)
			assert.Nil(t, table)

			var cfgErr *models.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "features", cfgErr.Component)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNewFeatureTable_DefaultsWeight(t *testing.T) {
	table, err := NewFeatureTable([]FeatureSpec{{Name: "ph", Min: 0, Max: 14}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, table.Specs()[0].Weight)
}

func TestFeatureTable_OrderIsDeclarationOrder(t *testing.T) {
	table := DefaultFeatureTable()
	assert.Equal(t,
		[]string{"ph", "tds_ppm", "turbidity_ntu", "temp", "ec", "water_pct", "n", "p", "k"},
		table.Names())
	assert.Equal(t, 9, table.Len())
}

func TestVectorize_ComponentsWithinWeight(t *testing.T) {
	table := DefaultFeatureTable()
	reading := models.Reading{
		"ph": 20.0, "tds_ppm": -3, "turbidity_ntu": "4.5", "temp": 25,
		"ec": 1200.0, "water_pct": 65.0, "n": 20.0, "p": 10.0, "k": 25.0,
		"hum": 55.0, // not a feature
	}

	vec, warnings := table.Vectorize(reading)
	require.Len(t, vec, table.Len())
	assert.Empty(t, warnings)

	for i, spec := range table.Specs() {
		assert.GreaterOrEqual(t, vec[i], 0.0, spec.Name)
		assert.LessOrEqual(t, vec[i], spec.Weight+1e-12, spec.Name)
	}
	assert.InDelta(t, 1.2, vec[0], 1e-12, "ph clamps to max then weights")
	assert.InDelta(t, 0.045, vec[2], 1e-12, "numeric strings are accepted")
}

func TestVectorize_MissingAndInvalid(t *testing.T) {
	table := DefaultFeatureTable()
	reading := models.Reading{
		"tds_ppm": "n/a", "turbidity_ntu": nil, "temp": math.NaN(), "ec": true,
		"water_pct": 65.0, "n": 20.0, "p": 10.0, "k": 25.0,
	}

	vec, warnings := table.Vectorize(reading)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, vec[i], table.Names()[i])
	}

	assert.Equal(t, []models.DataQualityWarning{
		{Field: "ph", Reason: models.ReasonMissing},
		{Field: "tds_ppm", Reason: models.ReasonInvalid},
		{Field: "turbidity_ntu", Reason: models.ReasonMissing},
		{Field: "temp", Reason: models.ReasonInvalid},
		{Field: "ec", Reason: models.ReasonInvalid},
	}, warnings)
}

func TestSquaredDistance(t *testing.T) {
	a := FeatureVector{0.1, 0.5, 1.2}
	b := FeatureVector{0.4, 0.1, 0.2}

	assert.Equal(t, 0.0, SquaredDistance(a, a))
	assert.Equal(t, SquaredDistance(a, b), SquaredDistance(b, a))
	assert.InDelta(t, 0.09+0.16+1.0, SquaredDistance(a, b), 1e-12)
	assert.Greater(t, SquaredDistance(a, b), 0.0)
}

func TestSquaredDistance_LengthMismatch(t *testing.T) {
	assert.NotPanics(t, func() {
		d := SquaredDistance(FeatureVector{1, 2, 3}, FeatureVector{1, 2})
		assert.Equal(t, 0.0, d)
	})
}
