package knn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpherenexLabs/npk/internal/models"
)

func TestNewDataset_Empty(t *testing.T) {
	_, err := NewDataset(DefaultFeatureTable(), nil)

	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dataset", cfgErr.Component)
}

func TestNewDataset_MissingLabel(t *testing.T) {
	_, err := NewDataset(DefaultFeatureTable(), []models.Exemplar{{Attributes: models.Reading{"ph": 7}}})

	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "exemplars[0]", cfgErr.Field)
}

func TestNewDataset_VectorsMatchOnDemand(t *testing.T) {
	ds := DefaultDataset()
	for i := 0; i < ds.Len(); i++ {
		vec, _ := ds.Table().Vectorize(ds.Exemplar(i).Attributes)
		assert.Equal(t, vec, ds.vectors[i])
	}
}

func TestDataset_ExemplarIsCopy(t *testing.T) {
	ds := DefaultDataset()
	ex := ds.Exemplar(0)
	ex.Attributes["ph"] = 1.0

	assert.Equal(t, 6.0, ds.Exemplar(0).Attributes["ph"])
}

func TestDataset_Labels(t *testing.T) {
	labels := DefaultDataset().Labels()
	assert.Len(t, labels, 10)
	assert.Equal(t, "OK", labels[0])
}

func TestLoadDataset_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	content := `
features:
  - name: ph
    min: 0
    max: 14
  - name: ec
    min: 0
    max: 5000
    weight: 0.5
exemplars:
  - label: Acidic
    suggestion: Raise pH
    attributes:
      ph: 5
      ec: 1000
  - label: Neutral
    suggestion: Hold
    attributes:
      ph: 7.0
      ec: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"ph", "ec"}, ds.Table().Names())
	assert.Equal(t, 1.0, ds.Table().Specs()[0].Weight)

	c, err := NewClassifier(ds, 1)
	require.NoError(t, err)
	result, _ := c.Classify(models.Reading{"ph": 5.1, "ec": 1000})
	assert.Equal(t, "Acidic", result.LabelOr(""))
}

func TestLoadDataset_JSONUsesDefaultFeatures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	content := `{"exemplars":[{"label":"OK","suggestion":"fine","attributes":{"ph":6.5,"tds_ppm":300}}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	ds, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 9, ds.Table().Len())
	assert.Equal(t, "fine", ds.Exemplar(0).Justification)
}

func TestLoadDataset_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDataset(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadDataset(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yml")
	require.NoError(t, os.WriteFile(empty, []byte("exemplars: []\n"), 0644))
	_, err = LoadDataset(empty)
	var cfgErr *models.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	degenerate := filepath.Join(dir, "degenerate.yml")
	require.NoError(t, os.WriteFile(degenerate, []byte("features:\n  - {name: ph, min: 3, max: 3}\nexemplars:\n  - {label: A, attributes: {ph: 3}}\n"), 0644))
	_, err = LoadDataset(degenerate)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestWriteSampleDataset_RoundTrip(t *testing.T) {
	for _, name := range []string{"seed.json", "seed.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteSampleDataset(path))

			ds, err := LoadDataset(path)
			require.NoError(t, err)
			assert.Equal(t, DefaultDataset().Labels(), ds.Labels())

			want := DefaultDataset()
			for i := 0; i < ds.Len(); i++ {
				assert.InDeltaSlice(t, want.vectors[i], ds.vectors[i], 1e-12)
			}
		})
	}
}
