package knn

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SpherenexLabs/npk/internal/models"
)

// DatasetFile is the on-disk shape of a reference dataset artifact.
// Features may be omitted, in which case the stock table is used.
type DatasetFile struct {
	Features  []FeatureSpec     `json:"features,omitempty" yaml:"features,omitempty"`
	Exemplars []models.Exemplar `json:"exemplars" yaml:"exemplars"`
}

// Dataset is a validated, ordered set of exemplars with their vectors
// precomputed against a feature table. Read-only after construction.
type Dataset struct {
	table     *FeatureTable
	exemplars []models.Exemplar
	vectors   []FeatureVector
}

// NewDataset validates exemplars and vectorises each one against table
func NewDataset(table *FeatureTable, exemplars []models.Exemplar) (*Dataset, error) {
	if table == nil {
		return nil, &models.ConfigError{Component: "dataset", Reason: "feature table is required"}
	}
	if len(exemplars) == 0 {
		return nil, &models.ConfigError{Component: "dataset", Reason: "reference dataset is empty"}
	}

	ds := &Dataset{
		table:     table,
		exemplars: make([]models.Exemplar, len(exemplars)),
		vectors:   make([]FeatureVector, len(exemplars)),
	}

	for i, ex := range exemplars {
		if strings.TrimSpace(ex.Label) == "" {
			return nil, &models.ConfigError{
				Component: "dataset",
				Field:     fmt.Sprintf("exemplars[%d]", i),
				Reason:    "missing label",
			}
		}

		vec, warnings := table.Vectorize(ex.Attributes)
		if len(warnings) > 0 {
			log.Printf("Dataset: exemplar %d (%s) defaults %d attribute(s): %v", i, ex.Label, len(warnings), warnings)
		}

		ds.exemplars[i] = copyExemplar(ex)
		ds.vectors[i] = vec
	}

	return ds, nil
}

// DefaultDataset builds the seed dataset against the stock feature table
func DefaultDataset() *Dataset {
	ds, err := NewDataset(DefaultFeatureTable(), DefaultExemplars())
	if err != nil {
		panic(err) // seed rows are static
	}
	return ds
}

// LoadDataset reads a dataset artifact. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var file DatasetFile
	if isYAML(path) {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	specs := file.Features
	if len(specs) == 0 {
		specs = DefaultFeatureSpecs()
	}
	table, err := NewFeatureTable(specs)
	if err != nil {
		return nil, err
	}

	ds, err := NewDataset(table, file.Exemplars)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded dataset from %s: %d exemplars, %d features", path, ds.Len(), table.Len())
	return ds, nil
}

// WriteDataset writes a dataset artifact in the format implied by path.
func WriteDataset(path string, file DatasetFile) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}
	return nil
}

// WriteSampleDataset writes the built-in seed dataset and stock features to path
func WriteSampleDataset(path string) error {
	if err := WriteDataset(path, DatasetFile{
		Features:  DefaultFeatureSpecs(),
		Exemplars: DefaultExemplars(),
	}); err != nil {
		return err
	}

	log.Printf("Created sample dataset at %s", path)
	return nil
}

// Table returns the feature table the dataset was vectorised against
func (d *Dataset) Table() *FeatureTable {
	return d.table
}

// Len returns the number of exemplars
func (d *Dataset) Len() int {
	return len(d.exemplars)
}

// Exemplar returns the i-th exemplar
func (d *Dataset) Exemplar(i int) models.Exemplar {
	return copyExemplar(d.exemplars[i])
}

// Labels returns the distinct labels in first-seen order
func (d *Dataset) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, ex := range d.exemplars {
		if !seen[ex.Label] {
			seen[ex.Label] = true
			labels = append(labels, ex.Label)
		}
	}
	return labels
}

func copyExemplar(ex models.Exemplar) models.Exemplar {
	attrs := make(models.Reading, len(ex.Attributes))
	for k, v := range ex.Attributes {
		attrs[k] = v
	}
	ex.Attributes = attrs
	return ex
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
