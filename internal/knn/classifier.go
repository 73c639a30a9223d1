package knn

import (
	"fmt"
	"sort"

	"github.com/SpherenexLabs/npk/internal/models"
)

// DefaultK is the neighbour count used when none is configured
const DefaultK = 3

// NoSuggestion is returned as the justification when there is nothing to vote on
const NoSuggestion = "No suggestion available. Consider adding more training samples."

// Classifier performs k-nearest-neighbour lookups against a reference dataset.
// It holds no mutable state, so one instance can serve every device stream.
//
// Every call scans the whole dataset (O(n) distance computations). That is
// fine for the hand-curated tables this service ships with; a dataset in the
// tens of thousands would want a spatial index instead.
type Classifier struct {
	dataset *Dataset
	k       int
}

type distancePair struct {
	index    int
	distance float64
}

// NewClassifier validates the dataset and neighbour count
func NewClassifier(dataset *Dataset, k int) (*Classifier, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, &models.ConfigError{Component: "classifier", Reason: "reference dataset is empty"}
	}
	if k < 1 {
		return nil, &models.ConfigError{
			Component: "classifier",
			Field:     "k",
			Reason:    fmt.Sprintf("neighbour count %d must be at least 1", k),
		}
	}
	return &Classifier{dataset: dataset, k: k}, nil
}

// K returns the configured neighbour count
func (c *Classifier) K() int {
	return c.k
}

// Table returns the feature table readings are vectorised against
func (c *Classifier) Table() *FeatureTable {
	return c.dataset.table
}

// Dataset returns the reference dataset
func (c *Classifier) Dataset() *Dataset {
	return c.dataset
}

// Classify votes with the configured k
func (c *Classifier) Classify(reading models.Reading) (models.ClassificationResult, []models.DataQualityWarning) {
	return c.ClassifyK(reading, c.k)
}

// ClassifyK vectorises reading and votes among its k nearest exemplars.
// k larger than the dataset takes every exemplar; k below 1 is treated as 1.
func (c *Classifier) ClassifyK(reading models.Reading, k int) (models.ClassificationResult, []models.DataQualityWarning) {
	query, warnings := c.dataset.table.Vectorize(reading)
	return classifyVector(query, c.dataset, k), warnings
}

func classifyVector(query FeatureVector, ds *Dataset, k int) models.ClassificationResult {
	if k < 1 {
		k = 1
	}
	if ds == nil || len(ds.vectors) == 0 {
		return models.ClassificationResult{
			Justification: NoSuggestion,
			Neighbors:     []models.NeighborResult{},
			K:             k,
		}
	}

	neighbors := rankNeighbors(query, ds, k)
	label, justification := vote(neighbors)

	return models.ClassificationResult{
		Label:         label,
		Justification: justification,
		Neighbors:     neighbors,
		K:             k,
	}
}

// rankNeighbors returns the k exemplars closest to query, nearest first.
// Equal distances keep dataset order.
func rankNeighbors(query FeatureVector, ds *Dataset, k int) []models.NeighborResult {
	distances := make([]distancePair, len(ds.vectors))
	for i, vec := range ds.vectors {
		distances[i] = distancePair{index: i, distance: SquaredDistance(query, vec)}
	}
	sort.SliceStable(distances, func(i, j int) bool {
		return distances[i].distance < distances[j].distance
	})

	if k > len(distances) {
		k = len(distances)
	}

	neighbors := make([]models.NeighborResult, k)
	for i := 0; i < k; i++ {
		ex := ds.exemplars[distances[i].index]
		neighbors[i] = models.NeighborResult{
			Index:           distances[i].index,
			Label:           ex.Label,
			Justification:   ex.Justification,
			DistanceSquared: distances[i].distance,
		}
	}
	return neighbors
}

// vote picks the majority label. On equal counts the label seen first in
// neighbour order wins, so ties favour the closer exemplar. The justification
// is that of the nearest neighbour carrying the winning label.
func vote(neighbors []models.NeighborResult) (*string, string) {
	if len(neighbors) == 0 {
		return nil, NoSuggestion
	}

	counts := make(map[string]int)
	var order []string
	for _, n := range neighbors {
		if _, seen := counts[n.Label]; !seen {
			order = append(order, n.Label)
		}
		counts[n.Label]++
	}

	var majority *string
	best := 0
	for _, label := range order {
		if counts[label] > best {
			best = counts[label]
			winner := label
			majority = &winner
		}
	}

	if majority != nil {
		for _, n := range neighbors {
			if n.Label == *majority {
				return majority, n.Justification
			}
		}
	}
	return majority, neighbors[0].Justification
}
