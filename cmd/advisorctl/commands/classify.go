package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/SpherenexLabs/npk/internal/aggregator"
	"github.com/SpherenexLabs/npk/internal/knn"
	"github.com/SpherenexLabs/npk/internal/models"
)

type classifyOutput struct {
	Classification models.ClassificationResult `json:"classification"`
	Alerts         []models.StatusAlert        `json:"alerts"`
	Warnings       []models.DataQualityWarning `json:"warnings"`
}

func newClassifyCmd() *cobra.Command {
	var (
		datasetPath string
		k           int
	)

	cmd := &cobra.Command{
		Use:   "classify [reading.json]",
		Short: "Classify one reading and print the suggestion as JSON",
		Long: `Classify a single JSON reading against the reference dataset.
Reads stdin when the argument is "-" or omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			reading, err := readReading(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			dataset, err := loadDataset(datasetPath)
			if err != nil {
				return err
			}

			classifier, err := knn.NewClassifier(dataset, k)
			if err != nil {
				return err
			}

			result, warnings := classifier.Classify(reading)
			if warnings == nil {
				warnings = []models.DataQualityWarning{}
			}

			out, err := json.MarshalIndent(classifyOutput{
				Classification: result,
				Alerts:         aggregator.EvaluateStatus(reading, aggregator.DefaultStatusThresholds()),
				Warnings:       warnings,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file (JSON or YAML); built-in seed when empty")
	cmd.Flags().IntVar(&k, "k", knn.DefaultK, "Number of neighbours")
	return cmd
}

func loadDataset(path string) (*knn.Dataset, error) {
	if path == "" {
		return knn.DefaultDataset(), nil
	}
	return knn.LoadDataset(path)
}

func readReading(stdin io.Reader, path string) (models.Reading, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reading: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var reading models.Reading
	if err := dec.Decode(&reading); err != nil || reading == nil {
		return nil, fmt.Errorf("reading must be a JSON object")
	}
	return reading, nil
}
