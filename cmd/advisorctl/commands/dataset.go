package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SpherenexLabs/npk/internal/knn"
)

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Validate or initialise reference dataset files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <path>",
		Short: "Check that a dataset file loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := knn.LoadDataset(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Dataset OK: %d exemplars, %d features\n", ds.Len(), ds.Table().Len())
			fmt.Fprintf(w, "Features: %s\n", strings.Join(ds.Table().Names(), ", "))
			fmt.Fprintf(w, "Labels:   %s\n", strings.Join(ds.Labels(), ", "))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the built-in seed dataset (YAML or JSON by extension)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := knn.WriteSampleDataset(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote seed dataset to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
