package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the advisorctl command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "advisorctl",
		Short: "Offline tools for the NPK water advisor",
		Long: `advisorctl classifies readings against a reference dataset
and validates or initialises dataset files, without a running service.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newDatasetCmd())
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
