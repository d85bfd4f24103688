// Command limsim simulates genotypes and a heritable trait, then runs a
// mixed-model association scan over every marker.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "limsim",
	Short: "Trait simulation and mixed-model association scanning",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
