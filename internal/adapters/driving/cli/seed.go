package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data into the store",
	Long: `Load documents and relations from a YAML fixture. Without --file the
built-in demo company is loaded. Records are written by id, so seeding
twice overwrites rather than duplicates.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Fixture file (default: built-in demo)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if seedService == nil {
		return errors.New("seed service not configured")
	}

	n, err := seedService.Seed(cmd.Context(), seedFile)
	if err != nil {
		return fmt.Errorf("failed to seed after %d records: %w", n, err)
	}

	source := seedFile
	if source == "" {
		source = "demo fixture"
	}
	cmd.Printf("Seeded %d records from %s\n", n, source)
	return nil
}
