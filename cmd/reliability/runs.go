package reliability

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
	clearYes  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List suite run history",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all run history on the backend",
	Long: `Delete every recorded run on the backend. This cannot be undone, so
--yes is required.`,
	Args: cobra.NoArgs,
	RunE: clearRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "Output runs as JSON")
	runsClearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deletion")
	runsCmd.AddCommand(runsClearCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	stop := startSpinner("Fetching runs")
	runs, err := newClient().ListRuns(cmd.Context())
	stop()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runsLimit > 0 && len(runs) > runsLimit {
		runs = runs[:runsLimit]
	}

	if runsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	printRuns(os.Stdout, runs)
	return nil
}

func clearRuns(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return errors.New("refusing to delete run history without --yes")
	}
	if err := newClient().ClearRuns(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Run history cleared.")
	return nil
}
