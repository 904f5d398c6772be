package reliability

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/kamilpajak/reliability/internal/snapshot"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var benchmarksJSON bool

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Show the latest benchmark snapshot",
	Long: `Fetch the latest benchmark snapshot from the backend and classify every
benchmark against the threshold.

Examples:
  reliability benchmarks
  reliability benchmarks --threshold 0.9
  reliability benchmarks --json`,
	Args: cobra.NoArgs,
	RunE: runBenchmarks,
}

func init() {
	benchmarksCmd.Flags().Float64("threshold", 0, "Override the stored threshold for this view")
	benchmarksCmd.Flags().BoolVar(&benchmarksJSON, "json", false, "Output the view as JSON")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	t, err := activeThreshold(cmd)
	if err != nil {
		return err
	}

	store := snapshot.NewStore()
	stop := startSpinner("Fetching benchmarks")
	_, err = store.Refresh(cmd.Context(), newClient())
	stop()
	if err != nil {
		return fmt.Errorf("failed to fetch benchmarks: %w", err)
	}

	view := store.View(t)
	if benchmarksJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	printBenchmarks(os.Stdout, view)
	return nil
}

// startSpinner shows a spinner on stderr when it is a terminal and returns
// the function that stops it.
func startSpinner(msg string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
