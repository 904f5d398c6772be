package reliability

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kamilpajak/reliability/internal/progress"
	"github.com/kamilpajak/reliability/internal/runner"
	"github.com/kamilpajak/reliability/pkg/models"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	runSave bool
	runJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run [suite]",
	Short: "Run a benchmark suite on the backend",
	Long: `Trigger a suite run and show the resulting snapshot. Without a suite
argument the catalog default is used.

Examples:
  reliability run
  reliability run crisis --save
  reliability run all --threshold 0.8`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuite,
}

func init() {
	runCmd.Flags().Float64("threshold", 0, "Threshold recorded with the run (default: stored threshold)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Ask the backend to persist the snapshot")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output the run result as JSON")
}

func runSuite(cmd *cobra.Command, args []string) error {
	t, err := activeThreshold(cmd)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	req := models.SuiteRunRequest{Save: runSave, Threshold: t}
	if len(args) == 1 {
		req.Suite = args[0]
	}

	emitter := progress.NewTextEmitter(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))
	r := runner.New(newClient(), runner.Options{Catalog: catalog})
	res, err := r.Run(cmd.Context(), req, emitter)
	emitter.Close()

	var sf *runner.SoftFailureError
	switch {
	case errors.As(err, &sf):
		fmt.Fprintln(os.Stdout, sf.Message)
		return nil
	case err != nil:
		return err
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run": res.Run, "result": res.Response})
	}
	printRunResult(os.Stdout, res.Response, res.Run, t)
	return nil
}
