package reliability

import (
	"fmt"
	"strconv"

	"github.com/kamilpajak/reliability/pkg/scoring"
	"github.com/spf13/cobra"
)

var thresholdCmd = &cobra.Command{
	Use:   "threshold",
	Short: "Show or change the pass/fail threshold",
	Long: `Show or change the threshold used to classify benchmarks. A score passes
when it is greater than or equal to the threshold. Edited values are clamped
into [0.1, 1.0].`,
	Args: cobra.NoArgs,
	RunE: getThreshold,
}

var thresholdGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored threshold",
	Args:  cobra.NoArgs,
	RunE:  getThreshold,
}

var thresholdSetCmd = &cobra.Command{
	Use:   "set <value>",
	Short: "Store a new threshold",
	Args:  cobra.ExactArgs(1),
	RunE:  setThreshold,
}

func init() {
	thresholdCmd.AddCommand(thresholdGetCmd)
	thresholdCmd.AddCommand(thresholdSetCmd)
}

func getThreshold(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), scoring.FormatThreshold(thresholdStore().Get()))
	return nil
}

func setThreshold(cmd *cobra.Command, args []string) error {
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", args[0], err)
	}
	stored := thresholdStore().Edit(v)
	if stored != v {
		fmt.Fprintf(cmd.ErrOrStderr(), "Clamped %s to %s\n", args[0], scoring.FormatThreshold(stored))
	}
	fmt.Fprintln(cmd.OutOrStdout(), scoring.FormatThreshold(stored))
	return nil
}
