// Package reliability implements the reliability command-line interface.
package reliability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/kamilpajak/reliability/internal/backend"
	"github.com/kamilpajak/reliability/internal/config"
	"github.com/kamilpajak/reliability/internal/suites"
	"github.com/kamilpajak/reliability/internal/threshold"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	noColor  bool
	backendF string
	stateDir string

	v          *viper.Viper
	cfg        *config.Config
	thresholds *threshold.Store
	closeKV    func() error
)

var rootCmd = &cobra.Command{
	Use:   "reliability",
	Short: "Benchmark reliability dashboard and suite runner",
	Long: `Reliability fetches benchmark snapshots from the evaluation backend,
classifies them against a pass/fail threshold and triggers suite runs.

The threshold is kept in a local state directory and shared by every command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeKV != nil {
			_ = closeKV()
			thresholds, closeKV = nil, nil
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&backendF, "backend", "", "Evaluation backend URL (default http://localhost:8000)")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&stateDir, "state-dir", defaultStateDir(), "Directory holding the local threshold store")

	rootCmd.AddCommand(benchmarksCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(suitesCmd)
	rootCmd.AddCommand(thresholdCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reliability"
	}
	return filepath.Join(home, ".reliability")
}

func setup(cmd *cobra.Command, args []string) error {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	var err error
	v, err = config.New(cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("backend_url", cmd.Flags().Lookup("backend")); err != nil {
		return err
	}
	if cmd.Flags().Changed("state-dir") || v.GetString("threshold_path") == "" {
		v.Set("threshold_path", stateDir)
	}
	cfg, err = config.Load(v)
	return err
}

func newClient() *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
	})
}

// thresholdStore opens the local store on first use. An unusable state
// directory degrades to the default threshold.
func thresholdStore() *threshold.Store {
	if thresholds == nil {
		thresholds, closeKV = threshold.Open(threshold.BadgerConfig{Path: cfg.ThresholdPath, SyncWrites: true}, nil)
	}
	return thresholds
}

// activeThreshold returns the --threshold flag when given, else the stored
// value.
func activeThreshold(cmd *cobra.Command) (float64, error) {
	if f := cmd.Flags().Lookup("threshold"); f != nil && f.Changed {
		t, err := cmd.Flags().GetFloat64("threshold")
		if err != nil {
			return 0, err
		}
		if t <= 0 || t > 1 {
			return 0, fmt.Errorf("threshold must be in (0, 1], got %v", t)
		}
		return t, nil
	}
	return thresholdStore().Get(), nil
}

func loadCatalog() (*suites.Catalog, error) {
	if cfg.SuitesFile == "" {
		return suites.Default(), nil
	}
	return suites.Load(cfg.SuitesFile)
}
