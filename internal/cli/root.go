// Package cli wires the fud command line: the interactive dashboard and the
// scriptable summary and export commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/config"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/loader"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/version"
)

var dataPath string

// RootCmd represents the base command when called without any subcommands.
// It opens the interactive dashboard.
var RootCmd = &cobra.Command{
	Use:   "fud",
	Short: "Terminal dashboard for feature flag usage",
	Long: `fud explores a feature flag usage dataset: which origins call which
flags, and how often.

Without a subcommand it opens the interactive dashboard. The summary and
export commands print or write the same views without a terminal UI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	RootCmd.Version = version.GetVersion()
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "usage data file (overrides USAGE_DATA_PATH)")
}

// loadConfig reads the environment and applies the --data override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	return cfg, nil
}

// setup loads the configuration and points the logger at its destination.
// The returned closer releases the log file, if any.
func setup() (*config.Config, io.Closer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	closer, err := setupLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

func setupLogger(cfg *config.Config) (io.Closer, error) {
	closer, err := logger.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return closer, nil
}

// loadView reads the data file and narrows it to the criteria.
func loadView(path string, criteria models.FilterCriteria) (*usage.Aggregator, error) {
	records, err := loader.LoadFile(path)
	if err != nil {
		return nil, loadError(err)
	}
	agg, err := usage.Load(records)
	if err != nil {
		return nil, loadError(err)
	}
	logger.Debug("dataset loaded", "path", path, "records", agg.Len(), "filter", criteria.String())
	return agg.Filter(criteria), nil
}

// loadError tells a malformed file apart from one that could not be read.
// Loader errors already carry the path.
func loadError(err error) error {
	if usage.IsDataFormatError(err) {
		return fmt.Errorf("malformed data file: %w", err)
	}
	return err
}

func closeLog(c io.Closer) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing log file: %v\n", err)
	}
}
