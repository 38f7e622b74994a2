package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

var (
	exportOrigins []string
	exportName    string
	exportSort    string
	exportAsc     bool
	exportFormat  string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered, sorted records to CSV or SQLite",
	Long: `Write the filtered records, sorted by one column, to a CSV file or a
SQLite snapshot. Without -o the file lands in EXPORT_DIR under its default
name (flags_usage_filtered.csv or flags_usage_snapshot.db).

Examples:
  fud export
  fud export --origin checkout --sort name --asc -o checkout.csv
  fud export --format sqlite -o snapshot.db`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	field, err := models.ParseSortField(exportSort)
	if err != nil {
		return err
	}
	order := models.Descending
	if exportAsc {
		order = models.Ascending
	}

	cfg, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer closeLog(logCloser)

	criteria := models.FilterCriteria{Origins: exportOrigins, NameQuery: exportName}
	view, err := loadView(cfg.DataPath, criteria)
	if err != nil {
		return fmt.Errorf("failed to load usage data: %w", err)
	}

	path := exportOutput
	if path == "" {
		if err := cfg.EnsureExportDir(); err != nil {
			return err
		}
		path = filepath.Join(cfg.ExportDir, format.DefaultName())
	}

	records := view.Sorted(field, order)
	info := export.SnapshotInfo{
		SessionID: uuid.NewString(),
		Source:    cfg.DataPath,
		Filter:    criteria,
	}
	if err := export.ToFile(format, path, records, info); err != nil {
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	logger.Info("view exported", "path", path, "format", format.String(), "records", len(records))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), path)
	return nil
}

func init() {
	exportCmd.Flags().StringArrayVar(&exportOrigins, "origin", nil, "keep only this origin (repeatable)")
	exportCmd.Flags().StringVar(&exportName, "name", "", "keep only flags whose name contains this text")
	exportCmd.Flags().StringVar(&exportSort, "sort", "sum", "sort column: sum, name or origin")
	exportCmd.Flags().BoolVar(&exportAsc, "asc", false, "sort ascending instead of descending")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or sqlite")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default EXPORT_DIR/<default name>)")
	RootCmd.AddCommand(exportCmd)
}
