package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

const summarySharedMinOrigins = 2

var (
	summaryOrigins []string
	summaryName    string
	summaryTop     int
	summaryJSON    bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print headline metrics and rankings",
	Long: `Print the headline metrics, the top origins and flags by calls, and the
flags shared by two or more origins.

Flags:
  --origin O   Keep only records from origin O (repeatable)
  --name Q     Keep only flags whose name contains Q (case-insensitive)
  --top N      Length of the rankings (default TOP_N)
  --json       Output in JSON format

Examples:
  fud summary
  fud summary --origin checkout --origin search
  fud summary --name beta --top 5 --json`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

type summaryJSONOutput struct {
	Source      string             `json:"source"`
	Filter      string             `json:"filter"`
	Metrics     metricsJSONOutput  `json:"metrics"`
	TopOrigins  []rankedJSONOutput `json:"top_origins"`
	TopFlags    []rankedJSONOutput `json:"top_flags"`
	SharedFlags []sharedJSONOutput `json:"shared_flags"`
}

type metricsJSONOutput struct {
	Records       int     `json:"records"`
	UniqueFlags   int     `json:"unique_flags"`
	UniqueOrigins int     `json:"unique_origins"`
	TotalCalls    float64 `json:"total_calls"`
}

type rankedJSONOutput struct {
	Key   string  `json:"key"`
	Calls float64 `json:"calls"`
}

type sharedJSONOutput struct {
	Name    string  `json:"name"`
	Origins int     `json:"origins"`
	Calls   float64 `json:"calls"`
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, logCloser, err := setup()
	if err != nil {
		return err
	}
	defer closeLog(logCloser)

	criteria := models.FilterCriteria{Origins: summaryOrigins, NameQuery: summaryName}
	view, err := loadView(cfg.DataPath, criteria)
	if err != nil {
		return fmt.Errorf("failed to load usage data: %w", err)
	}

	top := summaryTop
	if top <= 0 {
		top = cfg.TopN
	}

	out := buildSummary(view, cfg.DataPath, criteria, top)
	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSummary(cmd.OutOrStdout(), out)
	return nil
}

func buildSummary(view *usage.Aggregator, source string, criteria models.FilterCriteria, top int) summaryJSONOutput {
	metrics := view.Metrics()
	out := summaryJSONOutput{
		Source: source,
		Filter: criteria.String(),
		Metrics: metricsJSONOutput{
			Records:       metrics.TotalRecords,
			UniqueFlags:   metrics.UniqueFlagCount,
			UniqueOrigins: metrics.UniqueOriginCount,
			TotalCalls:    metrics.TotalCalls,
		},
		TopOrigins:  rankedOutput(view.TopByOrigin(top)),
		TopFlags:    rankedOutput(view.TopByName(top)),
		SharedFlags: []sharedJSONOutput{},
	}
	for _, f := range view.SharedFlags(summarySharedMinOrigins) {
		out.SharedFlags = append(out.SharedFlags, sharedJSONOutput{
			Name:    f.Name,
			Origins: f.DistinctOriginCount,
			Calls:   f.TotalCalls,
		})
	}
	return out
}

func rankedOutput(entries []models.RankedEntry) []rankedJSONOutput {
	out := make([]rankedJSONOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, rankedJSONOutput{Key: e.Key, Calls: e.Total})
	}
	return out
}

func printSummary(w io.Writer, s summaryJSONOutput) {
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	fmt.Fprintf(w, "Filter: %s\n", s.Filter)
	fmt.Fprintf(w, "Records:        %s\n", components.FormatCount(s.Metrics.Records))
	fmt.Fprintf(w, "Unique flags:   %s\n", components.FormatCount(s.Metrics.UniqueFlags))
	fmt.Fprintf(w, "Unique origins: %s\n", components.FormatCount(s.Metrics.UniqueOrigins))
	fmt.Fprintf(w, "Total calls:    %s\n", components.FormatCalls(s.Metrics.TotalCalls))

	printRanking(w, "Top origins", s.TopOrigins)
	printRanking(w, "Top flags", s.TopFlags)

	fmt.Fprintf(w, "\nShared flags (%d+ origins):\n", summarySharedMinOrigins)
	if len(s.SharedFlags) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, f := range s.SharedFlags {
		fmt.Fprintf(w, "  %-40s %4d origins %14s\n",
			components.Truncate(f.Name, 40), f.Origins, components.FormatCalls(f.Calls))
	}
}

func printRanking(w io.Writer, title string, entries []rankedJSONOutput) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "  %3d. %-40s %14s\n", i+1, components.Truncate(e.Key, 40), components.FormatCalls(e.Calls))
	}
}

func init() {
	summaryCmd.Flags().StringArrayVar(&summaryOrigins, "origin", nil, "keep only this origin (repeatable)")
	summaryCmd.Flags().StringVar(&summaryName, "name", "", "keep only flags whose name contains this text")
	summaryCmd.Flags().IntVar(&summaryTop, "top", 0, "length of the rankings (default TOP_N)")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output in JSON format")
	RootCmd.AddCommand(summaryCmd)
}
