package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/kpi"
	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
)

var anaQuiet bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Export claim KPIs and high-cost anomalies from the stored table",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		res, err := p.Analyze(cmd.Context())
		if err != nil {
			return err
		}
		printAnalyze(cmd, res, p.Config().CostColumn)
		return nil
	},
}

func printAnalyze(cmd *cobra.Command, res *pipeline.AnalyzeResult, cost string) {
	for _, r := range res.KPIs {
		okf(cmd, "Wrote %s", r.Path)
		if !anaQuiet {
			printResult(cmd, r)
		}
	}
	if res.Anomalies.Skipped {
		warnf(cmd, "Column %s not found; anomaly detection skipped", cost)
		return
	}
	okf(cmd, "Flagged %d high-cost records → %s", len(res.Anomalies.Rows), res.Anomalies.Path)
}

func printResult(cmd *cobra.Command, r *kpi.Result) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "    %s\n", strings.Join(r.Columns, "\t"))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j := range row {
			cells[j] = r.Format(i, j)
		}
		fmt.Fprintf(w, "    %s\n", strings.Join(cells, "\t"))
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "only list written files")
}
