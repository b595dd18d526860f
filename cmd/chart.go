package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/chart"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render KPI bar charts as PNG files",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		results, err := p.Charts()
		if err != nil {
			return err
		}
		printCharts(cmd, results)
		return nil
	},
}

func printCharts(cmd *cobra.Command, results []chart.Result) {
	for _, r := range results {
		if r.Skipped {
			warnf(cmd, "Skipped %s: %s", r.Spec.Output, r.Reason)
			continue
		}
		okf(cmd, "Rendered %s", r.Path)
	}
}

func init() {
	rootCmd.AddCommand(chartCmd)
}
