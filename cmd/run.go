package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
)

var (
	runCharts bool
	runTrain  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run clean, load and analyze in order (optionally train and chart)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		res, err := p.Run(cmd.Context(), pipeline.RunOptions{Charts: runCharts, Train: runTrain})
		if res != nil && res.Clean != nil {
			printClean(cmd, res.Clean)
		}
		if res != nil && res.Load != nil {
			okf(cmd, "Stored %d rows in %s (%s)", res.Load.Rows, res.Load.Table, res.Load.DatabasePath)
		}
		if res != nil && res.Analyze != nil {
			printAnalyze(cmd, res.Analyze, p.Config().CostColumn)
		}
		if res != nil && res.Train != nil {
			printTrain(cmd, res.Train)
		}
		if res != nil && res.Charts != nil {
			printCharts(cmd, res.Charts)
		}
		if err != nil {
			return err
		}
		okf(cmd, "Run %s complete", res.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runCharts, "charts", false, "render KPI charts after analysis")
	runCmd.Flags().BoolVar(&runTrain, "train", false, "train the classifier after analysis")
}
