package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/analysis"
	"github.com/KaramelBytes/claimvision-cli/internal/utils"
)

var (
	insSampleRows int
	insGroupBy    string
	insOutput     string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the raw data file (types, missing values, statistics)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()

		opt := analysis.DefaultOptions()
		if insSampleRows > 0 {
			opt.SampleRows = insSampleRows
		}
		opt.GroupBy = p.Config().TargetColumn
		if cmd.Flags().Changed("group-by") {
			opt.GroupBy = insGroupBy
		}
		rep, err := p.Inspect(opt)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if insOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.EnsureParentDir(insOutput); err != nil {
			return fmt.Errorf("ensure dir: %w", err)
		}
		if err := utils.SafeWriteFile(insOutput, []byte(md)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		okf(cmd, "Wrote summary to %s", insOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of head rows to include")
	inspectCmd.Flags().StringVar(&insGroupBy, "group-by", "", "column whose groups get numeric means (default: target column, empty to disable)")
	inspectCmd.Flags().StringVarP(&insOutput, "output", "o", "", "write the summary to a file instead of stdout")
}
