package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean and label the raw data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		res, err := p.Clean()
		if err != nil {
			return err
		}
		printClean(cmd, res)
		return nil
	},
}

func printClean(cmd *cobra.Command, res *pipeline.CleanResult) {
	r := res.Clean
	okf(cmd, "Cleaned %d rows → %d rows (%d dropped for a missing target)", r.InputRows, r.OutputRows, r.Dropped)
	cols := make([]string, 0, len(r.Filled))
	for c := range r.Filled {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		okf(cmd, "  %s: %d missing filled with median %g", c, r.Filled[c], r.Medians[c])
	}
	if !r.TargetPresent {
		warnf(cmd, "Target column not found; no rows dropped")
	}
	for _, c := range res.Normalize.Skipped {
		warnf(cmd, "Column %s not found; labels skipped", c)
	}
	for c, n := range res.Normalize.Unmapped {
		warnf(cmd, "Column %s: %d codes outside the label vocabulary set to missing", c, n)
	}
	okf(cmd, "Wrote labeled data to %s", res.Path)
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
