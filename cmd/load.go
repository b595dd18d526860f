package cmd

import (
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace the stored table with the labeled data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		res, err := p.Load(cmd.Context())
		if err != nil {
			return err
		}
		okf(cmd, "Stored %d rows in %s (%s)", res.Rows, res.Table, res.DatabasePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
