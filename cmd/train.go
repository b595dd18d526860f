package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
	"github.com/KaramelBytes/claimvision-cli/internal/schema"
)

var (
	trainTrees    int
	trainMaxDepth int
	trainSeed     int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the claim classifier on the labeled data file",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("trees") {
			c.Trees = trainTrees
		}
		if f.Changed("max-depth") {
			c.MaxDepth = trainMaxDepth
		}
		if f.Changed("seed") {
			c.Seed = trainSeed
		}
		if err := c.Validate(); err != nil {
			return err
		}
		p, flush, err := newPipeline()
		if err != nil {
			return err
		}
		defer flush()
		res, err := p.Train()
		if err != nil {
			return err
		}
		printTrain(cmd, res)
		return nil
	},
}

func printTrain(cmd *cobra.Command, res *pipeline.TrainResult) {
	okf(cmd, "Saved model to %s", res.Path)
	fmt.Fprint(cmd.OutOrStdout(), res.Artifact.Metrics.Report(schema.Claim.Labels))
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().IntVar(&trainTrees, "trees", 100, "number of trees (overrides config)")
	trainCmd.Flags().IntVar(&trainMaxDepth, "max-depth", 0, "maximum tree depth, 0 = unlimited (overrides config)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "random seed (overrides config)")
}
