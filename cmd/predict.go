package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/claimvision-cli/internal/model"
	"github.com/KaramelBytes/claimvision-cli/internal/pipeline"
	"github.com/KaramelBytes/claimvision-cli/internal/schema"
)

var (
	predModel  string
	predValues = map[string]*string{}
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict whether a single record leads to a claim",
	Example: `  claimvision predict --age 45 --sex male --bmi 31.2 --children 2 \
    --smoker smoker --region southeast --charges 42000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := predModel
		if path == "" {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			path = c.ModelPath
		}
		art, err := model.Load(path)
		if err != nil {
			return err
		}
		record := map[string]string{}
		for _, f := range schema.FeatureColumns {
			if !cmd.Flags().Changed(f) {
				return fmt.Errorf("--%s is required", f)
			}
			record[f] = *predValues[f]
		}
		pred, err := pipeline.Predict(art, record)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Prediction: %s\nClaim probability: %.2f%%\n", pred.Label(), pred.Probability*100)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predModel, "model", "", "model artifact (default: model_path from config)")
	usage := map[string]string{
		schema.ColAge:      "age in years",
		schema.ColSex:      "female|male (or 0|1)",
		schema.ColBMI:      "body mass index",
		schema.ColChildren: "number of children",
		schema.ColSmoker:   "non-smoker|smoker (or 0|1)",
		schema.ColRegion:   "northeast|northwest|southeast|southwest (or 0-3)",
		schema.ColCharges:  "medical charges",
	}
	for _, f := range schema.FeatureColumns {
		v := new(string)
		predValues[f] = v
		predictCmd.Flags().StringVar(v, f, "", usage[f])
	}
}
