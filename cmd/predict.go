package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/co2cast/co2cast/config"
	"github.com/co2cast/co2cast/core/model"
	"github.com/co2cast/co2cast/core/pipeline"
	"github.com/co2cast/co2cast/infra/logger"
	"github.com/co2cast/co2cast/infra/store"
)

var (
	predictYear    int
	predictExplain bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a one-shot prediction without starting the server",
	RunE:  predictOnce,
}

func init() {
	predictCmd.Flags().IntVar(&predictYear, "year", 0, "year to predict (required)")
	predictCmd.Flags().BoolVar(&predictExplain, "explain", false, "include feature attribution")
	_ = predictCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(predictCmd)
}

func predictOnce(cmd *cobra.Command, args []string) error {
	if !model.YearInRange(predictYear) {
		return fmt.Errorf("year %d outside supported range [%d, %d]", predictYear, model.MinYear, model.MaxYear)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	artifacts, err := store.Load(cfg.Models.Dir)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	pipe, err := pipeline.New(artifacts.Trends, artifacts.CO2, artifacts.Explainer, logger.NopLogger{})
	if err != nil {
		return err
	}

	out := map[string]any{}
	if predictExplain {
		pred, exp, err := pipe.PredictExplained(predictYear)
		if err != nil {
			return err
		}
		out["year"] = pred.Year
		out["predicted_co2_per_capita"] = pred.CO2PerCapita
		out["projected_drivers"] = pred.Drivers
		out["baseline"] = exp.Baseline
		out["explanation"] = map[string]any{
			"contributions":  exp.Contributions,
			"percentages":    exp.Percentages,
			"interpretation": exp.Interpretation,
		}
	} else {
		pred, err := pipe.Predict(predictYear)
		if err != nil {
			return err
		}
		out["year"] = pred.Year
		out["predicted_co2_per_capita"] = pred.CO2PerCapita
		out["projected_drivers"] = pred.Drivers
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
