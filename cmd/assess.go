package main

import (
	"encoding/json"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/assess"
	"github.com/upgeo/slopewatch/internal/risk"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run one risk assessment sweep over all monitored locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var rng *rand.Rand
		if cfg.Simulator.Seed != 0 {
			rng = rand.New(rand.NewSource(cfg.Simulator.Seed))
		}

		results, err := assess.New(st, risk.NewResilienceScorer(rng)).Run(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("assessment complete", zap.Int("locations", len(results)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)
}
