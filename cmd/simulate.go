package main

import (
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/sensor"
)

var (
	simulateCount int
	simulateSite  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic sensor readings and store them",
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
		sim := sensor.New(rng)

		for i := 0; i < simulateCount; i++ {
			reading := sim.Reading(simulateSite)
			if err := st.InsertSensorReading(ctx, reading); err != nil {
				return err
			}
			zap.L().Info("stored simulated reading",
				zap.Float64("rainfall", reading.Rainfall),
				zap.Float64("temperature", reading.Temperature),
				zap.Float64("soil_moisture", reading.SoilMoisture))
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateCount, "count", 1, "number of readings to generate")
	simulateCmd.Flags().IntVar(&simulateSite, "site", -1, "site index (-1 for random)")
	rootCmd.AddCommand(simulateCmd)
}
