package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo locations, risk zones, facilities, and events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SeedDemoData(ctx); err != nil {
			return err
		}
		zap.L().Info("demo data seeded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
