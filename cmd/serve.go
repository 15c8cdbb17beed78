package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/assess"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/sensor"
	"github.com/upgeo/slopewatch/internal/server"
	"github.com/upgeo/slopewatch/internal/store"
)

var (
	servePort     int
	serveSimulate bool
	serveSweep    bool
	serveSeed     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the monitoring dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if serveSeed {
			if err := st.SeedDemoData(ctx); err != nil {
				return err
			}
			zap.L().Info("demo data seeded")
		}

		// rand.Rand is not safe for concurrent use; each component gets its
		// own source derived from the configured seed.
		newRng := func(offset int64) *rand.Rand {
			if cfg.Simulator.Seed == 0 {
				return nil
			}
			return rand.New(rand.NewSource(cfg.Simulator.Seed + offset))
		}
		assessor := assess.New(st, risk.NewResilienceScorer(newRng(1)))
		srv := server.New(cfg, st, assessor, risk.NewSeismicSimulator(newRng(2)), risk.NewResilienceScorer(newRng(3)))

		if serveSimulate {
			go runSimulator(ctx, st, newRng(4))
		}
		// Assessments normally run only on POST /api/assess-locations; the
		// periodic sweep is opt-in for unattended demos.
		if serveSweep {
			go runAssessmentSweeps(ctx, assessor)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// runSimulator pushes synthetic sensor readings on the assessment interval,
// standing in for field hardware during demos.
func runSimulator(ctx context.Context, st store.Store, rng *rand.Rand) {
	sim := sensor.New(rng)
	interval := time.Duration(cfg.Assess.IntervalMins) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	push := func() {
		batch := cfg.Simulator.Batch
		if batch < 1 {
			batch = 1
		}
		for i := 0; i < batch; i++ {
			reading := sim.Reading(-1)
			if err := st.InsertSensorReading(ctx, reading); err != nil {
				zap.L().Error("insert simulated reading", zap.Error(err))
				return
			}
		}
		zap.L().Debug("simulated sensor readings", zap.Int("count", batch))
	}

	push()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			push()
		}
	}
}

// runAssessmentSweeps runs the scoring sweep periodically.
func runAssessmentSweeps(ctx context.Context, assessor *assess.Assessor) {
	interval := time.Duration(cfg.Assess.IntervalMins) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := assessor.Run(ctx); err != nil && !eris.Is(err, assess.ErrNoSensorData) {
				zap.L().Error("assessment sweep failed", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveSimulate, "simulate", false, "generate synthetic sensor readings")
	serveCmd.Flags().BoolVar(&serveSweep, "sweep", false, "run assessment sweeps on the configured interval")
	serveCmd.Flags().BoolVar(&serveSeed, "seed", true, "seed demo data on startup")
	rootCmd.AddCommand(serveCmd)
}
