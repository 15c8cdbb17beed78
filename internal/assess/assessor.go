// Package assess runs the periodic risk assessment sweep over all monitored
// locations: it joins the freshest sensor reading with each location's
// terrain context and historical events, scores the risk, derives alerts,
// and persists the whole run atomically.
package assess

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/upgeo/slopewatch/internal/model"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/store"
)

// ErrNoSensorData is returned when no sensor readings exist inside the
// assessment lookback window.
var ErrNoSensorData = eris.New("assess: no recent sensor data")

// AlertThreshold is the minimum risk score that produces an alert during a
// sweep.
const AlertThreshold = 5.0

// sensorLookback is how far back the sweep searches for a usable reading.
const sensorLookback = 24 * time.Hour

// Detail is the per-location scoring payload returned to API clients.
type Detail struct {
	RiskScore  float64         `json:"risk_score"`
	Factors    risk.Factors    `json:"factor_contributions"`
	Timestamp  time.Time       `json:"timestamp"`
	SensorData risk.Conditions `json:"sensor_data"`
}

// LocationResult bundles one location's assessment and resilience outcome.
type LocationResult struct {
	Location                 model.MonitoredLocation `json:"location"`
	RiskAssessment           Detail                  `json:"risk_assessment"`
	InfrastructureResilience risk.Resilience         `json:"infrastructure_resilience"`
}

// Assessor coordinates a scoring sweep.
type Assessor struct {
	store      store.Store
	resilience *risk.ResilienceScorer
	now        func() time.Time
}

// New creates an Assessor. A nil scorer gets a default time-seeded one.
func New(st store.Store, scorer *risk.ResilienceScorer) *Assessor {
	if scorer == nil {
		scorer = risk.NewResilienceScorer(nil)
	}
	return &Assessor{store: st, resilience: scorer, now: time.Now}
}

// WithClock overrides the assessor clock for tests.
func (a *Assessor) WithClock(now func() time.Time) *Assessor {
	a.now = now
	return a
}

// Run assesses every active monitored location against the most recent
// sensor reading. All assessments and any triggered alerts are stored in a
// single transaction; a storage failure discards the entire run.
//
// The per-location sensor association is deliberately simple: the newest
// reading in the lookback window stands in for every location. Sensors in
// the field are not yet tied to specific sites.
func (a *Assessor) Run(ctx context.Context) ([]LocationResult, error) {
	locations, err := a.store.ActiveLocations(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "assess: load locations")
	}
	if len(locations) == 0 {
		zap.L().Warn("no active monitored locations")
		return nil, nil
	}

	now := a.now().UTC()
	readings, err := a.store.SensorReadingsSince(ctx, now.Add(-sensorLookback))
	if err != nil {
		return nil, eris.Wrap(err, "assess: load sensor readings")
	}
	if len(readings) == 0 {
		return nil, ErrNoSensorData
	}
	latest := readings[len(readings)-1]

	history, err := a.loadHistory(ctx)
	if err != nil {
		return nil, err
	}

	var (
		results     []LocationResult
		assessments []model.RiskAssessment
		alerts      []model.Alert
	)
	for _, loc := range locations {
		breakdown, err := risk.ScoreEnhanced(risk.EnhancedInput{
			Rainfall:          latest.Rainfall,
			Temperature:       latest.Temperature,
			SoilMoisture:      latest.SoilMoisture,
			TerrainType:       loc.TerrainType,
			VegetationDensity: loc.VegetationDensity,
			History:           history,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "assess: score location %s", loc.Name)
		}

		assessments = append(assessments, model.RiskAssessment{
			LocationID:         loc.ID,
			Timestamp:          now,
			RiskScore:          breakdown.RiskScore,
			RainfallFactor:     breakdown.Factors.Rainfall,
			TemperatureFactor:  breakdown.Factors.Temperature,
			SoilMoistureFactor: breakdown.Factors.SoilMoisture,
			HistoricalFactor:   breakdown.Factors.Historical,
			TerrainFactor:      breakdown.Factors.Terrain,
		})

		if breakdown.RiskScore >= AlertThreshold {
			if alert := risk.GenerateAlert(breakdown.RiskScore, loc.Location, now); alert != nil {
				alerts = append(alerts, *alert)
				zap.L().Info("risk alert triggered",
					zap.String("location", loc.Name),
					zap.Float64("risk_score", breakdown.RiskScore),
					zap.Int("risk_level", alert.RiskLevel))
			}
		}

		results = append(results, LocationResult{
			Location: loc,
			RiskAssessment: Detail{
				RiskScore: breakdown.RiskScore,
				Factors:   breakdown.Factors,
				Timestamp: now,
				SensorData: risk.Conditions{
					Rainfall:     latest.Rainfall,
					Temperature:  latest.Temperature,
					SoilMoisture: latest.SoilMoisture,
				},
			},
			InfrastructureResilience: a.resilience.Score(loc.Name, breakdown.RiskScore, nil),
		})
	}

	if err := a.store.SaveAssessmentRun(ctx, assessments, alerts); err != nil {
		return nil, eris.Wrap(err, "assess: save run")
	}

	zap.L().Info("assessment sweep complete",
		zap.Int("locations", len(results)),
		zap.Int("alerts", len(alerts)))
	return results, nil
}

// loadHistory converts stored landslide events into comparable condition
// records. Events recorded without sensor conditions are skipped rather than
// treated as zero readings.
func (a *Assessor) loadHistory(ctx context.Context) ([]risk.Conditions, error) {
	events, err := a.store.ListEvents(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "assess: load historical events")
	}
	var history []risk.Conditions
	for _, e := range events {
		if e.Rainfall == nil || e.Temperature == nil || e.SoilMoisture == nil {
			continue
		}
		history = append(history, risk.Conditions{
			Rainfall:     *e.Rainfall,
			Temperature:  *e.Temperature,
			SoilMoisture: *e.SoilMoisture,
		})
	}
	return history, nil
}
