package assess

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgeo/slopewatch/internal/model"
	"github.com/upgeo/slopewatch/internal/risk"
	"github.com/upgeo/slopewatch/internal/store"
)

func newSeededStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SeedDemoData(ctx))
	return s
}

func newAssessor(st store.Store) *Assessor {
	scorer := risk.NewResilienceScorer(rand.New(rand.NewSource(42)))
	return New(st, scorer)
}

func TestRunNoSensorData(t *testing.T) {
	st := newSeededStore(t)
	_, err := newAssessor(st).Run(context.Background())
	assert.True(t, eris.Is(err, ErrNoSensorData))
}

func TestRunStaleSensorDataIgnored(t *testing.T) {
	st := newSeededStore(t)
	ctx := context.Background()
	require.NoError(t, st.InsertSensorReading(ctx, model.SensorReading{
		Timestamp: time.Now().UTC().Add(-48 * time.Hour),
		Rainfall:  90, Temperature: 30, SoilMoisture: 85,
	}))
	_, err := newAssessor(st).Run(ctx)
	assert.True(t, eris.Is(err, ErrNoSensorData))
}

func TestRunAssessesAllActiveLocations(t *testing.T) {
	st := newSeededStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Severe conditions so scoring clears the alert threshold for the
	// high-risk terrains.
	require.NoError(t, st.InsertSensorReading(ctx, model.SensorReading{
		Timestamp: now.Add(-10 * time.Minute),
		Rainfall:  110, Temperature: 36, SoilMoisture: 92,
		Location: model.LatLng{Lat: 25.1, Lng: 82.5},
	}))

	results, err := newAssessor(st).Run(ctx)
	require.NoError(t, err)

	locations, err := st.ActiveLocations(ctx)
	require.NoError(t, err)
	require.Len(t, results, len(locations))

	alertCount := 0
	for _, r := range results {
		assert.GreaterOrEqual(t, r.RiskAssessment.RiskScore, 0.0)
		assert.LessOrEqual(t, r.RiskAssessment.RiskScore, 10.0)
		assert.InDelta(t, 110, r.RiskAssessment.SensorData.Rainfall, 0.001)
		assert.Equal(t, r.Location.Name, r.InfrastructureResilience.Location)
		assert.GreaterOrEqual(t, r.InfrastructureResilience.ResilienceScore, 0.0)
		assert.LessOrEqual(t, r.InfrastructureResilience.ResilienceScore, 10.0)
		if r.RiskAssessment.RiskScore >= AlertThreshold {
			alertCount++
		}
	}
	// Rainfall alone contributes 4.5 at saturation; every location should
	// cross the alert threshold under these readings.
	assert.Equal(t, len(results), alertCount)

	// The run persisted one assessment per location and the alerts.
	grouped, err := st.AssessmentsSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	total := 0
	for _, g := range grouped {
		total += len(g.Assessments)
	}
	assert.Equal(t, len(results), total)

	active, err := st.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, active, alertCount)
}

func TestRunUsesNewestReading(t *testing.T) {
	st := newSeededStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.InsertSensorReading(ctx, model.SensorReading{
		Timestamp: now.Add(-5 * time.Hour),
		Rainfall:  95, Temperature: 33, SoilMoisture: 90,
	}))
	require.NoError(t, st.InsertSensorReading(ctx, model.SensorReading{
		Timestamp: now.Add(-10 * time.Minute),
		Rainfall:  5, Temperature: 22, SoilMoisture: 30,
	}))

	results, err := newAssessor(st).Run(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.InDelta(t, 5, results[0].RiskAssessment.SensorData.Rainfall, 0.001)
}

func TestRunCalmConditionsNoAlerts(t *testing.T) {
	st := newSeededStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.InsertSensorReading(ctx, model.SensorReading{
		Timestamp: now.Add(-time.Minute),
		Rainfall:  2, Temperature: 18, SoilMoisture: 20,
	}))

	results, err := newAssessor(st).Run(ctx)
	require.NoError(t, err)
	for _, r := range results {
		assert.Less(t, r.RiskAssessment.RiskScore, AlertThreshold)
	}

	active, err := st.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
