package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgeo/slopewatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSensorReadings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := model.SensorReading{
		Timestamp: now.Add(-48 * time.Hour), Rainfall: 12, Temperature: 28, SoilMoisture: 40,
		Location: model.LatLng{Lat: 25.1, Lng: 82.5},
	}
	recent := model.SensorReading{
		Timestamp: now.Add(-1 * time.Hour), Rainfall: 55, Temperature: 30, SoilMoisture: 75,
		Location: model.LatLng{Lat: 25.2, Lng: 82.6},
	}
	require.NoError(t, s.InsertSensorReading(ctx, old))
	require.NoError(t, s.InsertSensorReading(ctx, recent))

	readings, err := s.SensorReadingsSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.InDelta(t, 55, readings[0].Rainfall, 0.001)
	assert.NotEmpty(t, readings[0].ID)
}

func TestSeedDemoData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDemoData(ctx))

	// 6 districts + 5 first-run sites.
	locations, err := s.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 11)

	zones, err := s.ListRiskZones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 5)
	// Ordered by risk level, highest first.
	assert.Equal(t, "Sonbhadra District", zones[0].Name)
	assert.Equal(t, 9, zones[0].RiskLevel)

	facilities, err := s.ListFacilities(ctx, "")
	require.NoError(t, err)
	assert.Len(t, facilities, 5)

	hospitals, err := s.ListFacilities(ctx, model.FacilityHospital)
	require.NoError(t, err)
	assert.Len(t, hospitals, 2)

	events, err := s.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 4)
	require.NotNil(t, events[0].Rainfall)

	// Reseeding refreshes locations but does not duplicate reference data.
	require.NoError(t, s.SeedDemoData(ctx))
	locations, err = s.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 6)
	zones, err = s.ListRiskZones(ctx)
	require.NoError(t, err)
	assert.Len(t, zones, 5)
}

func TestGetLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoData(ctx))

	locations, err := s.ActiveLocations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, locations)

	loc, err := s.GetLocation(ctx, locations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, locations[0].Name, loc.Name)

	_, err = s.GetLocation(ctx, "does-not-exist")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSaveAssessmentRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoData(ctx))

	locations, err := s.ActiveLocations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, locations)
	now := time.Now().UTC()

	assessments := []model.RiskAssessment{
		{LocationID: locations[0].ID, Timestamp: now, RiskScore: 6.2,
			RainfallFactor: 3.0, TemperatureFactor: 1.0, SoilMoistureFactor: 1.5,
			HistoricalFactor: 0.4, TerrainFactor: 0.3},
		{LocationID: locations[1].ID, Timestamp: now, RiskScore: 2.1,
			RainfallFactor: 1.0, TemperatureFactor: 0.5, SoilMoistureFactor: 0.4,
			HistoricalFactor: 0, TerrainFactor: 0.2},
	}
	alerts := []model.Alert{
		{Timestamp: now, RiskLevel: 8, Message: "test alert",
			Location: locations[0].Location, IsActive: true},
	}
	require.NoError(t, s.SaveAssessmentRun(ctx, assessments, alerts))

	grouped, err := s.AssessmentsSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	for _, g := range grouped {
		require.Len(t, g.Assessments, 1)
		assert.Equal(t, g.Location.Name, g.Assessments[0].LocationName)
	}

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 8, active[0].RiskLevel)
}

func TestSaveAssessmentRunRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDemoData(ctx))

	locations, err := s.ActiveLocations(ctx)
	require.NoError(t, err)
	now := time.Now().UTC()

	// Second assessment violates the location foreign key, so the whole run
	// including the first assessment and the alert must be discarded.
	assessments := []model.RiskAssessment{
		{LocationID: locations[0].ID, Timestamp: now, RiskScore: 7.0},
		{LocationID: "missing-location", Timestamp: now, RiskScore: 5.0},
	}
	alerts := []model.Alert{
		{Timestamp: now, RiskLevel: 10, Message: "should not persist", IsActive: true},
	}
	require.Error(t, s.SaveAssessmentRun(ctx, assessments, alerts))

	grouped, err := s.AssessmentsSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, grouped)

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListAlertsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertAlert(ctx, model.Alert{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			RiskLevel: 5, Message: "m", IsActive: i%2 == 0,
		}))
	}

	alerts, err := s.ListAlerts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	// Newest first.
	assert.True(t, alerts[0].Timestamp.After(alerts[1].Timestamp))

	active, err := s.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}
