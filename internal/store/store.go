package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/upgeo/slopewatch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// LocationAssessments groups a location's assessment history for the
// trends endpoint.
type LocationAssessments struct {
	Location    model.MonitoredLocation `json:"location"`
	Assessments []model.RiskAssessment  `json:"assessments"`
}

// Latest returns the newest assessment in the group, or nil when empty.
// Assessments are ordered oldest first.
func (la LocationAssessments) Latest() *model.RiskAssessment {
	if len(la.Assessments) == 0 {
		return nil
	}
	return &la.Assessments[len(la.Assessments)-1]
}

// Store defines the persistence interface for the monitoring dashboard.
type Store interface {
	// Sensor readings
	InsertSensorReading(ctx context.Context, r model.SensorReading) error
	SensorReadingsSince(ctx context.Context, since time.Time) ([]model.SensorReading, error)

	// Monitored locations
	ListLocations(ctx context.Context) ([]model.MonitoredLocation, error)
	ActiveLocations(ctx context.Context) ([]model.MonitoredLocation, error)
	GetLocation(ctx context.Context, id string) (*model.MonitoredLocation, error)

	// Assessments. SaveAssessmentRun persists one scoring run atomically:
	// all assessments and alerts commit together or not at all.
	SaveAssessmentRun(ctx context.Context, assessments []model.RiskAssessment, alerts []model.Alert) error
	AssessmentsSince(ctx context.Context, since time.Time) ([]LocationAssessments, error)

	// Alerts
	InsertAlert(ctx context.Context, a model.Alert) error
	ActiveAlerts(ctx context.Context) ([]model.Alert, error)
	ListAlerts(ctx context.Context, limit int) ([]model.Alert, error)

	// Reference data
	ListRiskZones(ctx context.Context) ([]model.RiskZone, error)
	ListFacilities(ctx context.Context, facilityType string) ([]model.EmergencyFacility, error)
	ListEvents(ctx context.Context) ([]model.LandslideEvent, error)

	// Lifecycle
	SeedDemoData(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
