package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/upgeo/slopewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id            TEXT PRIMARY KEY,
	timestamp     DATETIME NOT NULL,
	rainfall      REAL NOT NULL,
	temperature   REAL NOT NULL,
	soil_moisture REAL NOT NULL,
	location_lat  REAL NOT NULL,
	location_lng  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS monitored_locations (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT,
	location_lat       REAL NOT NULL,
	location_lng       REAL NOT NULL,
	elevation          REAL,
	terrain_type       TEXT,
	vegetation_density REAL,
	is_active          INTEGER NOT NULL DEFAULT 1,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS risk_assessments (
	id                   TEXT PRIMARY KEY,
	location_id          TEXT NOT NULL REFERENCES monitored_locations(id),
	timestamp            DATETIME NOT NULL,
	risk_score           REAL NOT NULL,
	rainfall_factor      REAL NOT NULL,
	temperature_factor   REAL NOT NULL,
	soil_moisture_factor REAL NOT NULL,
	historical_factor    REAL NOT NULL,
	terrain_factor       REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id           TEXT PRIMARY KEY,
	timestamp    DATETIME NOT NULL,
	risk_level   INTEGER NOT NULL,
	message      TEXT NOT NULL,
	location_lat REAL NOT NULL,
	location_lng REAL NOT NULL,
	is_active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS risk_zones (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	location_lat REAL NOT NULL,
	location_lng REAL NOT NULL,
	risk_level   INTEGER NOT NULL,
	description  TEXT
);

CREATE TABLE IF NOT EXISTS emergency_facilities (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	facility_type  TEXT NOT NULL,
	location_lat   REAL NOT NULL,
	location_lng   REAL NOT NULL,
	contact_number TEXT,
	address        TEXT
);

CREATE TABLE IF NOT EXISTS landslide_events (
	id               TEXT PRIMARY KEY,
	timestamp        DATETIME NOT NULL,
	location_lat     REAL NOT NULL,
	location_lng     REAL NOT NULL,
	severity         INTEGER NOT NULL,
	description      TEXT,
	before_image_url TEXT,
	after_image_url  TEXT,
	rainfall         REAL,
	temperature      REAL,
	soil_moisture    REAL
);

CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp ON sensor_readings(timestamp);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_location_id ON risk_assessments(location_id);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_timestamp ON risk_assessments(timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_is_active ON alerts(is_active);
CREATE INDEX IF NOT EXISTS idx_facilities_type ON emergency_facilities(facility_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertSensorReading(ctx context.Context, r model.SensorReading) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensor_readings (id, timestamp, rainfall, temperature, soil_moisture, location_lat, location_lng)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp.UTC(), r.Rainfall, r.Temperature, r.SoilMoisture, r.Location.Lat, r.Location.Lng,
	)
	return eris.Wrap(err, "sqlite: insert sensor reading")
}

func (s *SQLiteStore) SensorReadingsSince(ctx context.Context, since time.Time) ([]model.SensorReading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, rainfall, temperature, soil_moisture, location_lat, location_lng
		 FROM sensor_readings WHERE timestamp >= ? ORDER BY timestamp`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sensor readings")
	}
	defer rows.Close()

	var readings []model.SensorReading
	for rows.Next() {
		var r model.SensorReading
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Rainfall, &r.Temperature, &r.SoilMoisture,
			&r.Location.Lat, &r.Location.Lng); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sensor reading")
		}
		readings = append(readings, r)
	}
	return readings, eris.Wrap(rows.Err(), "sqlite: list sensor readings iterate")
}

const locationColumns = `id, name, description, location_lat, location_lng, elevation, terrain_type, vegetation_density, is_active, created_at`

func (s *SQLiteStore) ListLocations(ctx context.Context) ([]model.MonitoredLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations ORDER BY name`)
}

func (s *SQLiteStore) ActiveLocations(ctx context.Context) ([]model.MonitoredLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations WHERE is_active = 1 ORDER BY name`)
}

func (s *SQLiteStore) queryLocations(ctx context.Context, query string, args ...any) ([]model.MonitoredLocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list locations")
	}
	defer rows.Close()

	var locations []model.MonitoredLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	return locations, eris.Wrap(rows.Err(), "sqlite: list locations iterate")
}

func (s *SQLiteStore) GetLocation(ctx context.Context, id string) (*model.MonitoredLocation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *SQLiteStore) SaveAssessmentRun(ctx context.Context, assessments []model.RiskAssessment, alerts []model.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin assessment run")
	}
	defer tx.Rollback()

	for _, a := range assessments {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO risk_assessments (id, location_id, timestamp, risk_score,
			 rainfall_factor, temperature_factor, soil_moisture_factor, historical_factor, terrain_factor)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.LocationID, a.Timestamp.UTC(), a.RiskScore,
			a.RainfallFactor, a.TemperatureFactor, a.SoilMoistureFactor, a.HistoricalFactor, a.TerrainFactor,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert assessment for location %s", a.LocationID)
		}
	}
	for _, al := range alerts {
		if al.ID == "" {
			al.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (id, timestamp, risk_level, message, location_lat, location_lng, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			al.ID, al.Timestamp.UTC(), al.RiskLevel, al.Message, al.Location.Lat, al.Location.Lng, al.IsActive,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert run alert")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit assessment run")
}

func (s *SQLiteStore) AssessmentsSince(ctx context.Context, since time.Time) ([]LocationAssessments, error) {
	locations, err := s.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location_id, timestamp, risk_score,
		 rainfall_factor, temperature_factor, soil_moisture_factor, historical_factor, terrain_factor
		 FROM risk_assessments WHERE timestamp >= ? ORDER BY timestamp`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close()

	byLocation := make(map[string][]model.RiskAssessment)
	for rows.Next() {
		var a model.RiskAssessment
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Timestamp, &a.RiskScore,
			&a.RainfallFactor, &a.TemperatureFactor, &a.SoilMoistureFactor,
			&a.HistoricalFactor, &a.TerrainFactor); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		byLocation[a.LocationID] = append(byLocation[a.LocationID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments iterate")
	}

	var result []LocationAssessments
	for _, loc := range locations {
		assessments := byLocation[loc.ID]
		if len(assessments) == 0 {
			continue
		}
		for i := range assessments {
			assessments[i].LocationName = loc.Name
		}
		result = append(result, LocationAssessments{Location: loc, Assessments: assessments})
	}
	return result, nil
}

func (s *SQLiteStore) InsertAlert(ctx context.Context, a model.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, timestamp, risk_level, message, location_lat, location_lng, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Timestamp.UTC(), a.RiskLevel, a.Message, a.Location.Lat, a.Location.Lng, a.IsActive,
	)
	return eris.Wrap(err, "sqlite: insert alert")
}

func (s *SQLiteStore) ActiveAlerts(ctx context.Context) ([]model.Alert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, timestamp, risk_level, message, location_lat, location_lng, is_active
		 FROM alerts WHERE is_active = 1 ORDER BY timestamp DESC`)
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryAlerts(ctx,
		`SELECT id, timestamp, risk_level, message, location_lat, location_lng, is_active
		 FROM alerts ORDER BY timestamp DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) queryAlerts(ctx context.Context, query string, args ...any) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.RiskLevel, &a.Message,
			&a.Location.Lat, &a.Location.Lng, &a.IsActive); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "sqlite: list alerts iterate")
}

func (s *SQLiteStore) ListRiskZones(ctx context.Context) ([]model.RiskZone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location_lat, location_lng, risk_level, description FROM risk_zones ORDER BY risk_level DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list risk zones")
	}
	defer rows.Close()

	var zones []model.RiskZone
	for rows.Next() {
		var z model.RiskZone
		var desc sql.NullString
		if err := rows.Scan(&z.ID, &z.Name, &z.Location.Lat, &z.Location.Lng, &z.RiskLevel, &desc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan risk zone")
		}
		z.Description = desc.String
		zones = append(zones, z)
	}
	return zones, eris.Wrap(rows.Err(), "sqlite: list risk zones iterate")
}

func (s *SQLiteStore) ListFacilities(ctx context.Context, facilityType string) ([]model.EmergencyFacility, error) {
	query := `SELECT id, name, facility_type, location_lat, location_lng, contact_number, address
	 FROM emergency_facilities`
	var args []any
	if facilityType != "" {
		query += ` WHERE facility_type = ?`
		args = append(args, facilityType)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list facilities")
	}
	defer rows.Close()

	var facilities []model.EmergencyFacility
	for rows.Next() {
		var f model.EmergencyFacility
		var contact, addr sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.FacilityType, &f.Location.Lat, &f.Location.Lng,
			&contact, &addr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan facility")
		}
		f.ContactNumber = contact.String
		f.Address = addr.String
		facilities = append(facilities, f)
	}
	return facilities, eris.Wrap(rows.Err(), "sqlite: list facilities iterate")
}

func (s *SQLiteStore) ListEvents(ctx context.Context) ([]model.LandslideEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, location_lat, location_lng, severity, description,
		 before_image_url, after_image_url, rainfall, temperature, soil_moisture
		 FROM landslide_events ORDER BY timestamp DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.LandslideEvent
	for rows.Next() {
		var e model.LandslideEvent
		var desc, before, after sql.NullString
		var rain, temp, soil sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Location.Lat, &e.Location.Lng, &e.Severity,
			&desc, &before, &after, &rain, &temp, &soil); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		e.Description = desc.String
		e.BeforeImageURL = before.String
		e.AfterImageURL = after.String
		e.Rainfall = nullFloat(rain)
		e.Temperature = nullFloat(temp)
		e.SoilMoisture = nullFloat(soil)
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}

// SeedDemoData refreshes the monitored-location set and, if the reference
// tables are empty, loads the Uttar Pradesh demo zones, facilities, sites
// and historical events. Assessments are cleared alongside locations so the
// foreign keys stay consistent.
func (s *SQLiteStore) SeedDemoData(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed")
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM risk_assessments`,
		`DELETE FROM monitored_locations`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "sqlite: seed clear %s", stmt)
		}
	}

	now := time.Now().UTC()
	for _, loc := range seedDistricts() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO monitored_locations (id, name, description, location_lat, location_lng,
			 elevation, terrain_type, vegetation_density, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), loc.Name, loc.Description, loc.Location.Lat, loc.Location.Lng,
			loc.Elevation, loc.TerrainType, loc.VegetationDensity, loc.IsActive, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed location %s", loc.Name)
		}
	}

	var zoneCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM risk_zones`).Scan(&zoneCount); err != nil {
		return eris.Wrap(err, "sqlite: seed count zones")
	}
	if zoneCount == 0 {
		for _, z := range seedRiskZones() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO risk_zones (id, name, location_lat, location_lng, risk_level, description)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), z.Name, z.Location.Lat, z.Location.Lng, z.RiskLevel, z.Description,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed zone %s", z.Name)
			}
		}
		for _, f := range seedFacilities() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO emergency_facilities (id, name, facility_type, location_lat, location_lng, contact_number, address)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), f.Name, f.FacilityType, f.Location.Lat, f.Location.Lng, f.ContactNumber, f.Address,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed facility %s", f.Name)
			}
		}
		for _, loc := range seedSites() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO monitored_locations (id, name, description, location_lat, location_lng,
				 elevation, terrain_type, vegetation_density, is_active, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), loc.Name, loc.Description, loc.Location.Lat, loc.Location.Lng,
				loc.Elevation, loc.TerrainType, loc.VegetationDensity, loc.IsActive, now,
			); err != nil {
				return eris.Wrapf(err, "sqlite: seed site %s", loc.Name)
			}
		}
		for _, e := range seedEvents(now) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO landslide_events (id, timestamp, location_lat, location_lng, severity,
				 description, rainfall, temperature, soil_moisture)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), e.Timestamp, e.Location.Lat, e.Location.Lng, e.Severity,
				e.Description, e.Rainfall, e.Temperature, e.SoilMoisture,
			); err != nil {
				return eris.Wrap(err, "sqlite: seed event")
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit seed")
}

// helpers

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLocation(row scannable) (*model.MonitoredLocation, error) {
	var loc model.MonitoredLocation
	var desc, terrain sql.NullString
	var elevation, vegetation sql.NullFloat64

	err := row.Scan(&loc.ID, &loc.Name, &desc, &loc.Location.Lat, &loc.Location.Lng,
		&elevation, &terrain, &vegetation, &loc.IsActive, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan location")
	}

	loc.Description = desc.String
	loc.TerrainType = terrain.String
	loc.Elevation = elevation.Float64
	loc.VegetationDensity = nullFloat(vegetation)
	return &loc, nil
}
