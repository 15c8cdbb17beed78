package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/upgeo/slopewatch/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the postgres store. Tests
// substitute a pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id            TEXT PRIMARY KEY,
	timestamp     TIMESTAMPTZ NOT NULL,
	rainfall      DOUBLE PRECISION NOT NULL,
	temperature   DOUBLE PRECISION NOT NULL,
	soil_moisture DOUBLE PRECISION NOT NULL,
	location_lat  DOUBLE PRECISION NOT NULL,
	location_lng  DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS monitored_locations (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT,
	location_lat       DOUBLE PRECISION NOT NULL,
	location_lng       DOUBLE PRECISION NOT NULL,
	elevation          DOUBLE PRECISION,
	terrain_type       TEXT,
	vegetation_density DOUBLE PRECISION,
	is_active          BOOLEAN NOT NULL DEFAULT TRUE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS risk_assessments (
	id                   TEXT PRIMARY KEY,
	location_id          TEXT NOT NULL REFERENCES monitored_locations(id),
	timestamp            TIMESTAMPTZ NOT NULL,
	risk_score           DOUBLE PRECISION NOT NULL,
	rainfall_factor      DOUBLE PRECISION NOT NULL,
	temperature_factor   DOUBLE PRECISION NOT NULL,
	soil_moisture_factor DOUBLE PRECISION NOT NULL,
	historical_factor    DOUBLE PRECISION NOT NULL,
	terrain_factor       DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id           TEXT PRIMARY KEY,
	timestamp    TIMESTAMPTZ NOT NULL,
	risk_level   INTEGER NOT NULL,
	message      TEXT NOT NULL,
	location_lat DOUBLE PRECISION NOT NULL,
	location_lng DOUBLE PRECISION NOT NULL,
	is_active    BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS risk_zones (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	location_lat DOUBLE PRECISION NOT NULL,
	location_lng DOUBLE PRECISION NOT NULL,
	risk_level   INTEGER NOT NULL,
	description  TEXT
);

CREATE TABLE IF NOT EXISTS emergency_facilities (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	facility_type  TEXT NOT NULL,
	location_lat   DOUBLE PRECISION NOT NULL,
	location_lng   DOUBLE PRECISION NOT NULL,
	contact_number TEXT,
	address        TEXT
);

CREATE TABLE IF NOT EXISTS landslide_events (
	id               TEXT PRIMARY KEY,
	timestamp        TIMESTAMPTZ NOT NULL,
	location_lat     DOUBLE PRECISION NOT NULL,
	location_lng     DOUBLE PRECISION NOT NULL,
	severity         INTEGER NOT NULL,
	description      TEXT,
	before_image_url TEXT,
	after_image_url  TEXT,
	rainfall         DOUBLE PRECISION,
	temperature      DOUBLE PRECISION,
	soil_moisture    DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_sensor_readings_timestamp ON sensor_readings(timestamp);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_location_id ON risk_assessments(location_id);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_timestamp ON risk_assessments(timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_is_active ON alerts(is_active);
CREATE INDEX IF NOT EXISTS idx_facilities_type ON emergency_facilities(facility_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertSensorReading(ctx context.Context, r model.SensorReading) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sensor_readings (id, timestamp, rainfall, temperature, soil_moisture, location_lat, location_lng)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Timestamp.UTC(), r.Rainfall, r.Temperature, r.SoilMoisture, r.Location.Lat, r.Location.Lng,
	)
	return eris.Wrap(err, "postgres: insert sensor reading")
}

func (s *PostgresStore) SensorReadingsSince(ctx context.Context, since time.Time) ([]model.SensorReading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, rainfall, temperature, soil_moisture, location_lat, location_lng
		 FROM sensor_readings WHERE timestamp >= $1 ORDER BY timestamp`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sensor readings")
	}
	defer rows.Close()

	var readings []model.SensorReading
	for rows.Next() {
		var r model.SensorReading
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Rainfall, &r.Temperature, &r.SoilMoisture,
			&r.Location.Lat, &r.Location.Lng); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sensor reading")
		}
		readings = append(readings, r)
	}
	return readings, eris.Wrap(rows.Err(), "postgres: list sensor readings iterate")
}

func (s *PostgresStore) ListLocations(ctx context.Context) ([]model.MonitoredLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations ORDER BY name`)
}

func (s *PostgresStore) ActiveLocations(ctx context.Context) ([]model.MonitoredLocation, error) {
	return s.queryLocations(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations WHERE is_active ORDER BY name`)
}

func (s *PostgresStore) queryLocations(ctx context.Context, query string, args ...any) ([]model.MonitoredLocation, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list locations")
	}
	defer rows.Close()

	var locations []model.MonitoredLocation
	for rows.Next() {
		loc, err := scanPgLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	return locations, eris.Wrap(rows.Err(), "postgres: list locations iterate")
}

func (s *PostgresStore) GetLocation(ctx context.Context, id string) (*model.MonitoredLocation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM monitored_locations WHERE id = $1`, id)
	return scanPgLocation(row)
}

func (s *PostgresStore) SaveAssessmentRun(ctx context.Context, assessments []model.RiskAssessment, alerts []model.Alert) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin assessment run")
	}
	defer tx.Rollback(ctx)

	for _, a := range assessments {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO risk_assessments (id, location_id, timestamp, risk_score,
			 rainfall_factor, temperature_factor, soil_moisture_factor, historical_factor, terrain_factor)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.LocationID, a.Timestamp.UTC(), a.RiskScore,
			a.RainfallFactor, a.TemperatureFactor, a.SoilMoistureFactor, a.HistoricalFactor, a.TerrainFactor,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert assessment for location %s", a.LocationID)
		}
	}
	for _, al := range alerts {
		if al.ID == "" {
			al.ID = uuid.New().String()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO alerts (id, timestamp, risk_level, message, location_lat, location_lng, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			al.ID, al.Timestamp.UTC(), al.RiskLevel, al.Message, al.Location.Lat, al.Location.Lng, al.IsActive,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert run alert")
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit assessment run")
}

func (s *PostgresStore) AssessmentsSince(ctx context.Context, since time.Time) ([]LocationAssessments, error) {
	locations, err := s.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, location_id, timestamp, risk_score,
		 rainfall_factor, temperature_factor, soil_moisture_factor, historical_factor, terrain_factor
		 FROM risk_assessments WHERE timestamp >= $1 ORDER BY timestamp`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	byLocation := make(map[string][]model.RiskAssessment)
	for rows.Next() {
		var a model.RiskAssessment
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Timestamp, &a.RiskScore,
			&a.RainfallFactor, &a.TemperatureFactor, &a.SoilMoistureFactor,
			&a.HistoricalFactor, &a.TerrainFactor); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		byLocation[a.LocationID] = append(byLocation[a.LocationID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments iterate")
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

func (s *PostgresStore) InsertAlert(ctx context.Context, a model.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, timestamp, risk_level, message, location_lat, location_lng, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Timestamp.UTC(), a.RiskLevel, a.Message, a.Location.Lat, a.Location.Lng, a.IsActive,
	)
	return eris.Wrap(err, "postgres: insert alert")
}

func (s *PostgresStore) ActiveAlerts(ctx context.Context) ([]model.Alert, error) {
	return s.queryAlerts(ctx,
		`SELECT id, timestamp, risk_level, message, location_lat, location_lng, is_active
		 FROM alerts WHERE is_active ORDER BY timestamp DESC`)
}

func (s *PostgresStore) ListAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryAlerts(ctx,
		`SELECT id, timestamp, risk_level, message, location_lat, location_lng, is_active
		 FROM alerts ORDER BY timestamp DESC LIMIT $1`, limit)
}

func (s *PostgresStore) queryAlerts(ctx context.Context, query string, args ...any) ([]model.Alert, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.RiskLevel, &a.Message,
			&a.Location.Lat, &a.Location.Lng, &a.IsActive); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "postgres: list alerts iterate")
}

func (s *PostgresStore) ListRiskZones(ctx context.Context) ([]model.RiskZone, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, location_lat, location_lng, risk_level, description FROM risk_zones ORDER BY risk_level DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list risk zones")
	}
	defer rows.Close()

	var zones []model.RiskZone
	for rows.Next() {
		var z model.RiskZone
		var desc *string
		if err := rows.Scan(&z.ID, &z.Name, &z.Location.Lat, &z.Location.Lng, &z.RiskLevel, &desc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan risk zone")
		}
		if desc != nil {
			z.Description = *desc
		}
		zones = append(zones, z)
	}
	return zones, eris.Wrap(rows.Err(), "postgres: list risk zones iterate")
}

func (s *PostgresStore) ListFacilities(ctx context.Context, facilityType string) ([]model.EmergencyFacility, error) {
	query := `SELECT id, name, facility_type, location_lat, location_lng, contact_number, address
	 FROM emergency_facilities`
	var args []any
	if facilityType != "" {
		query += ` WHERE facility_type = $1`
		args = append(args, facilityType)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list facilities")
	}
	defer rows.Close()

	var facilities []model.EmergencyFacility
	for rows.Next() {
		var f model.EmergencyFacility
		var contact, addr *string
		if err := rows.Scan(&f.ID, &f.Name, &f.FacilityType, &f.Location.Lat, &f.Location.Lng,
			&contact, &addr); err != nil {
			return nil, eris.Wrap(err, "postgres: scan facility")
		}
		if contact != nil {
			f.ContactNumber = *contact
		}
		if addr != nil {
			f.Address = *addr
		}
		facilities = append(facilities, f)
	}
	return facilities, eris.Wrap(rows.Err(), "postgres: list facilities iterate")
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]model.LandslideEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, timestamp, location_lat, location_lng, severity, description,
		 before_image_url, after_image_url, rainfall, temperature, soil_moisture
		 FROM landslide_events ORDER BY timestamp DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.LandslideEvent
	for rows.Next() {
		var e model.LandslideEvent
		var desc, before, after *string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Location.Lat, &e.Location.Lng, &e.Severity,
			&desc, &before, &after, &e.Rainfall, &e.Temperature, &e.SoilMoisture); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		if desc != nil {
			e.Description = *desc
		}
		if before != nil {
			e.BeforeImageURL = *before
		}
		if after != nil {
			e.AfterImageURL = *after
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list events iterate")
}

func (s *PostgresStore) SeedDemoData(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin seed")
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM risk_assessments`,
		`DELETE FROM monitored_locations`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "postgres: seed clear %s", stmt)
		}
	}

	now := time.Now().UTC()
	insertLocation := func(loc model.MonitoredLocation) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO monitored_locations (id, name, description, location_lat, location_lng,
			 elevation, terrain_type, vegetation_density, is_active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.New().String(), loc.Name, loc.Description, loc.Location.Lat, loc.Location.Lng,
			loc.Elevation, loc.TerrainType, loc.VegetationDensity, loc.IsActive, now,
		)
		return eris.Wrapf(err, "postgres: seed location %s", loc.Name)
	}
	for _, loc := range seedDistricts() {
		if err := insertLocation(loc); err != nil {
			return err
		}
	}

	var zoneCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM risk_zones`).Scan(&zoneCount); err != nil {
		return eris.Wrap(err, "postgres: seed count zones")
	}
	if zoneCount == 0 {
		for _, z := range seedRiskZones() {
			if _, err := tx.Exec(ctx,
				`INSERT INTO risk_zones (id, name, location_lat, location_lng, risk_level, description)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New().String(), z.Name, z.Location.Lat, z.Location.Lng, z.RiskLevel, z.Description,
			); err != nil {
				return eris.Wrapf(err, "postgres: seed zone %s", z.Name)
			}
		}
		for _, f := range seedFacilities() {
			if _, err := tx.Exec(ctx,
				`INSERT INTO emergency_facilities (id, name, facility_type, location_lat, location_lng, contact_number, address)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New().String(), f.Name, f.FacilityType, f.Location.Lat, f.Location.Lng, f.ContactNumber, f.Address,
			); err != nil {
				return eris.Wrapf(err, "postgres: seed facility %s", f.Name)
			}
		}
		for _, loc := range seedSites() {
			if err := insertLocation(loc); err != nil {
				return err
			}
		}
		for _, e := range seedEvents(now) {
			if _, err := tx.Exec(ctx,
				`INSERT INTO landslide_events (id, timestamp, location_lat, location_lng, severity,
				 description, rainfall, temperature, soil_moisture)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				uuid.New().String(), e.Timestamp, e.Location.Lat, e.Location.Lng, e.Severity,
				e.Description, e.Rainfall, e.Temperature, e.SoilMoisture,
			); err != nil {
				return eris.Wrap(err, "postgres: seed event")
			}
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit seed")
}

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPgLocation(row pgScannable) (*model.MonitoredLocation, error) {
	var loc model.MonitoredLocation
	var desc, terrain *string
	var elevation *float64

	err := row.Scan(&loc.ID, &loc.Name, &desc, &loc.Location.Lat, &loc.Location.Lng,
		&elevation, &terrain, &loc.VegetationDensity, &loc.IsActive, &loc.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan location")
	}

	if desc != nil {
		loc.Description = *desc
	}
	if terrain != nil {
		loc.TerrainType = *terrain
	}
	if elevation != nil {
		loc.Elevation = *elevation
	}
	return &loc, nil
}
