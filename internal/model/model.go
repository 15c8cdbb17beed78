// Package model defines the entities persisted and served by slopewatch.
package model

import "time"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SensorReading is a single environmental reading reported by a field sensor.
// Readings are immutable once recorded.
type SensorReading struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Rainfall     float64   `json:"rainfall"`      // mm, >= 0
	Temperature  float64   `json:"temperature"`   // Celsius
	SoilMoisture float64   `json:"soil_moisture"` // percent, 0-100
	Location     LatLng    `json:"location"`
}

// MonitoredLocation is a named point of interest with static terrain metadata.
type MonitoredLocation struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Location          LatLng    `json:"location"`
	Elevation         float64   `json:"elevation,omitempty"` // meters
	TerrainType       string    `json:"terrain_type,omitempty"`
	VegetationDensity *float64  `json:"vegetation_density,omitempty"` // percent
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// RiskAssessment records one scoring run for a monitored location.
// Rows are never mutated after creation.
type RiskAssessment struct {
	ID                 string    `json:"id"`
	LocationID         string    `json:"location_id"`
	Timestamp          time.Time `json:"timestamp"`
	RiskScore          float64   `json:"risk_score"` // 0-10
	RainfallFactor     float64   `json:"rainfall_factor"`
	TemperatureFactor  float64   `json:"temperature_factor"`
	SoilMoistureFactor float64   `json:"soil_moisture_factor"`
	HistoricalFactor   float64   `json:"historical_factor"`
	TerrainFactor      float64   `json:"terrain_factor"`
	LocationName       string    `json:"location_name,omitempty"`
}

// Alert is a threshold-triggered landslide warning.
type Alert struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RiskLevel int       `json:"risk_level"` // 1-10 tier
	Message   string    `json:"message"`
	Location  LatLng    `json:"location"`
	IsActive  bool      `json:"is_active"`
}

// RiskZone is a known landslide-prone area.
type RiskZone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    LatLng `json:"location"`
	RiskLevel   int    `json:"risk_level"` // 1-10
	Description string `json:"description,omitempty"`
}

// Facility types recognized by the emergency-facilities endpoint.
const (
	FacilityHospital         = "hospital"
	FacilityRescueCenter     = "rescue center"
	FacilityMitigationCenter = "mitigation center"
)

// EmergencyFacility is a hospital, rescue center, or mitigation center.
type EmergencyFacility struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FacilityType  string `json:"facility_type"`
	Location      LatLng `json:"location"`
	ContactNumber string `json:"contact_number,omitempty"`
	Address       string `json:"address,omitempty"`
}

// LandslideEvent is a historical landslide occurrence. The sensor condition
// fields hold the readings observed when the event happened and feed the
// historical similarity analysis; they are optional for older records.
type LandslideEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Location       LatLng    `json:"location"`
	Severity       int       `json:"severity"` // 1-10
	Description    string    `json:"description,omitempty"`
	BeforeImageURL string    `json:"before_image_url,omitempty"`
	AfterImageURL  string    `json:"after_image_url,omitempty"`
	Rainfall       *float64  `json:"rainfall,omitempty"`
	Temperature    *float64  `json:"temperature,omitempty"`
	SoilMoisture   *float64  `json:"soil_moisture,omitempty"`
}

// SeismicReading is a synthetic seismograph sample for a region.
type SeismicReading struct {
	Region    string    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
	Magnitude float64   `json:"magnitude"`
	Depth     float64   `json:"depth"` // km
	Location  LatLng    `json:"location"`
}
