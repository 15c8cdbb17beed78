// Package risk implements the heuristic landslide scoring formulas: the
// weighted risk score, infrastructure resilience, threshold alerts, and the
// synthetic seismic feed for the monitored regions.
package risk

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Basic score weights. Rainfall dominates because saturation events are the
// primary landslide trigger in the monitored districts.
const (
	basicRainfallWeight     = 0.5
	basicSoilMoistureWeight = 0.3
	basicTemperatureWeight  = 0.2
)

// Enhanced score weights, including terrain and vegetation context.
const (
	rainfallWeight     = 0.45
	soilMoistureWeight = 0.25
	temperatureWeight  = 0.15
	terrainWeight      = 0.10
	vegetationWeight   = 0.05
)

// Similarity windows for matching current conditions against historical
// landslide events.
const (
	historyRainfallWindow     = 10.0
	historyTemperatureWindow  = 5.0
	historySoilMoistureWindow = 10.0
)

// Conditions holds the environmental readings compared against history.
type Conditions struct {
	Rainfall     float64 `json:"rainfall"`
	Temperature  float64 `json:"temperature"`
	SoilMoisture float64 `json:"soil_moisture"`
}

// EnhancedInput carries the readings plus optional terrain context for the
// enhanced scorer. TerrainType and VegetationDensity fall back to moderate
// defaults when absent.
type EnhancedInput struct {
	Rainfall          float64
	Temperature       float64
	SoilMoisture      float64
	TerrainType       string
	VegetationDensity *float64
	History           []Conditions
}

// Factors is the per-factor contribution breakdown, each on the 0-10 scale.
type Factors struct {
	Rainfall     float64 `json:"rainfall_factor"`
	SoilMoisture float64 `json:"soil_moisture_factor"`
	Temperature  float64 `json:"temperature_factor"`
	Terrain      float64 `json:"terrain_factor"`
	Vegetation   float64 `json:"vegetation_factor"`
	Historical   float64 `json:"historical_factor"`
}

// Breakdown is the enhanced scorer result.
type Breakdown struct {
	RiskScore float64 `json:"risk_score"`
	Factors   Factors `json:"factor_contributions"`
}

func validateReadings(rainfall, temperature, soilMoisture float64) error {
	if math.IsNaN(rainfall) || rainfall < 0 {
		return eris.Errorf("risk: rainfall must be >= 0 mm, got %v", rainfall)
	}
	if math.IsNaN(temperature) {
		return eris.Errorf("risk: temperature must be a number, got %v", temperature)
	}
	if math.IsNaN(soilMoisture) || soilMoisture < 0 || soilMoisture > 100 {
		return eris.Errorf("risk: soil moisture must be within 0-100%%, got %v", soilMoisture)
	}
	return nil
}

// Score computes the basic 0-10 landslide risk score from raw readings.
func Score(rainfall, temperature, soilMoisture float64) (float64, error) {
	return ScoreWithHistory(rainfall, temperature, soilMoisture, nil)
}

// ScoreWithHistory computes the basic score and adds the historical
// similarity bonus when past event conditions are supplied.
func ScoreWithHistory(rainfall, temperature, soilMoisture float64, history []Conditions) (float64, error) {
	if err := validateReadings(rainfall, temperature, soilMoisture); err != nil {
		return 0, err
	}

	base := basicRainfallWeight*rainfallRisk(rainfall) +
		basicSoilMoistureWeight*soilMoistureRisk(soilMoisture) +
		basicTemperatureWeight*temperatureRisk(temperature)

	score := base * 10.0
	if len(history) > 0 {
		score = math.Min(10.0, score+historicalBonus(rainfall, temperature, soilMoisture, history))
	}
	return round2(score), nil
}

// ScoreEnhanced computes the enhanced 0-10 risk score with the per-factor
// contribution breakdown.
func ScoreEnhanced(in EnhancedInput) (Breakdown, error) {
	if err := validateReadings(in.Rainfall, in.Temperature, in.SoilMoisture); err != nil {
		return Breakdown{}, err
	}

	rainfallContrib := rainfallWeight * rainfallRisk(in.Rainfall)
	soilContrib := soilMoistureWeight * soilMoistureRisk(in.SoilMoisture)
	tempContrib := temperatureWeight * temperatureRisk(in.Temperature)
	terrainContrib := terrainWeight * terrainRisk(in.TerrainType)
	vegContrib := vegetationWeight * vegetationRisk(in.VegetationDensity)

	score := (rainfallContrib + soilContrib + tempContrib + terrainContrib + vegContrib) * 10.0

	var historicalContrib float64
	if len(in.History) > 0 {
		historicalContrib = historicalBonus(in.Rainfall, in.Temperature, in.SoilMoisture, in.History)
		score = math.Min(10.0, score+historicalContrib)
	}

	return Breakdown{
		RiskScore: round1(score),
		Factors: Factors{
			Rainfall:     round1(rainfallContrib * 10.0),
			SoilMoisture: round1(soilContrib * 10.0),
			Temperature:  round1(tempContrib * 10.0),
			Terrain:      round1(terrainContrib * 10.0),
			Vegetation:   round1(vegContrib * 10.0),
			Historical:   round1(historicalContrib),
		},
	}, nil
}

// rainfallRisk normalizes rainfall in mm: 0-25 low, 25-100 medium, >100 saturates.
func rainfallRisk(mm float64) float64 {
	return math.Min(1.0, mm/100.0)
}

// soilMoistureRisk normalizes soil moisture percentage: <20 low, 20-60 medium, >60 high.
func soilMoistureRisk(pct float64) float64 {
	return math.Min(1.0, pct/100.0)
}

// temperatureRisk grows with deviation from the 15C stability optimum.
func temperatureRisk(celsius float64) float64 {
	return math.Min(1.0, math.Abs(celsius-15.0)/20.0)
}

// terrainRisk maps the terrain description to a stability risk factor.
// Substring match so "mountain pass" and "rocky mountain" both qualify.
func terrainRisk(terrainType string) float64 {
	t := strings.ToLower(terrainType)
	switch {
	case strings.Contains(t, "mountain"):
		return 0.9
	case strings.Contains(t, "hill"):
		return 0.6
	case strings.Contains(t, "plain"):
		return 0.2
	default:
		return 0.5
	}
}

// vegetationRisk is the inverse of vegetation density: rooted soil slides less.
func vegetationRisk(density *float64) float64 {
	if density == nil {
		return 0.5
	}
	return 1.0 - math.Min(1.0, *density/100.0)
}

// historicalBonus counts past events whose conditions fall within the
// similarity windows of the current readings and returns ratio*2 (0-2 scale).
func historicalBonus(rainfall, temperature, soilMoisture float64, history []Conditions) float64 {
	if len(history) == 0 {
		return 0
	}
	similar := 0
	for _, h := range history {
		if math.Abs(h.Rainfall-rainfall) < historyRainfallWindow &&
			math.Abs(h.Temperature-temperature) < historyTemperatureWindow &&
			math.Abs(h.SoilMoisture-soilMoisture) < historySoilMoistureWindow {
			similar++
		}
	}
	return float64(similar) / float64(len(history)) * 2.0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
