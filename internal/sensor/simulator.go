// Package sensor produces synthetic environmental readings for the demo
// deployment, with per-site biases and monsoon seasonality.
package sensor

import (
	"math"
	"math/rand"
	"time"

	"github.com/upgeo/slopewatch/internal/model"
)

// SiteProfile biases the simulated readings for one monitored site.
type SiteProfile struct {
	Name           string
	Lat, Lng       float64
	RainfallFactor float64
	TempFactor     float64
	MoistureFactor float64
	HighRiskChance float64
}

// DefaultSites are the demo deployment sites in Uttar Pradesh.
var DefaultSites = []SiteProfile{
	{
		Name: "Mirzapur Agricultural Valley", Lat: 25.1420, Lng: 82.5625,
		RainfallFactor: 1.0, TempFactor: 1.0, MoistureFactor: 1.2, HighRiskChance: 0.2,
	},
	{
		Name: "Chitrakoot Mountain Pass", Lat: 25.2100, Lng: 80.9150,
		RainfallFactor: 1.3, TempFactor: 0.9, MoistureFactor: 0.8, HighRiskChance: 0.25,
	},
	{
		Name: "Sonbhadra Mining Area", Lat: 24.6750, Lng: 83.0620,
		RainfallFactor: 0.9, TempFactor: 1.1, MoistureFactor: 0.7, HighRiskChance: 0.3,
	},
	{
		Name: "Robertsganj River Bank", Lat: 24.7125, Lng: 83.0680,
		RainfallFactor: 1.0, TempFactor: 1.0, MoistureFactor: 1.4, HighRiskChance: 0.35,
	},
	{
		Name: "Chandauli Forest Reserve", Lat: 25.2550, Lng: 83.2730,
		RainfallFactor: 1.1, TempFactor: 0.95, MoistureFactor: 1.0, HighRiskChance: 0.15,
	},
}

// Simulator generates readings. The rand source and clock are injectable so
// tests can pin both.
type Simulator struct {
	sites []SiteProfile
	rng   *rand.Rand
	now   func() time.Time
}

// New creates a Simulator over the default sites. A nil rng gets a
// time-seeded source.
func New(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{sites: DefaultSites, rng: rng, now: time.Now}
}

// WithClock overrides the simulator clock; used by tests and the seeder.
func (s *Simulator) WithClock(now func() time.Time) *Simulator {
	s.now = now
	return s
}

// Reading simulates one sensor reading. A siteIndex in range selects that
// site; any other value picks a random site.
func (s *Simulator) Reading(siteIndex int) model.SensorReading {
	site := s.sites[s.rng.Intn(len(s.sites))]
	if siteIndex >= 0 && siteIndex < len(s.sites) {
		site = s.sites[siteIndex]
	}

	now := s.now()
	monsoon := isMonsoon(now.Month())
	highRisk := s.rng.Float64() < site.HighRiskChance

	var baseRainfall, baseTemperature, baseMoisture float64
	var rainVar, moistVar float64

	if monsoon {
		baseRainfall = 35.0 * site.RainfallFactor
		baseTemperature = 28.0 * site.TempFactor
		baseMoisture = 50.0 * site.MoistureFactor
		if highRisk {
			rainVar = s.uniform(10.0, 30.0)
			moistVar = s.uniform(10.0, 20.0)
		} else {
			rainVar = s.uniform(-5.0, 15.0)
			moistVar = s.uniform(-5.0, 10.0)
		}
	} else {
		baseRainfall = 8.0 * site.RainfallFactor
		baseTemperature = 32.0 * site.TempFactor
		baseMoisture = 25.0 * site.MoistureFactor
		if highRisk {
			rainVar = s.uniform(5.0, 20.0)
			moistVar = s.uniform(5.0, 15.0)
		} else {
			rainVar = s.uniform(-5.0, 5.0)
			moistVar = s.uniform(-5.0, 5.0)
		}
	}

	tempVar := s.uniform(-3.0, 3.0)

	rainfall := math.Max(0, baseRainfall+rainVar)
	temperature := baseTemperature + tempVar
	moisture := math.Min(100, math.Max(0, baseMoisture+moistVar))

	return model.SensorReading{
		Timestamp:    now.UTC(),
		Rainfall:     round2(rainfall),
		Temperature:  round2(temperature),
		SoilMoisture: round2(moisture),
		Location: model.LatLng{
			Lat: site.Lat + s.uniform(-0.005, 0.005),
			Lng: site.Lng + s.uniform(-0.005, 0.005),
		},
	}
}

// Monsoon season in Uttar Pradesh runs roughly June through September.
func isMonsoon(m time.Month) bool {
	return m >= time.June && m <= time.September
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
