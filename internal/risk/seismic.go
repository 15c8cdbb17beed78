package risk

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/upgeo/slopewatch/internal/model"
)

// seismicRegions lists the districts the synthetic seismograph covers, with
// their coordinates and per-region baselines.
var seismicRegions = []string{
	"Mirzapur", "Sonbhadra", "Chandauli", "Varanasi", "Chitrakoot", "Allahabad",
}

var regionCoordinates = map[string]model.LatLng{
	"Mirzapur":   {Lat: 25.1464, Lng: 82.5697},
	"Sonbhadra":  {Lat: 24.6772, Lng: 83.0593},
	"Chandauli":  {Lat: 25.2571, Lng: 83.2760},
	"Varanasi":   {Lat: 25.3176, Lng: 82.9739},
	"Chitrakoot": {Lat: 25.2138, Lng: 80.9019},
	"Allahabad":  {Lat: 25.4358, Lng: 81.8463},
}

var regionBaseMagnitude = map[string]float64{
	"Mirzapur":   0.8,
	"Sonbhadra":  1.2,
	"Chandauli":  0.5,
	"Varanasi":   0.4,
	"Chitrakoot": 1.0,
	"Allahabad":  0.6,
}

var regionBaseDepth = map[string]float64{
	"Mirzapur":   8,
	"Sonbhadra":  12,
	"Chandauli":  7,
	"Varanasi":   5,
	"Chitrakoot": 15,
	"Allahabad":  9,
}

// Regions returns the monitored seismic region names.
func Regions() []string {
	out := make([]string, len(seismicRegions))
	copy(out, seismicRegions)
	return out
}

// RegionCoordinates returns the coordinates of a named region, with a
// basin-center fallback for unknown names.
func RegionCoordinates(region string) model.LatLng {
	if c, ok := regionCoordinates[region]; ok {
		return c
	}
	return model.LatLng{Lat: 25.0, Lng: 82.0}
}

// SeismicSimulator produces synthetic seismograph samples per region.
type SeismicSimulator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewSeismicSimulator creates a simulator. A nil rng gets a time-seeded source.
func NewSeismicSimulator(rng *rand.Rand) *SeismicSimulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SeismicSimulator{rng: rng, now: time.Now}
}

// Generate returns readings for the past hours window, newest first. An empty
// region means all regions; an unrecognized region yields no readings.
func (s *SeismicSimulator) Generate(region string, hours int) []model.SeismicReading {
	regions := seismicRegions
	if region != "" {
		if _, ok := regionCoordinates[region]; !ok {
			return nil
		}
		regions = []string{region}
	}

	current := s.now().UTC()
	var out []model.SeismicReading

	for _, r := range regions {
		baseMag, ok := regionBaseMagnitude[r]
		if !ok {
			baseMag = 0.7
		}
		baseDepth, ok := regionBaseDepth[r]
		if !ok {
			baseDepth = 10
		}

		for hour := 0; hour < hours; hour++ {
			// Recent hours carry more samples.
			pointsPerHour := (hours - hour) / 2
			if pointsPerHour < 1 {
				pointsPerHour = 1
			} else if pointsPerHour > 6 {
				pointsPerHour = 6
			}

			for i := 0; i < pointsPerHour; i++ {
				offset := time.Duration(hour)*time.Hour + time.Duration(i*(60/pointsPerHour))*time.Minute
				ts := current.Add(-offset)

				hourFactor := math.Abs(math.Sin(float64(ts.Hour())/24.0*math.Pi)) * 0.3
				randomFactor := s.rng.Float64()*0.6 - 0.2

				magnitude := baseMag + hourFactor + randomFactor
				magnitude = math.Max(0.1, math.Min(5.0, magnitude))

				// Occasional aftershock decay within the hour.
				if s.rng.Float64() < 0.1 && i > 0 {
					magnitude += 0.8 * math.Exp(-float64(i)/5)
				}

				depth := baseDepth + s.rng.Float64()*6 - 3
				depth = math.Max(2, depth)

				out = append(out, model.SeismicReading{
					Region:    r,
					Timestamp: ts,
					Magnitude: round2(magnitude),
					Depth:     round1(depth),
					Location:  RegionCoordinates(r),
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
