package sensor

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestSimulator(seed int64, month time.Month) *Simulator {
	s := New(rand.New(rand.NewSource(seed)))
	return s.WithClock(func() time.Time {
		return time.Date(2025, month, 10, 8, 30, 0, 0, time.UTC)
	})
}

func TestReading_Constraints(t *testing.T) {
	for _, month := range []time.Month{time.January, time.July} {
		s := newTestSimulator(1, month)
		for i := 0; i < 500; i++ {
			r := s.Reading(-1)
			assert.GreaterOrEqual(t, r.Rainfall, 0.0)
			assert.GreaterOrEqual(t, r.SoilMoisture, 0.0)
			assert.LessOrEqual(t, r.SoilMoisture, 100.0)
		}
	}
}

func TestReading_SiteSelection(t *testing.T) {
	s := newTestSimulator(2, time.March)

	r := s.Reading(1) // Chitrakoot Mountain Pass
	assert.InDelta(t, DefaultSites[1].Lat, r.Location.Lat, 0.006)
	assert.InDelta(t, DefaultSites[1].Lng, r.Location.Lng, 0.006)
}

func TestReading_MonsoonWetterThanDrySeason(t *testing.T) {
	const n = 1000
	avg := func(month time.Month) float64 {
		s := newTestSimulator(3, month)
		total := 0.0
		for i := 0; i < n; i++ {
			total += s.Reading(0).Rainfall
		}
		return total / n
	}

	assert.Greater(t, avg(time.July), avg(time.December))
}

func TestReading_Deterministic(t *testing.T) {
	a := newTestSimulator(42, time.August).Reading(2)
	b := newTestSimulator(42, time.August).Reading(2)
	assert.Equal(t, a, b)
}
