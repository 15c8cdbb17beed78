package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newSeededScorer(seed int64) *ResilienceScorer {
	return NewResilienceScorer(rand.New(rand.NewSource(seed)))
}

func TestResilience_Bounds(t *testing.T) {
	s := newSeededScorer(1)
	for _, risk := range []float64{0, 2.5, 5, 7.4, 10} {
		for _, name := range []string{"Mirzapur", "Varanasi", "Nowhere"} {
			r := s.Score(name, risk, nil)
			assert.GreaterOrEqual(t, r.ResilienceScore, 0.0)
			assert.LessOrEqual(t, r.ResilienceScore, 10.0)
		}
	}
}

func TestResilience_UnknownLocationUsesDefaultProfile(t *testing.T) {
	s := newSeededScorer(7)
	r := s.Score("Atlantis", 5.0, nil)

	assert.Equal(t, defaultProfile, r.Profile)
	assert.Equal(t, 60.0, r.Profile.BuildingDensity)
	assert.False(t, r.Profile.RecentMaintenance)
}

func TestResilience_DeterministicWithFixedSeed(t *testing.T) {
	a := newSeededScorer(42).Score("Chandauli", 4.0, nil)
	b := newSeededScorer(42).Score("Chandauli", 4.0, nil)
	assert.Equal(t, a.ResilienceScore, b.ResilienceScore)
	assert.Equal(t, a.Factors, b.Factors)
}

func TestResilience_FactorDerivation(t *testing.T) {
	s := newSeededScorer(3)
	r := s.Score("Mirzapur", 6.0, nil)

	// building: age (40-15)/4 = 6.25, density (100-65)/10 = 3.5 -> 4.875
	assert.InDelta(t, 4.88, r.Factors.BuildingResilience, 0.01)
	// transportation: road 7.2, bridge age (50-10)/5 = 8, count 4*1.5 = 6 -> 7.0666
	assert.InDelta(t, 7.07, r.Factors.TransportationResilience, 0.01)
	assert.InDelta(t, 6.0, r.Factors.DrainageResilience, 0.01)
	assert.InDelta(t, 6.8, r.Factors.UtilityResilience, 0.01)
	assert.InDelta(t, 7.5, r.Factors.EmergencyReadiness, 0.01)
	assert.Equal(t, 1.0, r.Factors.MaintenanceBonus)
	// adaptability: 10 - 6*0.5 = 7
	assert.Equal(t, 7.0, r.Factors.RiskAdaptability)
}

func TestResilience_AdaptabilityFloorsAtZero(t *testing.T) {
	s := newSeededScorer(11)
	r := s.Score("Sonbhadra", 10.0, nil)
	assert.Equal(t, 5.0, r.Factors.RiskAdaptability)

	r = s.Score("Sonbhadra", 25.0, nil)
	assert.Equal(t, 0.0, r.Factors.RiskAdaptability)
}

func TestResilience_CustomProfileOverridesLookup(t *testing.T) {
	s := newSeededScorer(5)
	custom := InfrastructureProfile{
		BuildingDensity: 10, BuildingAge: 5, RoadQuality: 95,
		BridgeCount: 7, BridgeAge: 3, DrainCapacity: 90,
		UtilityResilience: 90, EmergencyReadiness: 95, RecentMaintenance: true,
	}
	r := s.Score("Mirzapur", 2.0, &custom)
	assert.Equal(t, custom, r.Profile)

	weak := InfrastructureProfile{BuildingDensity: 100, BuildingAge: 60, RecentMaintenance: false}
	w := s.Score("Mirzapur", 2.0, &weak)
	assert.Greater(t, r.ResilienceScore, w.ResilienceScore)
}

func TestResilience_JitterStaysWithinBand(t *testing.T) {
	// Same inputs across many draws must stay within the ±0.3 perturbation
	// band of each other, since only the perturbation varies.
	s := newSeededScorer(99)
	lo, hi := 11.0, -1.0
	for i := 0; i < 200; i++ {
		v := s.Score("Varanasi", 5.0, nil).ResilienceScore
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	assert.LessOrEqual(t, hi-lo, 0.61)
}
