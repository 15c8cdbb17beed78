package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upgeo/slopewatch/internal/model"
)

func TestGenerateAlert_ThresholdLadder(t *testing.T) {
	loc := model.LatLng{Lat: 25.1, Lng: 82.5}
	now := time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		score     float64
		wantLevel int // 0 means no alert
	}{
		{10.0, 10},
		{7.0, 10}, // boundary is inclusive
		{6.99, 8},
		{5.0, 8},
		{4.99, 5},
		{3.0, 5},
		{2.99, 0},
		{0, 0},
	}

	for _, c := range cases {
		a := GenerateAlert(c.score, loc, now)
		if c.wantLevel == 0 {
			assert.Nil(t, a, "score %.2f", c.score)
			continue
		}
		require.NotNil(t, a, "score %.2f", c.score)
		assert.Equal(t, c.wantLevel, a.RiskLevel, "score %.2f", c.score)
		assert.True(t, a.IsActive)
		assert.Equal(t, loc, a.Location)
		assert.Equal(t, now, a.Timestamp)
	}
}

func TestGenerateAlert_Messages(t *testing.T) {
	loc := model.LatLng{}
	now := time.Now()

	assert.Contains(t, GenerateAlert(8.2, loc, now).Message, "CRITICAL")
	assert.Contains(t, GenerateAlert(5.5, loc, now).Message, "HIGH")
	assert.Contains(t, GenerateAlert(3.3, loc, now).Message, "MODERATE")
}
