package risk

import (
	"time"

	"github.com/upgeo/slopewatch/internal/model"
)

// Alert thresholds. Comparisons are >= so a score sitting exactly on a
// boundary takes the higher tier.
const (
	CriticalThreshold = 7.0
	HighThreshold     = 5.0
	ModerateThreshold = 3.0
)

const (
	criticalMessage = "CRITICAL ALERT: Very high landslide risk detected. Immediate evacuation recommended."
	highMessage     = "HIGH ALERT: Significant landslide risk detected. Prepare for possible evacuation."
	moderateMessage = "MODERATE ALERT: Elevated landslide risk. Monitor conditions closely."
)

// GenerateAlert maps a risk score to an alert record, or nil when the score
// is below the moderate threshold. Every call above threshold produces a new
// alert; there is no deduplication or hysteresis.
func GenerateAlert(riskScore float64, location model.LatLng, now time.Time) *model.Alert {
	var level int
	var message string

	switch {
	case riskScore >= CriticalThreshold:
		level, message = 10, criticalMessage
	case riskScore >= HighThreshold:
		level, message = 8, highMessage
	case riskScore >= ModerateThreshold:
		level, message = 5, moderateMessage
	default:
		return nil
	}

	return &model.Alert{
		Timestamp: now.UTC(),
		RiskLevel: level,
		Message:   message,
		Location:  location,
		IsActive:  true,
	}
}
