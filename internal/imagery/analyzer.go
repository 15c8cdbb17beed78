// Package imagery provides the demo stand-in for the before/after landslide
// image comparison. There is no real model: predictions are pseudorandom but
// stable for a given pair of files, seeded from file size and mtime so
// repeated uploads of the same images produce the same result.
package imagery

import (
	"math"
	"math/rand"
	"os"

	"github.com/rotisserie/eris"
)

// Analysis is the result of comparing a before/after image pair.
type Analysis struct {
	BeforePrediction float64 `json:"before_prediction"`
	AfterPrediction  float64 `json:"after_prediction"`
	RiskScore        float64 `json:"risk_score"`
	RiskLevel        string  `json:"risk_level"`
}

// Prediction is the result of scoring a single image.
type Prediction struct {
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
}

// AnalyzeImages compares a before/after pair and derives a change-based risk
// score. Larger prediction difference means more terrain change.
func AnalyzeImages(beforePath, afterPath string) (Analysis, error) {
	beforeStat, err := os.Stat(beforePath)
	if err != nil {
		return Analysis{}, eris.Wrapf(err, "imagery: stat before image %s", beforePath)
	}
	afterStat, err := os.Stat(afterPath)
	if err != nil {
		return Analysis{}, eris.Wrapf(err, "imagery: stat after image %s", afterPath)
	}

	seed := beforeStat.Size() + afterStat.Size() +
		beforeStat.ModTime().Unix() + afterStat.ModTime().Unix()
	rng := rand.New(rand.NewSource(seed))

	before := uniform(rng, 0.2, 0.5)
	after := uniform(rng, 0.4, 0.8)
	score := math.Min(9.5, math.Abs(after-before)*10)

	return Analysis{
		BeforePrediction: before,
		AfterPrediction:  after,
		RiskScore:        score,
		RiskLevel:        changeLevel(score),
	}, nil
}

// PredictProbability scores a single image for landslide likelihood.
func PredictProbability(path string) (Prediction, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Prediction{}, eris.Wrapf(err, "imagery: stat image %s", path)
	}

	rng := rand.New(rand.NewSource(stat.Size() + stat.ModTime().Unix()))
	p := uniform(rng, 0.3, 0.7)

	level := "Low"
	switch {
	case p > 0.6:
		level = "High"
	case p > 0.3:
		level = "Medium"
	}

	return Prediction{Probability: p, RiskLevel: level}, nil
}

func changeLevel(score float64) string {
	switch {
	case score > 6:
		return "High"
	case score > 3:
		return "Medium"
	default:
		return "Low"
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
