package imagery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestAnalyzeImages(t *testing.T) {
	dir := t.TempDir()
	before := writeImage(t, dir, "before.jpg", 4096)
	after := writeImage(t, dir, "after.jpg", 8192)

	result, err := AnalyzeImages(before, after)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.BeforePrediction, 0.2)
	assert.Less(t, result.BeforePrediction, 0.5)
	assert.GreaterOrEqual(t, result.AfterPrediction, 0.4)
	assert.Less(t, result.AfterPrediction, 0.8)
	assert.GreaterOrEqual(t, result.RiskScore, 0.0)
	assert.LessOrEqual(t, result.RiskScore, 9.5)
	assert.Contains(t, []string{"Low", "Medium", "High"}, result.RiskLevel)
}

func TestAnalyzeImagesDeterministic(t *testing.T) {
	dir := t.TempDir()
	before := writeImage(t, dir, "before.jpg", 1000)
	after := writeImage(t, dir, "after.jpg", 2000)

	first, err := AnalyzeImages(before, after)
	require.NoError(t, err)
	second, err := AnalyzeImages(before, after)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeImagesMissingFile(t *testing.T) {
	dir := t.TempDir()
	after := writeImage(t, dir, "after.jpg", 100)

	_, err := AnalyzeImages(filepath.Join(dir, "nope.jpg"), after)
	assert.Error(t, err)

	_, err = AnalyzeImages(after, filepath.Join(dir, "nope.jpg"))
	assert.Error(t, err)
}

func TestPredictProbability(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir, "slope.jpg", 3000)

	pred, err := PredictProbability(img)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pred.Probability, 0.3)
	assert.Less(t, pred.Probability, 0.7)
	assert.Contains(t, []string{"Low", "Medium", "High"}, pred.RiskLevel)

	// Same file scores the same every time.
	again, err := PredictProbability(img)
	require.NoError(t, err)
	assert.Equal(t, pred, again)
}

func TestPredictProbabilityMissingFile(t *testing.T) {
	_, err := PredictProbability(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestChangeLevel(t *testing.T) {
	assert.Equal(t, "Low", changeLevel(0))
	assert.Equal(t, "Low", changeLevel(3))
	assert.Equal(t, "Medium", changeLevel(3.1))
	assert.Equal(t, "Medium", changeLevel(6))
	assert.Equal(t, "High", changeLevel(6.1))
}
