package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

func TestApplyConfidenceIntervals(t *testing.T) {
	scores := []model.CompetencyScore{
		{Percentage: 50, QuestionsAnswered: 4},
		{Percentage: 100, QuestionsAnswered: 10},
		{Percentage: 80, QuestionsAnswered: 0},
	}
	ApplyConfidenceIntervals(scores)

	require.NotNil(t, scores[0].ConfidenceLow)
	require.NotNil(t, scores[0].ConfidenceHigh)
	// half-width = 1.96 * sqrt(0.25/4) * 100 = 49
	assert.Equal(t, 1.0, *scores[0].ConfidenceLow)
	assert.Equal(t, 99.0, *scores[0].ConfidenceHigh)

	// A degenerate proportion collapses the interval.
	assert.Equal(t, 100.0, *scores[1].ConfidenceLow)
	assert.Equal(t, 100.0, *scores[1].ConfidenceHigh)

	// No answered questions means no interval.
	assert.Nil(t, scores[2].ConfidenceLow)
	assert.Nil(t, scores[2].ConfidenceHigh)
}

func TestApplyConfidenceIntervalsClampsToRange(t *testing.T) {
	scores := []model.CompetencyScore{{Percentage: 95, QuestionsAnswered: 2}}
	ApplyConfidenceIntervals(scores)

	assert.GreaterOrEqual(t, *scores[0].ConfidenceLow, 0.0)
	assert.Equal(t, 100.0, *scores[0].ConfidenceHigh)
}
