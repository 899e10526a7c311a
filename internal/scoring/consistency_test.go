package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/psymetric/psymetric-backend/internal/model"
)

func answerAt(at time.Time, likert int) model.TestAnswer {
	return model.TestAnswer{
		ID:          uuid.New(),
		QuestionID:  uuid.New(),
		LikertValue: intPtr(likert),
		AnsweredAt:  &at,
	}
}

func TestAnalyzeConsistencyTooFewAnswers(t *testing.T) {
	m := AnalyzeConsistency(nil)
	assert.Equal(t, 100.0, m.ConsistencyScore)
	assert.False(t, m.StraightLining)
	assert.False(t, m.SpeedAnomaly)

	now := time.Now()
	m = AnalyzeConsistency([]model.TestAnswer{answerAt(now, 3)})
	assert.Equal(t, 100.0, m.ConsistencyScore)
}

func TestAnalyzeConsistencyCleanSession(t *testing.T) {
	base := time.Now()
	answers := []model.TestAnswer{
		answerAt(base, 1),
		answerAt(base.Add(20*time.Second), 4),
		answerAt(base.Add(45*time.Second), 2),
		answerAt(base.Add(70*time.Second), 5),
	}

	m := AnalyzeConsistency(answers)
	assert.Equal(t, 100.0, m.ConsistencyScore)
	assert.False(t, m.StraightLining)
	assert.False(t, m.SpeedAnomaly)
	assert.Equal(t, 0.0, m.StraightLineRate)
	assert.Equal(t, 0.0, m.RapidResponseRate)
}

func TestAnalyzeConsistencyStraightLining(t *testing.T) {
	base := time.Now()
	answers := make([]model.TestAnswer, 0, 5)
	for i := 0; i < 5; i++ {
		answers = append(answers, answerAt(base.Add(time.Duration(i)*30*time.Second), 3))
	}

	m := AnalyzeConsistency(answers)
	assert.True(t, m.StraightLining)
	assert.Equal(t, 1.0, m.StraightLineRate)
	assert.False(t, m.SpeedAnomaly)
	assert.Equal(t, 50.0, m.ConsistencyScore)
}

func TestAnalyzeConsistencySpeedAnomaly(t *testing.T) {
	base := time.Now()
	answers := make([]model.TestAnswer, 0, 5)
	for i := 0; i < 5; i++ {
		answers = append(answers, answerAt(base.Add(time.Duration(i)*time.Second), i+1))
	}

	m := AnalyzeConsistency(answers)
	assert.True(t, m.SpeedAnomaly)
	assert.Equal(t, 1.0, m.RapidResponseRate)
	assert.False(t, m.StraightLining)
	assert.Equal(t, 50.0, m.ConsistencyScore)
}

func TestAnalyzeConsistencyWorstCaseFloorsAtZero(t *testing.T) {
	base := time.Now()
	answers := make([]model.TestAnswer, 0, 6)
	for i := 0; i < 6; i++ {
		answers = append(answers, answerAt(base.Add(time.Duration(i)*time.Second), 3))
	}

	m := AnalyzeConsistency(answers)
	assert.True(t, m.StraightLining)
	assert.True(t, m.SpeedAnomaly)
	assert.Equal(t, 0.0, m.ConsistencyScore)
}
