package scoring

import (
	"sort"
	"time"

	"github.com/psymetric/psymetric-backend/internal/model"
)

const (
	// rapidResponseSeconds is the gap below which consecutive answers are
	// considered suspiciously fast.
	rapidResponseSeconds = 3.0

	// straightLineFlagRate flags a session when this share of consecutive
	// answers repeats the same selection.
	straightLineFlagRate = 0.8

	// rapidFlagRate flags a session when this share of answer gaps is rapid.
	rapidFlagRate = 0.5
)

// AnalyzeConsistency detects speed anomalies and straight-lining across a
// session's answers. The score starts at 100 and is reduced by the observed
// anomaly rates.
func AnalyzeConsistency(answers []model.TestAnswer) model.ConsistencyMetrics {
	answered := make([]model.TestAnswer, 0, len(answers))
	for _, a := range answers {
		if a.Answered() {
			answered = append(answered, a)
		}
	}

	metrics := model.ConsistencyMetrics{ConsistencyScore: 100}
	if len(answered) < 2 {
		return metrics
	}

	sort.Slice(answered, func(i, j int) bool {
		return answered[i].AnsweredAt.Before(*answered[j].AnsweredAt)
	})

	metrics.StraightLineRate = round2(straightLineRate(answered))
	metrics.RapidResponseRate = round2(rapidRate(answered))
	metrics.StraightLining = metrics.StraightLineRate >= straightLineFlagRate
	metrics.SpeedAnomaly = metrics.RapidResponseRate >= rapidFlagRate

	penalty := 50*metrics.StraightLineRate + 50*metrics.RapidResponseRate
	metrics.ConsistencyScore = round2(clamp(100-penalty, 0, 100))
	return metrics
}

// straightLineRate is the fraction of consecutive answer pairs that repeat
// the same selection or likert value.
func straightLineRate(answers []model.TestAnswer) float64 {
	repeats := 0
	for i := 1; i < len(answers); i++ {
		if sameResponse(&answers[i-1], &answers[i]) {
			repeats++
		}
	}
	return float64(repeats) / float64(len(answers)-1)
}

func sameResponse(a, b *model.TestAnswer) bool {
	if a.SelectedOption != nil && b.SelectedOption != nil {
		return *a.SelectedOption == *b.SelectedOption
	}
	if a.LikertValue != nil && b.LikertValue != nil {
		return *a.LikertValue == *b.LikertValue
	}
	return false
}

// rapidRate is the fraction of consecutive answer gaps under the rapid
// threshold.
func rapidRate(answers []model.TestAnswer) float64 {
	rapid := 0
	for i := 1; i < len(answers); i++ {
		gap := answers[i].AnsweredAt.Sub(*answers[i-1].AnsweredAt)
		if gap < time.Duration(rapidResponseSeconds*float64(time.Second)) {
			rapid++
		}
	}
	return float64(rapid) / float64(len(answers)-1)
}
