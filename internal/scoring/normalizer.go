package scoring

import (
	"fmt"

	"github.com/psymetric/psymetric-backend/internal/model"
)

const (
	// defaultLikertPoints is the likert scale used when a question carries no
	// explicit options (1..5 mapped to 0..4 points).
	defaultLikertPoints = 4

	// defaultRubricMax bounds open-text scores when no rubric max is authored.
	defaultRubricMax = 5.0
)

// NormalizeAnswer converts a raw answer into a (score, maxScore) pair in a
// bounded range, according to the question's response format:
//
//   - SINGLE_CHOICE: the selected option's authored score against the highest
//     option score.
//   - LIKERT: the 1..N value scaled to 0..N-1 points against the scale span.
//   - OPEN_TEXT: the rubric-graded score already on the answer, against the
//     rubric maximum.
func NormalizeAnswer(q *model.AssessmentQuestion, a *model.TestAnswer) (float64, float64, error) {
	switch q.QuestionType {
	case model.QuestionTypeSingleChoice:
		if a.SelectedOption == nil {
			return 0, 0, fmt.Errorf("question %s: no option selected", q.ID)
		}
		max := q.MaxOptionScore()
		if max <= 0 {
			return 0, 0, fmt.Errorf("question %s: no scorable options", q.ID)
		}
		score, ok := q.OptionScore(*a.SelectedOption)
		if !ok {
			return 0, 0, fmt.Errorf("question %s: unknown option %q", q.ID, *a.SelectedOption)
		}
		return clamp(score, 0, max), max, nil

	case model.QuestionTypeLikert:
		if a.LikertValue == nil {
			return 0, 0, fmt.Errorf("question %s: no likert value", q.ID)
		}
		points := defaultLikertPoints
		if n := len(q.Options); n > 1 {
			points = n - 1
		}
		v := float64(*a.LikertValue - 1)
		return clamp(v, 0, float64(points)), float64(points), nil

	case model.QuestionTypeOpenText:
		max := defaultRubricMax
		if q.RubricMaxScore != nil && *q.RubricMaxScore > 0 {
			max = *q.RubricMaxScore
		}
		// Rubric grading happens out of band; an ungraded text answer
		// contributes zero against the rubric maximum.
		var score float64
		if a.Score != nil {
			score = *a.Score
		}
		return clamp(score, 0, max), max, nil

	default:
		return 0, 0, fmt.Errorf("question %s: unsupported type %q", q.ID, q.QuestionType)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
