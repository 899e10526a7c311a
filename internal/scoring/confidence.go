package scoring

import (
	"math"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// z95 is the normal quantile for a 95% interval.
const z95 = 1.96

// ApplyConfidenceIntervals attaches a 95% interval to each competency
// percentage, treating the percentage as a proportion estimated from the
// answered-question count. Competencies without answers get no interval.
func ApplyConfidenceIntervals(scores []model.CompetencyScore) {
	for i := range scores {
		n := scores[i].QuestionsAnswered
		if n <= 0 {
			continue
		}
		p := scores[i].Percentage / 100
		half := z95 * math.Sqrt(p*(1-p)/float64(n)) * 100

		lo := round2(clamp(scores[i].Percentage-half, 0, 100))
		hi := round2(clamp(scores[i].Percentage+half, 0, 100))
		scores[i].ConfidenceLow = &lo
		scores[i].ConfidenceHigh = &hi
	}
}
