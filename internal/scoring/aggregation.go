package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// Catalog batch-loads the taxonomy referenced by an answer set. Implemented
// by repository.CatalogRepository.
type Catalog interface {
	QuestionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AssessmentQuestion, error)
	IndicatorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.BehavioralIndicator, error)
	CompetenciesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Competency, error)
}

// IndicatorAggregation accumulates normalized scores for one indicator within
// a single scoring pass. Never persisted.
type IndicatorAggregation struct {
	IndicatorID  uuid.UUID
	CompetencyID uuid.UUID
	Weight       float64
	Count        int
	TotalScore   float64
	TotalMax     float64
}

// CompetencyAggregation merges indicator aggregations per competency.
type CompetencyAggregation struct {
	CompetencyID uuid.UUID
	Name         string
	Count        int
	TotalScore   float64
	TotalMax     float64
}

// AggregationResult is the output of one aggregation pass. Warnings collect
// soft failures (unresolvable references, unscorable answers) that were
// skipped rather than aborting the batch.
type AggregationResult struct {
	Indicators   map[uuid.UUID]*IndicatorAggregation
	Competencies map[uuid.UUID]*CompetencyAggregation
	Scores       []model.CompetencyScore
	Warnings     []string
}

// Aggregator converts raw answers into per-indicator and per-competency
// scores in four stages: batch-load, normalize-and-aggregate, roll-up,
// score building.
type Aggregator struct {
	catalog Catalog
	log     zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(catalog Catalog, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		catalog: catalog,
		log:     log.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate runs the full pipeline over an answer set. Skipped and unanswered
// answers are excluded; per-answer failures are logged and skipped so the
// batch always completes with best-effort data.
func (g *Aggregator) Aggregate(ctx context.Context, answers []model.TestAnswer) (*AggregationResult, error) {
	res := &AggregationResult{
		Indicators:   make(map[uuid.UUID]*IndicatorAggregation),
		Competencies: make(map[uuid.UUID]*CompetencyAggregation),
	}

	questionIDs := make([]uuid.UUID, 0, len(answers))
	for i := range answers {
		if answers[i].Answered() {
			questionIDs = append(questionIDs, answers[i].QuestionID)
		}
	}
	if len(questionIDs) == 0 {
		return res, nil
	}

	// Stage 1: batch-load everything the answer set references.
	questions, err := g.catalog.QuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	indicatorIDs := make([]uuid.UUID, 0, len(questions))
	seen := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		if !seen[q.IndicatorID] {
			seen[q.IndicatorID] = true
			indicatorIDs = append(indicatorIDs, q.IndicatorID)
		}
	}
	indicators, err := g.catalog.IndicatorsByIDs(ctx, indicatorIDs)
	if err != nil {
		return nil, fmt.Errorf("load indicators: %w", err)
	}

	competencyIDs := make([]uuid.UUID, 0, len(indicators))
	seen = make(map[uuid.UUID]bool, len(indicators))
	for _, ind := range indicators {
		if !seen[ind.CompetencyID] {
			seen[ind.CompetencyID] = true
			competencyIDs = append(competencyIDs, ind.CompetencyID)
		}
	}
	competencies, err := g.catalog.CompetenciesByIDs(ctx, competencyIDs)
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}

	// Stage 2: normalize and aggregate per indicator.
	g.normalizeAndAggregate(answers, questions, res)

	// Stage 3: roll indicator aggregations up to competencies.
	g.rollUpToCompetencies(indicators, competencies, res)

	// Stage 4: build competency score DTOs.
	res.Scores = buildCompetencyScores(res.Competencies)

	return res, nil
}

func (g *Aggregator) normalizeAndAggregate(
	answers []model.TestAnswer,
	questions map[uuid.UUID]model.AssessmentQuestion,
	res *AggregationResult,
) {
	for i := range answers {
		a := &answers[i]
		if !a.Answered() {
			continue
		}

		q, ok := questions[a.QuestionID]
		if !ok {
			g.warn(res, "answer %s references unknown question %s", a.ID, a.QuestionID)
			continue
		}

		score, max, err := NormalizeAnswer(&q, a)
		if err != nil {
			g.warn(res, "skipping answer %s: %v", a.ID, err)
			continue
		}

		agg, ok := res.Indicators[q.IndicatorID]
		if !ok {
			agg = &IndicatorAggregation{IndicatorID: q.IndicatorID}
			res.Indicators[q.IndicatorID] = agg
		}
		agg.Count++
		agg.TotalScore += score
		agg.TotalMax += max
	}
}

func (g *Aggregator) rollUpToCompetencies(
	indicators map[uuid.UUID]model.BehavioralIndicator,
	competencies map[uuid.UUID]model.Competency,
	res *AggregationResult,
) {
	for id, agg := range res.Indicators {
		ind, ok := indicators[id]
		if !ok {
			g.warn(res, "indicator %s not found, dropping %d answers from roll-up", id, agg.Count)
			continue
		}
		agg.CompetencyID = ind.CompetencyID
		agg.Weight = ind.Weight

		comp, ok := competencies[ind.CompetencyID]
		if !ok {
			g.warn(res, "competency %s not found for indicator %s", ind.CompetencyID, id)
			continue
		}

		cAgg, ok := res.Competencies[comp.ID]
		if !ok {
			cAgg = &CompetencyAggregation{CompetencyID: comp.ID, Name: comp.Name}
			res.Competencies[comp.ID] = cAgg
		}
		cAgg.Count += agg.Count
		cAgg.TotalScore += agg.TotalScore
		cAgg.TotalMax += agg.TotalMax
	}
}

func buildCompetencyScores(aggs map[uuid.UUID]*CompetencyAggregation) []model.CompetencyScore {
	scores := make([]model.CompetencyScore, 0, len(aggs))
	for _, agg := range aggs {
		var pct float64
		if agg.TotalMax > 0 {
			pct = clamp(agg.TotalScore/agg.TotalMax*100, 0, 100)
		}
		scores = append(scores, model.CompetencyScore{
			CompetencyID:      agg.CompetencyID,
			Name:              agg.Name,
			Score:             round2(agg.TotalScore),
			MaxScore:          round2(agg.TotalMax),
			Percentage:        round2(pct),
			QuestionsAnswered: agg.Count,
		})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Name < scores[j].Name })
	return scores
}

// ApplyEvidenceSufficiency flags competencies whose answered-question count is
// below minQuestions. Advisory metadata only, never an error.
func ApplyEvidenceSufficiency(scores []model.CompetencyScore, minQuestions int) {
	for i := range scores {
		if scores[i].QuestionsAnswered < minQuestions {
			scores[i].InsufficientEvidence = true
			scores[i].EvidenceNote = fmt.Sprintf(
				"based on %d answered question(s); at least %d recommended for a reliable estimate",
				scores[i].QuestionsAnswered, minQuestions)
		}
	}
}

func (g *Aggregator) warn(res *AggregationResult, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	g.log.Warn().Msg(msg)
	res.Warnings = append(res.Warnings, msg)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
