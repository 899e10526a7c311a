package psychometrics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

const (
	// retireDiscrimination retires items that anti-correlate with overall
	// performance.
	retireDiscrimination = -0.10

	// pValue bounds outside which an item carries no information.
	minPValue = 0.05
	maxPValue = 0.95
)

// ItemResponse is one answered response to an item, paired with the overall
// session percentage for discrimination analysis.
type ItemResponse struct {
	Fraction          float64
	SessionPercentage float64
}

// ResponseSource loads the response data the analyzer works over.
// Implemented by repository.AnswerRepository.
type ResponseSource interface {
	ItemResponses(ctx context.Context, questionID uuid.UUID) ([]ItemResponse, error)
	QuestionsAnsweredSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// StatsStore persists item statistics. Get returns (nil, nil) when no row
// exists yet.
type StatsStore interface {
	Get(ctx context.Context, questionID uuid.UUID) (*model.ItemStatistics, error)
	Upsert(ctx context.Context, stats *model.ItemStatistics) error
}

// ReliabilitySource provides per-competency item variance aggregates for the
// alpha computation.
type ReliabilitySource interface {
	ItemVariances(ctx context.Context, competencyID uuid.UUID) (itemVars []float64, totalVar float64, err error)
}

// TaxonomySource maps audited questions back to the competencies they
// evidence. Implemented by repository.CatalogRepository.
type TaxonomySource interface {
	CompetenciesForQuestions(ctx context.Context, questionIDs []uuid.UUID) ([]model.Competency, error)
}

// CompetencyReliabilityEntry is one competency's recomputed alpha.
type CompetencyReliabilityEntry struct {
	CompetencyID uuid.UUID `json:"competency_id"`
	Name         string    `json:"name"`
	TraitCode    *string   `json:"trait_code,omitempty"`
	Alpha        float64   `json:"alpha"`
}

// AuditSummary reports one audit run.
type AuditSummary struct {
	ItemsExamined         int                          `json:"items_examined"`
	ItemsUpdated          int                          `json:"items_updated"`
	ItemsFailed           int                          `json:"items_failed"`
	Retired               int                          `json:"retired"`
	CompetencyReliability []CompetencyReliabilityEntry `json:"competency_reliability,omitempty"`
	TraitReliability      map[string]float64           `json:"trait_reliability,omitempty"`
	StartedAt             time.Time                    `json:"started_at"`
	FinishedAt            time.Time                    `json:"finished_at"`
}

// Analyzer recomputes item statistics, reliability and validity status. Each
// item is processed in isolation so one failure never aborts the batch.
type Analyzer struct {
	responses    ResponseSource
	stats        StatsStore
	reliability  ReliabilitySource
	taxonomy     TaxonomySource
	minResponses int
	log          zerolog.Logger
}

// NewAnalyzer creates the psychometric analysis service.
func NewAnalyzer(
	responses ResponseSource,
	stats StatsStore,
	reliability ReliabilitySource,
	taxonomy TaxonomySource,
	minResponses int,
	log zerolog.Logger,
) *Analyzer {
	if minResponses < 1 {
		minResponses = 30
	}
	return &Analyzer{
		responses:    responses,
		stats:        stats,
		reliability:  reliability,
		taxonomy:     taxonomy,
		minResponses: minResponses,
		log:          log.With().Str("component", "psychometric_analyzer").Logger(),
	}
}

// RunAudit recomputes statistics for every question with responses since the
// given time.
func (a *Analyzer) RunAudit(ctx context.Context, since time.Time) (*AuditSummary, error) {
	summary := &AuditSummary{StartedAt: time.Now().UTC()}

	ids, err := a.responses.QuestionsAnsweredSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list questions with new responses: %w", err)
	}

	for _, id := range ids {
		summary.ItemsExamined++
		stats, err := a.RecomputeItem(ctx, id)
		if err != nil {
			summary.ItemsFailed++
			a.log.Error().Err(err).Str("question_id", id.String()).Msg("Item recompute failed")
			continue
		}
		summary.ItemsUpdated++
		if stats.Validity == model.ValidityRetired {
			summary.Retired++
		}
	}

	a.recomputeReliability(ctx, ids, summary)

	summary.FinishedAt = time.Now().UTC()
	a.log.Info().
		Int("examined", summary.ItemsExamined).
		Int("updated", summary.ItemsUpdated).
		Int("failed", summary.ItemsFailed).
		Int("retired", summary.Retired).
		Int("competencies_rescored", len(summary.CompetencyReliability)).
		Msg("Psychometric audit completed")
	return summary, nil
}

// recomputeReliability rebuilds alpha for every competency the audited
// questions evidence, then averages per Big Five trait code. Failures are
// logged and skipped so the item pass above still stands.
func (a *Analyzer) recomputeReliability(ctx context.Context, questionIDs []uuid.UUID, summary *AuditSummary) {
	if len(questionIDs) == 0 {
		return
	}

	competencies, err := a.taxonomy.CompetenciesForQuestions(ctx, questionIDs)
	if err != nil {
		a.log.Error().Err(err).Msg("Competency lookup for reliability pass failed")
		return
	}
	sort.Slice(competencies, func(i, j int) bool { return competencies[i].Name < competencies[j].Name })

	traitSums := make(map[string]float64)
	traitCounts := make(map[string]int)
	for _, c := range competencies {
		alpha, err := a.CompetencyReliability(ctx, c.ID)
		if err != nil {
			a.log.Error().Err(err).Str("competency_id", c.ID.String()).Msg("Reliability recompute failed")
			continue
		}
		summary.CompetencyReliability = append(summary.CompetencyReliability, CompetencyReliabilityEntry{
			CompetencyID: c.ID,
			Name:         c.Name,
			TraitCode:    c.TraitCode,
			Alpha:        alpha,
		})
		if c.TraitCode != nil {
			traitSums[*c.TraitCode] += alpha
			traitCounts[*c.TraitCode]++
		}
	}

	if len(traitCounts) == 0 {
		return
	}
	summary.TraitReliability = make(map[string]float64, len(traitCounts))
	for code, n := range traitCounts {
		summary.TraitReliability[code] = traitSums[code] / float64(n)
	}
}

// RecomputeItem rebuilds one question's statistics and validity status.
func (a *Analyzer) RecomputeItem(ctx context.Context, questionID uuid.UUID) (*model.ItemStatistics, error) {
	responses, err := a.responses.ItemResponses(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	now := time.Now().UTC()
	stats := &model.ItemStatistics{
		QuestionID:       questionID,
		ResponseCount:    len(responses),
		PValue:           pValue(responses),
		Discrimination:   pointBiserial(responses),
		LastCalculatedAt: &now,
	}
	stats.Validity = a.classify(stats)

	if err := a.stats.Upsert(ctx, stats); err != nil {
		return nil, fmt.Errorf("upsert statistics: %w", err)
	}
	return stats, nil
}

// classify applies the validity transitions: PROBATION until enough
// responses, RETIRED on non-informative or anti-correlated items, ACTIVE
// otherwise.
func (a *Analyzer) classify(stats *model.ItemStatistics) model.ValidityStatus {
	if stats.ResponseCount < a.minResponses {
		return model.ValidityProbation
	}
	if stats.Discrimination < retireDiscrimination {
		return model.ValidityRetired
	}
	if stats.PValue < minPValue || stats.PValue > maxPValue {
		return model.ValidityRetired
	}
	return model.ValidityActive
}

// CompetencyReliability approximates Cronbach's alpha for a competency from
// its item variances.
func (a *Analyzer) CompetencyReliability(ctx context.Context, competencyID uuid.UUID) (float64, error) {
	itemVars, totalVar, err := a.reliability.ItemVariances(ctx, competencyID)
	if err != nil {
		return 0, fmt.Errorf("item variances: %w", err)
	}
	k := len(itemVars)
	if k < 2 || totalVar <= 0 {
		return 0, nil
	}

	var sum float64
	for _, v := range itemVars {
		sum += v
	}
	alpha := float64(k) / float64(k-1) * (1 - sum/totalVar)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return alpha, nil
}

// pValue is the mean score fraction across responses.
func pValue(responses []ItemResponse) float64 {
	if len(responses) == 0 {
		return 0
	}
	var sum float64
	for _, r := range responses {
		sum += r.Fraction
	}
	return sum / float64(len(responses))
}

// pointBiserial correlates item performance with overall session performance.
func pointBiserial(responses []ItemResponse) float64 {
	n := len(responses)
	if n < 2 {
		return 0
	}

	var sumX, sumY float64
	for _, r := range responses {
		sumX += r.Fraction
		sumY += r.SessionPercentage
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for _, r := range responses {
		dx := r.Fraction - meanX
		dy := r.SessionPercentage - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
