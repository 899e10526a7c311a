package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

const (
	// defaultQuestionSeconds is assumed for questions without an authored
	// time limit.
	defaultQuestionSeconds = 60

	// recommendedInventory is the minimum available-question count per
	// competency before inventory health warnings fire.
	recommendedInventory = 5
)

// Catalog loads the taxonomy slice a simulation needs. Implemented by
// repository.CatalogRepository.
type Catalog interface {
	QuestionsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AssessmentQuestion, error)
	IndicatorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.BehavioralIndicator, error)
	CompetenciesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Competency, error)
}

// QuestionOutcome is one simulated response.
type QuestionOutcome struct {
	QuestionID  uuid.UUID        `json:"question_id"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Probability float64          `json:"probability"`
	Correct     bool             `json:"correct"`
}

// CompetencyOutcome is the per-competency simulation breakdown.
type CompetencyOutcome struct {
	CompetencyID   uuid.UUID `json:"competency_id"`
	Name           string    `json:"name"`
	Questions      int       `json:"questions"`
	Correct        int       `json:"correct"`
	PercentCorrect float64   `json:"percent_correct"`
}

// InventoryWarning flags thin question inventory for a competency.
type InventoryWarning struct {
	Severity     string    `json:"severity"`
	CompetencyID uuid.UUID `json:"competency_id"`
	Name         string    `json:"name"`
	Available    int       `json:"available_questions"`
	Message      string    `json:"message"`
}

// Report is the full outcome of one persona dry run.
type Report struct {
	Profile                  string                   `json:"profile"`
	AbilityLevel             int                      `json:"ability_level"`
	Seed                     int64                    `json:"seed"`
	TotalQuestions           int                      `json:"total_questions"`
	SimulatedScore           int                      `json:"simulated_score"`
	EstimatedDurationMinutes int                      `json:"estimated_duration_minutes"`
	ByDifficulty             map[model.Difficulty]int `json:"composition_by_difficulty"`
	Outcomes                 []QuestionOutcome        `json:"outcomes"`
	PerCompetency            []CompetencyOutcome      `json:"per_competency"`
	Warnings                 []InventoryWarning       `json:"warnings,omitempty"`
}

// Simulator estimates a persona's expected performance on an assembled
// question set before the template is published. All randomness is derived
// from the deterministic seed, so identical inputs give identical reports.
type Simulator struct {
	catalog Catalog
	log     zerolog.Logger
}

// NewSimulator creates a Simulator.
func NewSimulator(catalog Catalog, log zerolog.Logger) *Simulator {
	return &Simulator{
		catalog: catalog,
		log:     log.With().Str("component", "simulator").Logger(),
	}
}

// RunPersonaSimulation simulates one persona over an ordered question set.
func (s *Simulator) RunPersonaSimulation(
	ctx context.Context,
	questionIDs []uuid.UUID,
	profile PersonaProfile,
	abilityLevel int,
) (*Report, error) {
	if len(questionIDs) == 0 {
		return nil, fmt.Errorf("no questions to simulate")
	}
	if abilityLevel < 0 {
		abilityLevel = 0
	}
	if abilityLevel > 100 {
		abilityLevel = 100
	}

	questions, err := s.catalog.QuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	indicatorIDs := make([]uuid.UUID, 0, len(questions))
	seen := map[uuid.UUID]bool{}
	for _, q := range questions {
		if !seen[q.IndicatorID] {
			seen[q.IndicatorID] = true
			indicatorIDs = append(indicatorIDs, q.IndicatorID)
		}
	}
	indicators, err := s.catalog.IndicatorsByIDs(ctx, indicatorIDs)
	if err != nil {
		return nil, fmt.Errorf("load indicators: %w", err)
	}

	competencyIDs := make([]uuid.UUID, 0, len(indicators))
	seen = map[uuid.UUID]bool{}
	for _, ind := range indicators {
		if !seen[ind.CompetencyID] {
			seen[ind.CompetencyID] = true
			competencyIDs = append(competencyIDs, ind.CompetencyID)
		}
	}
	competencies, err := s.catalog.CompetenciesByIDs(ctx, competencyIDs)
	if err != nil {
		return nil, fmt.Errorf("load competencies: %w", err)
	}

	seed := Seed(profile, abilityLevel, questionIDs)
	rng := rand.New(rand.NewSource(seed))

	report := &Report{
		Profile:      profile.String(),
		AbilityLevel: abilityLevel,
		Seed:         seed,
		ByDifficulty: make(map[model.Difficulty]int),
	}

	type compAcc struct {
		name      string
		questions int
		correct   int
	}
	perComp := make(map[uuid.UUID]*compAcc)
	totalSeconds := 0
	correct := 0

	// Question order is part of the seed, so draws are order-dependent and
	// stable for a fixed question set.
	for _, qid := range questionIDs {
		q, ok := questions[qid]
		if !ok {
			return nil, fmt.Errorf("question %s not found", qid)
		}

		compID := uuid.Nil
		if ind, ok := indicators[q.IndicatorID]; ok {
			compID = ind.CompetencyID
		}

		p := ResponseProbability(
			BaseRate(profile, q.Difficulty),
			abilityLevel,
			CompetencyNoise(seed, compID),
		)
		isCorrect := rng.Float64() < p

		report.Outcomes = append(report.Outcomes, QuestionOutcome{
			QuestionID:  qid,
			Difficulty:  q.Difficulty,
			Probability: p,
			Correct:     isCorrect,
		})
		report.ByDifficulty[q.Difficulty]++
		if isCorrect {
			correct++
		}

		secs := defaultQuestionSeconds
		if q.TimeLimitSeconds != nil && *q.TimeLimitSeconds > 0 {
			secs = *q.TimeLimitSeconds
		}
		totalSeconds += secs

		acc, ok := perComp[compID]
		if !ok {
			name := "unknown"
			if comp, ok := competencies[compID]; ok {
				name = comp.Name
			}
			acc = &compAcc{name: name}
			perComp[compID] = acc
		}
		acc.questions++
		if isCorrect {
			acc.correct++
		}
	}

	report.TotalQuestions = len(questionIDs)
	report.SimulatedScore = int(math.Round(float64(correct) / float64(len(questionIDs)) * 100))
	report.EstimatedDurationMinutes = (totalSeconds + 59) / 60

	for id, acc := range perComp {
		report.PerCompetency = append(report.PerCompetency, CompetencyOutcome{
			CompetencyID:   id,
			Name:           acc.name,
			Questions:      acc.questions,
			Correct:        acc.correct,
			PercentCorrect: math.Round(float64(acc.correct)/float64(acc.questions)*10000) / 100,
		})
	}
	sort.Slice(report.PerCompetency, func(i, j int) bool {
		return report.PerCompetency[i].Name < report.PerCompetency[j].Name
	})

	return report, nil
}

// InventoryHealth builds warnings from a heatmap of available question counts
// per competency against the recommended minimum.
func InventoryHealth(counts map[uuid.UUID]int, names map[uuid.UUID]string) []InventoryWarning {
	var warnings []InventoryWarning
	for id, n := range counts {
		if n >= recommendedInventory {
			continue
		}
		severity := "MODERATE"
		if n < 2 {
			severity = "CRITICAL"
		}
		warnings = append(warnings, InventoryWarning{
			Severity:     severity,
			CompetencyID: id,
			Name:         names[id],
			Available:    n,
			Message: fmt.Sprintf("%d eligible question(s) available, %d recommended",
				n, recommendedInventory),
		})
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Name < warnings[j].Name })
	return warnings
}
