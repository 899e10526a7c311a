package simulation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

type fixedCatalog struct {
	questions    map[uuid.UUID]model.AssessmentQuestion
	indicators   map[uuid.UUID]model.BehavioralIndicator
	competencies map[uuid.UUID]model.Competency
}

func (f *fixedCatalog) QuestionsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AssessmentQuestion, error) {
	out := map[uuid.UUID]model.AssessmentQuestion{}
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fixedCatalog) IndicatorsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.BehavioralIndicator, error) {
	out := map[uuid.UUID]model.BehavioralIndicator{}
	for _, id := range ids {
		if ind, ok := f.indicators[id]; ok {
			out[id] = ind
		}
	}
	return out, nil
}

func (f *fixedCatalog) CompetenciesByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Competency, error) {
	out := map[uuid.UUID]model.Competency{}
	for _, id := range ids {
		if c, ok := f.competencies[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func simulationFixture(n int) (*fixedCatalog, []uuid.UUID) {
	comp := model.Competency{ID: uuid.New(), Name: "Adaptability", Active: true}
	ind := model.BehavioralIndicator{ID: uuid.New(), CompetencyID: comp.ID, Weight: 1, Active: true}

	cat := &fixedCatalog{
		questions:    map[uuid.UUID]model.AssessmentQuestion{},
		indicators:   map[uuid.UUID]model.BehavioralIndicator{ind.ID: ind},
		competencies: map[uuid.UUID]model.Competency{comp.ID: comp},
	}
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		q := model.AssessmentQuestion{
			ID:          uuid.New(),
			IndicatorID: ind.ID,
			Difficulty:  model.DifficultyIntermediate,
			Active:      true,
		}
		cat.questions[q.ID] = q
		ids = append(ids, q.ID)
	}
	return cat, ids
}

func TestRunPersonaSimulationIsDeterministic(t *testing.T) {
	cat, ids := simulationFixture(20)
	sim := NewSimulator(cat, zerolog.Nop())

	first, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, 50)
	require.NoError(t, err)
	second, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, 50)
	require.NoError(t, err)

	assert.Equal(t, first.Seed, second.Seed)
	assert.Equal(t, first.SimulatedScore, second.SimulatedScore)
	assert.Equal(t, first.Outcomes, second.Outcomes)
	assert.Equal(t, first.PerCompetency, second.PerCompetency)
}

func TestRunPersonaSimulationSeedChangesWithInputs(t *testing.T) {
	cat, ids := simulationFixture(10)
	sim := NewSimulator(cat, zerolog.Nop())

	base, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, 50)
	require.NoError(t, err)
	otherPersona, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaExpert, 50)
	require.NoError(t, err)
	otherAbility, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, 51)
	require.NoError(t, err)

	assert.NotEqual(t, base.Seed, otherPersona.Seed)
	assert.NotEqual(t, base.Seed, otherAbility.Seed)
}

func TestRunPersonaSimulationReport(t *testing.T) {
	cat, ids := simulationFixture(12)
	sim := NewSimulator(cat, zerolog.Nop())

	report, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaStrong, 70)
	require.NoError(t, err)

	assert.Equal(t, "STRONG", report.Profile)
	assert.Equal(t, 70, report.AbilityLevel)
	assert.Equal(t, 12, report.TotalQuestions)
	assert.Len(t, report.Outcomes, 12)
	assert.Equal(t, 12, report.ByDifficulty[model.DifficultyIntermediate])
	assert.GreaterOrEqual(t, report.SimulatedScore, 0)
	assert.LessOrEqual(t, report.SimulatedScore, 100)
	// 12 questions at the 60s default -> 12 minutes.
	assert.Equal(t, 12, report.EstimatedDurationMinutes)

	require.Len(t, report.PerCompetency, 1)
	assert.Equal(t, "Adaptability", report.PerCompetency[0].Name)
	assert.Equal(t, 12, report.PerCompetency[0].Questions)

	for _, o := range report.Outcomes {
		assert.GreaterOrEqual(t, o.Probability, 0.01)
		assert.LessOrEqual(t, o.Probability, 0.99)
	}
}

func TestRunPersonaSimulationClampsAbility(t *testing.T) {
	cat, ids := simulationFixture(5)
	sim := NewSimulator(cat, zerolog.Nop())

	report, err := sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, 250)
	require.NoError(t, err)
	assert.Equal(t, 100, report.AbilityLevel)

	report, err = sim.RunPersonaSimulation(context.Background(), ids, PersonaAverage, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.AbilityLevel)
}

func TestRunPersonaSimulationEmptySet(t *testing.T) {
	cat, _ := simulationFixture(0)
	sim := NewSimulator(cat, zerolog.Nop())
	_, err := sim.RunPersonaSimulation(context.Background(), nil, PersonaAverage, 50)
	assert.Error(t, err)
}

func TestResponseProbabilityClamped(t *testing.T) {
	assert.Equal(t, 0.99, ResponseProbability(0.999, 100, 0.1))
	assert.Equal(t, 0.01, ResponseProbability(0.001, 0, -0.1))

	p := ResponseProbability(0.5, 50, 0)
	assert.InDelta(t, 0.5, p, 1e-9)
}

func TestAbilityShift(t *testing.T) {
	assert.Equal(t, 0.0, AbilityShift(50))
	assert.Equal(t, 2.0, AbilityShift(100))
	assert.Equal(t, -2.0, AbilityShift(0))
}

func TestCompetencyNoiseStableAndBounded(t *testing.T) {
	compID := uuid.New()
	n1 := CompetencyNoise(42, compID)
	n2 := CompetencyNoise(42, compID)
	assert.Equal(t, n1, n2)
	assert.GreaterOrEqual(t, n1, -0.1)
	assert.LessOrEqual(t, n1, 0.1)

	assert.NotEqual(t, n1, CompetencyNoise(43, compID))
}

func TestSeedStability(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	assert.Equal(t, Seed(PersonaAverage, 50, ids), Seed(PersonaAverage, 50, ids))
	assert.NotEqual(t, Seed(PersonaAverage, 50, ids), Seed(PersonaAverage, 50, []uuid.UUID{ids[1], ids[0]}))
}

func TestParsePersona(t *testing.T) {
	assert.Equal(t, PersonaStruggling, ParsePersona("STRUGGLING"))
	assert.Equal(t, PersonaStrong, ParsePersona("STRONG"))
	assert.Equal(t, PersonaExpert, ParsePersona("EXPERT"))
	assert.Equal(t, PersonaAverage, ParsePersona("AVERAGE"))
	assert.Equal(t, PersonaAverage, ParsePersona("whatever"))
}

func TestInventoryHealth(t *testing.T) {
	thin := uuid.New()
	critical := uuid.New()
	healthy := uuid.New()

	warnings := InventoryHealth(
		map[uuid.UUID]int{thin: 3, critical: 1, healthy: 8},
		map[uuid.UUID]string{thin: "Thin", critical: "Critical", healthy: "Healthy"},
	)

	require.Len(t, warnings, 2)
	assert.Equal(t, "CRITICAL", warnings[0].Severity)
	assert.Equal(t, "Critical", warnings[0].Name)
	assert.Equal(t, "MODERATE", warnings[1].Severity)
	assert.Equal(t, "Thin", warnings[1].Name)
}
