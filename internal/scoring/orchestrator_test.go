package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// ─── Stubs ──────────────────────────────────────────────────────────

type stubSessionStore struct{ session *model.TestSession }

func (s *stubSessionStore) GetByID(context.Context, uuid.UUID) (*model.TestSession, error) {
	return s.session, nil
}

type stubTemplateStore struct{ template *model.TestTemplate }

func (s *stubTemplateStore) GetByID(context.Context, uuid.UUID) (*model.TestTemplate, error) {
	return s.template, nil
}

type stubAnswerStore struct{ answers []model.TestAnswer }

func (s *stubAnswerStore) ListBySession(context.Context, uuid.UUID) ([]model.TestAnswer, error) {
	return s.answers, nil
}

type stubResultStore struct {
	existing        *model.TestResult
	inserted        *model.TestResult
	replaced        *model.TestResult
	extendedUpdates int
	insertErr       error
}

func (s *stubResultStore) GetBySession(context.Context, uuid.UUID) (*model.TestResult, error) {
	return s.existing, nil
}

func (s *stubResultStore) Insert(_ context.Context, result *model.TestResult) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	result.ID = uuid.New()
	s.inserted = result
	return nil
}

func (s *stubResultStore) ReplacePending(_ context.Context, result *model.TestResult) error {
	result.ID = uuid.New()
	s.replaced = result
	return nil
}

func (s *stubResultStore) UpdateExtended(context.Context, uuid.UUID, *model.ExtendedMetrics) error {
	s.extendedUpdates++
	return nil
}

type captureEmitter struct{ events []Event }

func (e *captureEmitter) Emit(_ context.Context, ev Event) { e.events = append(e.events, ev) }

func (e *captureEmitter) types() []EventType {
	out := make([]EventType, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

type stubStrategy struct {
	goal   model.AssessmentGoal
	result *ScoringResult
	err    error
	calls  int
}

func (s *stubStrategy) Goal() model.AssessmentGoal { return s.goal }

func (s *stubStrategy) Calculate(context.Context, StrategyInput) (*ScoringResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// ─── Fixtures ───────────────────────────────────────────────────────

type orchestratorFixture struct {
	session  *model.TestSession
	template *model.TestTemplate
	catalog  *stubCatalog
	answers  *stubAnswerStore
	results  *stubResultStore
	emitter  *captureEmitter
	strategy *stubStrategy
}

func newOrchestratorFixture() *orchestratorFixture {
	started := time.Now().Add(-10 * time.Minute)
	finished := started.Add(8 * time.Minute)
	questionIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	answered := time.Now()
	answers := []model.TestAnswer{
		{ID: uuid.New(), QuestionID: questionIDs[0], LikertValue: intPtr(4), AnsweredAt: &answered},
		{ID: uuid.New(), QuestionID: questionIDs[1], LikertValue: intPtr(2), AnsweredAt: &answered},
		{ID: uuid.New(), QuestionID: questionIDs[2], Skipped: true},
	}

	return &orchestratorFixture{
		session: &model.TestSession{
			ID:          uuid.New(),
			TemplateID:  uuid.New(),
			QuestionIDs: questionIDs,
			Status:      model.SessionStatusCompleted,
			StartedAt:   &started,
			FinishedAt:  &finished,
		},
		template: &model.TestTemplate{
			ID:           uuid.New(),
			Goal:         model.GoalOverview,
			PassingScore: 60,
			Status:       model.TemplateStatusPublished,
		},
		catalog: &stubCatalog{
			questions:    map[uuid.UUID]model.AssessmentQuestion{},
			indicators:   map[uuid.UUID]model.BehavioralIndicator{},
			competencies: map[uuid.UUID]model.Competency{},
		},
		answers: &stubAnswerStore{answers: answers},
		results: &stubResultStore{},
		emitter: &captureEmitter{},
		strategy: &stubStrategy{
			goal: model.GoalOverview,
			result: &ScoringResult{
				OverallScore:      6,
				OverallPercentage: 75,
				CompetencyScores: []model.CompetencyScore{
					{CompetencyID: uuid.New(), Name: "Collaboration", Score: 6, MaxScore: 8, Percentage: 75, QuestionsAnswered: 2},
				},
			},
		},
	}
}

func (f *orchestratorFixture) build(opts Options) *Orchestrator {
	return NewOrchestrator(
		&stubSessionStore{session: f.session},
		&stubTemplateStore{template: f.template},
		f.answers,
		f.results,
		NewRegistry(f.strategy),
		NewAggregator(f.catalog, zerolog.Nop()),
		NewPercentileCalculator(&stubHistory{total: 11, below: 5}),
		f.emitter,
		opts,
		zerolog.Nop(),
	)
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestCalculateAndSaveResultSuccess(t *testing.T) {
	f := newOrchestratorFixture()
	o := f.build(Options{RetryAttempts: 3})

	result, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.ResultStatusCompleted, result.Status)
	assert.Equal(t, f.session.ID, result.SessionID)
	assert.Equal(t, 75.0, *result.OverallPercentage)
	assert.Equal(t, 50, *result.Percentile)
	assert.True(t, *result.Passed)
	assert.Equal(t, 2, result.QuestionsAnswered)
	assert.Equal(t, 1, result.QuestionsSkipped)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 480, result.TotalTimeSeconds)

	require.NotNil(t, result.Extended)
	assert.NotNil(t, result.Extended.Consistency)

	assert.Same(t, result, f.results.inserted)
	assert.Equal(t,
		[]EventType{EventScoringStarted, EventScoringCompleted, EventScoringAudit},
		f.emitter.types())

	audit := f.emitter.events[2]
	assert.Equal(t, f.session.ID, audit.SessionID)
	assert.Equal(t, result.ID.String(), audit.Payload["result_id"])
	assert.Equal(t, 75.0, audit.Payload["overall_percentage"])
	assert.Equal(t, result.CompetencyScores, audit.Payload["competency_scores"])
	assert.Contains(t, audit.Payload, "indicators")
}

func TestCalculateAndSaveResultIsIdempotent(t *testing.T) {
	f := newOrchestratorFixture()
	existing := &model.TestResult{ID: uuid.New(), SessionID: f.session.ID, Status: model.ResultStatusCompleted}
	f.results.existing = existing
	o := f.build(Options{})

	result, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Same(t, existing, result)
	assert.Zero(t, f.strategy.calls)
	assert.Empty(t, f.emitter.events)
}

func TestCalculateAndSaveResultRejectsNonTerminalSession(t *testing.T) {
	f := newOrchestratorFixture()
	f.session.Status = model.SessionStatusInProgress
	o := f.build(Options{})

	_, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	assert.Error(t, err)
	assert.Nil(t, f.results.inserted)
}

func TestScoringFailureFallsBackToPending(t *testing.T) {
	f := newOrchestratorFixture()
	f.strategy.err = errors.New("strategy blew up")
	o := f.build(Options{RetryAttempts: 2})

	result, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, model.ResultStatusPending, result.Status)
	assert.Nil(t, result.OverallScore)
	// Submission statistics are real even when grading is deferred.
	assert.Equal(t, 2, result.QuestionsAnswered)
	assert.Equal(t, 1, result.QuestionsSkipped)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 480, result.TotalTimeSeconds)

	assert.Equal(t, 2, f.strategy.calls)
	assert.Equal(t,
		[]EventType{EventScoringStarted, EventScoringFailed, EventResilienceFallback},
		f.emitter.types())
}

func TestRecalculatePendingReplacesPlaceholder(t *testing.T) {
	f := newOrchestratorFixture()
	f.results.existing = &model.TestResult{
		ID:        uuid.New(),
		SessionID: f.session.ID,
		Status:    model.ResultStatusPending,
	}
	o := f.build(Options{RetryAttempts: 1})

	result, err := o.RecalculatePending(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatusCompleted, result.Status)
	assert.Same(t, result, f.results.replaced)
	assert.Nil(t, f.results.inserted)
}

func TestRecalculatePendingLeavesCompletedResultAlone(t *testing.T) {
	f := newOrchestratorFixture()
	existing := &model.TestResult{ID: uuid.New(), SessionID: f.session.ID, Status: model.ResultStatusCompleted}
	f.results.existing = existing
	o := f.build(Options{})

	result, err := o.RecalculatePending(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Same(t, existing, result)
	assert.Zero(t, f.strategy.calls)
}

func TestTimeAnomalyFlagged(t *testing.T) {
	f := newOrchestratorFixture()
	started := time.Now().Add(-5 * time.Second)
	finished := started.Add(4 * time.Second)
	f.session.StartedAt = &started
	f.session.FinishedAt = &finished
	o := f.build(Options{RetryAttempts: 1, MinSecondsPerQuestion: 5})

	result, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.results.extendedUpdates)
	require.NotNil(t, result.Extended)
	assert.Equal(t, true, result.Extended.Extra["time_anomaly"])
}

func TestUnregisteredGoalUsesLegacyScoring(t *testing.T) {
	f := newOrchestratorFixture()
	f.template.Goal = model.GoalJobFit // only OVERVIEW is registered

	// Five questions in the catalog; four answered at the top of the
	// likert scale, one skipped.
	tax := newFixture(5)
	f.catalog = tax.catalog

	now := time.Now()
	questionIDs := make([]uuid.UUID, 0, len(tax.questions))
	answers := make([]model.TestAnswer, 0, len(tax.questions))
	for i, q := range tax.questions {
		questionIDs = append(questionIDs, q.ID)
		if i < 4 {
			answers = append(answers, likertAnswer(q.ID, 5, now))
		} else {
			answers = append(answers, model.TestAnswer{ID: uuid.New(), QuestionID: q.ID, Skipped: true})
		}
	}
	f.session.QuestionIDs = questionIDs
	f.answers.answers = answers

	o := f.build(Options{RetryAttempts: 1})

	result, err := o.CalculateAndSaveResult(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Zero(t, f.strategy.calls)

	assert.Equal(t, model.ResultStatusCompleted, result.Status)
	assert.Equal(t, 100.0, *result.OverallPercentage)
	assert.Equal(t, 16.0, *result.OverallScore)
	assert.Equal(t, 4, result.QuestionsAnswered)
	assert.Equal(t, 1, result.QuestionsSkipped)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.True(t, *result.Passed)

	// The legacy path still feeds the audit trail.
	require.Equal(t,
		[]EventType{EventScoringStarted, EventScoringCompleted, EventScoringAudit},
		f.emitter.types())
	audit := f.emitter.events[2]
	snapshots, ok := audit.Payload["indicators"].([]IndicatorSnapshot)
	require.True(t, ok)
	require.Len(t, snapshots, 1)
	assert.Equal(t, tax.indicator.ID, snapshots[0].IndicatorID)
	assert.Equal(t, 16.0, snapshots[0].TotalScore)
	assert.Equal(t, 16.0, snapshots[0].TotalMax)
}
