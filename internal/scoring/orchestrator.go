package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// SessionStore loads sessions for scoring.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error)
}

// TemplateStore loads templates for scoring.
type TemplateStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestTemplate, error)
}

// AnswerStore loads a session's answers.
type AnswerStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.TestAnswer, error)
}

// ResultStore persists results. GetBySession returns (nil, nil) when no
// result exists.
type ResultStore interface {
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error)
	Insert(ctx context.Context, result *model.TestResult) error
	ReplacePending(ctx context.Context, result *model.TestResult) error
	UpdateExtended(ctx context.Context, resultID uuid.UUID, ext *model.ExtendedMetrics) error
}

// Options carries the orchestrator's resilience and anomaly knobs.
type Options struct {
	RetryAttempts         int
	RetryDelay            time.Duration
	MinSecondsPerQuestion float64
}

// Orchestrator runs the full scoring pass for a terminal session: strategy
// dispatch, enrichment, persistence, events, retry and PENDING fallback.
// It is invoked from the scoring worker after session completion has already
// been durably committed, so a scoring failure can never roll back the
// candidate's terminal state.
type Orchestrator struct {
	sessions   SessionStore
	templates  TemplateStore
	answers    AnswerStore
	results    ResultStore
	registry   Registry
	aggregator *Aggregator
	percentile *PercentileCalculator
	emitter    Emitter
	opts       Options
	log        zerolog.Logger
}

// NewOrchestrator wires the scoring orchestration service.
func NewOrchestrator(
	sessions SessionStore,
	templates TemplateStore,
	answers AnswerStore,
	results ResultStore,
	registry Registry,
	aggregator *Aggregator,
	percentile *PercentileCalculator,
	emitter Emitter,
	opts Options,
	log zerolog.Logger,
) *Orchestrator {
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 3
	}
	return &Orchestrator{
		sessions:   sessions,
		templates:  templates,
		answers:    answers,
		results:    results,
		registry:   registry,
		aggregator: aggregator,
		percentile: percentile,
		emitter:    emitter,
		opts:       opts,
		log:        log.With().Str("component", "scoring_orchestrator").Logger(),
	}
}

// CalculateAndSaveResult scores a terminal session. It is idempotent: an
// existing result for the session is returned as-is. A completed session
// always yields either a scored result or a PENDING placeholder.
func (o *Orchestrator) CalculateAndSaveResult(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error) {
	if existing, err := o.results.GetBySession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	} else if existing != nil {
		o.log.Debug().Str("session_id", sessionID.String()).Msg("Result already exists, skipping scoring")
		return existing, nil
	}
	return o.run(ctx, sessionID, false)
}

// RecalculatePending retries scoring for a session whose result is a PENDING
// placeholder, replacing it in place on success.
func (o *Orchestrator) RecalculatePending(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error) {
	existing, err := o.results.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load pending result: %w", err)
	}
	if existing == nil {
		return o.run(ctx, sessionID, false)
	}
	if existing.Status != model.ResultStatusPending {
		return existing, nil
	}
	return o.run(ctx, sessionID, true)
}

func (o *Orchestrator) run(ctx context.Context, sessionID uuid.UUID, replacePending bool) (*model.TestResult, error) {
	started := time.Now()

	session, err := o.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Terminal() {
		return nil, fmt.Errorf("session %s is not terminal (status %s)", sessionID, session.Status)
	}

	template, err := o.templates.GetByID(ctx, session.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	answers, err := o.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	stats := summarize(session, answers)

	o.emitter.Emit(ctx, Event{
		Type:      EventScoringStarted,
		SessionID: sessionID,
		Goal:      template.Goal,
		Payload:   map[string]any{"answer_count": len(answers)},
	})

	var lastErr error
	for attempt := 1; attempt <= o.opts.RetryAttempts; attempt++ {
		result, sr, err := o.score(ctx, session, template, answers, stats)
		if err == nil {
			if perr := o.persist(ctx, result, replacePending); perr != nil {
				lastErr = perr
			} else {
				o.emitter.Emit(ctx, Event{
					Type:      EventScoringCompleted,
					SessionID: sessionID,
					Goal:      template.Goal,
					Payload: map[string]any{
						"result_id":     result.ID.String(),
						"overall_score": deref(result.OverallScore),
						"passed":        result.Passed != nil && *result.Passed,
						"duration_ms":   time.Since(started).Milliseconds(),
					},
				})
				o.emitAudit(ctx, result, sr, template.Goal)
				o.checkTimeAnomaly(ctx, result, stats)
				return result, nil
			}
		} else {
			lastErr = err
		}

		o.log.Warn().Err(lastErr).
			Str("session_id", sessionID.String()).
			Int("attempt", attempt).
			Msg("Scoring attempt failed")

		if attempt < o.opts.RetryAttempts && o.opts.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.opts.RetryDelay):
			}
		}
	}

	return o.fallback(ctx, session, template, stats, lastErr)
}

// score runs strategy dispatch and the fixed enrichment chain. The raw
// ScoringResult is returned alongside the persisted form so the audit event
// can carry indicator-level detail the result row does not keep.
func (o *Orchestrator) score(
	ctx context.Context,
	session *model.TestSession,
	template *model.TestTemplate,
	answers []model.TestAnswer,
	stats sessionStats,
) (*model.TestResult, *ScoringResult, error) {
	in := StrategyInput{Session: session, Template: template, Answers: answers}

	var (
		sr  *ScoringResult
		err error
	)
	if strategy, ok := o.registry[template.Goal]; ok {
		sr, err = strategy.Calculate(ctx, in)
	} else {
		// Legacy fallback: flat aggregate-by-competency, no weighting.
		o.log.Warn().Str("goal", string(template.Goal)).Msg("No strategy registered, using legacy scoring")
		sr, err = o.legacyCalculate(ctx, answers)
	}
	if err != nil {
		return nil, nil, err
	}

	// Enrichment order is fixed: confidence intervals, then percentile rank,
	// then response consistency.
	ApplyConfidenceIntervals(sr.CompetencyScores)

	rank, err := o.percentile.Rank(ctx, template.ID, sr.OverallPercentage)
	if err != nil {
		return nil, nil, fmt.Errorf("percentile rank: %w", err)
	}

	consistency := AnalyzeConsistency(answers)

	passed := sr.OverallPercentage >= template.PassingScore
	overall := sr.OverallScore
	pct := sr.OverallPercentage

	return &model.TestResult{
		SessionID:         session.ID,
		TemplateID:        template.ID,
		OverallScore:      &overall,
		OverallPercentage: &pct,
		Percentile:        &rank,
		Passed:            &passed,
		CompetencyScores:  sr.CompetencyScores,
		BigFive:           sr.BigFive,
		Extended: &model.ExtendedMetrics{
			Consistency: &consistency,
			TeamFit:     sr.TeamFit,
			Decision:    sr.Decision,
		},
		TotalTimeSeconds:  stats.totalTimeSeconds,
		QuestionsAnswered: stats.answered,
		QuestionsSkipped:  stats.skipped,
		TotalQuestions:    len(session.QuestionIDs),
		Status:            model.ResultStatusCompleted,
		CompletedAt:       time.Now().UTC(),
	}, sr, nil
}

func (o *Orchestrator) legacyCalculate(ctx context.Context, answers []model.TestAnswer) (*ScoringResult, error) {
	agg, err := o.aggregator.Aggregate(ctx, answers)
	if err != nil {
		return nil, fmt.Errorf("legacy aggregation: %w", err)
	}
	overall, pct := overallFromScores(agg.Scores)
	return &ScoringResult{
		OverallScore:      overall,
		OverallPercentage: pct,
		CompetencyScores:  agg.Scores,
		Indicators:        snapshotIndicators(agg),
		Warnings:          agg.Warnings,
	}, nil
}

// emitAudit publishes the full scoring snapshot, including the indicator
// aggregations and weights that are not persisted on the result row.
func (o *Orchestrator) emitAudit(ctx context.Context, result *model.TestResult, sr *ScoringResult, goal model.AssessmentGoal) {
	o.emitter.Emit(ctx, Event{
		Type:      EventScoringAudit,
		SessionID: result.SessionID,
		Goal:      goal,
		Payload: map[string]any{
			"result_id":          result.ID.String(),
			"overall_score":      deref(result.OverallScore),
			"overall_percentage": deref(result.OverallPercentage),
			"competency_scores":  result.CompetencyScores,
			"indicators":         sr.Indicators,
			"questions_answered": result.QuestionsAnswered,
			"questions_skipped":  result.QuestionsSkipped,
		},
	})
}

func (o *Orchestrator) persist(ctx context.Context, result *model.TestResult, replacePending bool) error {
	if replacePending {
		if err := o.results.ReplacePending(ctx, result); err != nil {
			return fmt.Errorf("replace pending result: %w", err)
		}
		return nil
	}
	if err := o.results.Insert(ctx, result); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// fallback persists a PENDING placeholder with real submission statistics so
// the candidate sees their submission was received even though grading is
// deferred.
func (o *Orchestrator) fallback(
	ctx context.Context,
	session *model.TestSession,
	template *model.TestTemplate,
	stats sessionStats,
	cause error,
) (*model.TestResult, error) {
	o.emitter.Emit(ctx, Event{
		Type:      EventScoringFailed,
		SessionID: session.ID,
		Goal:      template.Goal,
		Payload:   map[string]any{"error": fmt.Sprint(cause)},
	})
	o.emitter.Emit(ctx, Event{
		Type:      EventResilienceFallback,
		SessionID: session.ID,
		Payload: map[string]any{
			"total_attempts": o.opts.RetryAttempts,
			"exception":      fmt.Sprint(cause),
		},
	})

	pending := &model.TestResult{
		SessionID:         session.ID,
		TemplateID:        template.ID,
		TotalTimeSeconds:  stats.totalTimeSeconds,
		QuestionsAnswered: stats.answered,
		QuestionsSkipped:  stats.skipped,
		TotalQuestions:    len(session.QuestionIDs),
		Status:            model.ResultStatusPending,
		CompletedAt:       time.Now().UTC(),
	}

	if err := o.results.Insert(ctx, pending); err != nil {
		return nil, fmt.Errorf("scoring failed (%v) and fallback persist failed: %w", cause, err)
	}

	o.log.Error().Err(cause).
		Str("session_id", session.ID.String()).
		Msg("Scoring exhausted retries, PENDING result persisted")
	return pending, nil
}

// checkTimeAnomaly flags results answered implausibly fast. Runs after the
// main persist so it can never interfere with score correctness.
func (o *Orchestrator) checkTimeAnomaly(ctx context.Context, result *model.TestResult, stats sessionStats) {
	if o.opts.MinSecondsPerQuestion <= 0 || stats.answered == 0 {
		return
	}
	avg := float64(stats.totalTimeSeconds) / float64(stats.answered)
	if avg >= o.opts.MinSecondsPerQuestion {
		return
	}

	ext := result.Extended
	if ext == nil {
		ext = &model.ExtendedMetrics{}
	}
	if ext.Extra == nil {
		ext.Extra = make(map[string]any)
	}
	ext.Extra["time_anomaly"] = true
	ext.Extra["avg_seconds_per_question"] = round2(avg)

	if err := o.results.UpdateExtended(ctx, result.ID, ext); err != nil {
		o.log.Warn().Err(err).Str("result_id", result.ID.String()).Msg("Time anomaly flag update failed")
		return
	}
	result.Extended = ext
}

type sessionStats struct {
	answered         int
	skipped          int
	totalTimeSeconds int
}

func summarize(session *model.TestSession, answers []model.TestAnswer) sessionStats {
	var stats sessionStats
	for i := range answers {
		switch {
		case answers[i].Skipped:
			stats.skipped++
		case answers[i].AnsweredAt != nil:
			stats.answered++
		}
	}
	if session.StartedAt != nil && session.FinishedAt != nil {
		stats.totalTimeSeconds = int(session.FinishedAt.Sub(*session.StartedAt).Seconds())
	}
	return stats
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
