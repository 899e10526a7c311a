package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/assembly"
	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
	"github.com/psymetric/psymetric-backend/internal/scoring"
)

// SessionService handles test session business logic: starting sessions from
// published templates, answer intake, navigation and the terminal transitions
// that hand the session off to the scoring queue.
type SessionService struct {
	sessionRepo      *repository.SessionRepository
	templateRepo     *repository.TemplateRepository
	answerRepo       *repository.AnswerRepository
	catalogRepo      *repository.CatalogRepository
	assemblers       assembly.Registry
	rdb              *redis.Client
	minItemResponses int
	log              zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.SessionRepository,
	templateRepo *repository.TemplateRepository,
	answerRepo *repository.AnswerRepository,
	catalogRepo *repository.CatalogRepository,
	assemblers assembly.Registry,
	rdb *redis.Client,
	minItemResponses int,
	log zerolog.Logger,
) *SessionService {
	if minItemResponses < 1 {
		minItemResponses = 30
	}
	return &SessionService{
		sessionRepo:      sessionRepo,
		templateRepo:     templateRepo,
		answerRepo:       answerRepo,
		catalogRepo:      catalogRepo,
		assemblers:       assemblers,
		rdb:              rdb,
		minItemResponses: minItemResponses,
		log:              log.With().Str("component", "session_service").Logger(),
	}
}

// scoringJob is the payload pushed onto the scoring queue.
type scoringJob struct {
	SessionID string `json:"session_id"`
}

// auditMilestone is the payload pushed onto the audit milestone queue.
type auditMilestone struct {
	QuestionID string `json:"question_id"`
}

// Start assembles a fresh question set from the template's blueprint and
// opens an IN_PROGRESS session. The question order is frozen at this point.
func (s *SessionService) Start(ctx context.Context, req *model.StartSessionRequest, candidateID *uuid.UUID) (*model.TestSession, []string, error) {
	template, err := s.templateRepo.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	if template.Status != model.TemplateStatusPublished {
		return nil, nil, ErrTemplateNotPublished
	}

	assembler, ok := s.assemblers[template.Goal]
	if !ok {
		return nil, nil, fmt.Errorf("no assembler registered for goal %q", template.Goal)
	}
	assembled, err := assembler.Assemble(ctx, template)
	if err != nil {
		return nil, nil, fmt.Errorf("assemble session: %w", err)
	}
	if len(assembled.QuestionIDs) == 0 {
		return nil, nil, ErrEmptyAssembly
	}

	now := time.Now().UTC()
	session := &model.TestSession{
		TemplateID:  template.ID,
		CandidateID: candidateID,
		ShareToken:  req.ShareToken,
		QuestionIDs: assembled.QuestionIDs,
		Status:      model.SessionStatusInProgress,
		StartedAt:   &now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	// Cache the absolute deadline so state reads never need the template.
	deadline := now.Add(time.Duration(template.DurationMinutes) * time.Minute)
	key := config.CacheKey.SessionDeadlineKey(session.ID.String())
	if err := s.rdb.Set(ctx, key, deadline.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("Deadline cache write failed")
	}

	return session, assembled.Warnings, nil
}

// SubmitAnswer records or replaces a response. Selections against choice and
// likert questions are scored inline; open text stays ungraded until rubric
// review. Answers to terminal sessions are rejected.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, req *model.SubmitAnswerRequest) (*model.TestAnswer, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}

	inSet := false
	for _, qid := range session.QuestionIDs {
		if qid == req.QuestionID {
			inSet = true
			break
		}
	}
	if !inSet {
		return nil, ErrQuestionNotInSet
	}

	questions, err := s.catalogRepo.QuestionsByIDs(ctx, []uuid.UUID{req.QuestionID})
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	question, ok := questions[req.QuestionID]
	if !ok {
		return nil, ErrQuestionNotInSet
	}

	answer := &model.TestAnswer{
		SessionID:      sessionID,
		QuestionID:     req.QuestionID,
		SelectedOption: req.SelectedOption,
		LikertValue:    req.LikertValue,
		TextResponse:   req.TextResponse,
		Skipped:        req.Skipped,
	}

	if !req.Skipped {
		now := time.Now().UTC()
		answer.AnsweredAt = &now

		score, max, err := scoring.NormalizeAnswer(&question, answer)
		if err != nil {
			return nil, fmt.Errorf("score answer: %w", err)
		}
		answer.MaxScore = max
		// Open text keeps a nil score until rubric grading happens.
		if question.QuestionType != model.QuestionTypeOpenText {
			answer.Score = &score
		}
	}

	if err := s.answerRepo.Upsert(ctx, answer); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	if !req.Skipped {
		s.trackMilestone(ctx, req.QuestionID)
	}
	return answer, nil
}

// trackMilestone bumps the question's response counter and enqueues an audit
// recomputation every time it crosses a multiple of the minimum sample size.
// Counter failures are logged and swallowed; answer intake must not depend on
// Redis.
func (s *SessionService) trackMilestone(ctx context.Context, questionID uuid.UUID) {
	key := config.CacheKey.QuestionResponseCountKey(questionID.String())
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Response counter failed")
		return
	}
	if count%int64(s.minItemResponses) != 0 {
		return
	}

	payload, _ := json.Marshal(auditMilestone{QuestionID: questionID.String()})
	if err := s.rdb.RPush(ctx, config.WorkerKey.AuditMilestoneQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("question_id", questionID.String()).Msg("Audit milestone enqueue failed")
		return
	}
	s.log.Info().
		Str("question_id", questionID.String()).
		Int64("responses", count).
		Msg("Audit milestone reached")
}

// Navigate moves the session cursor. Backward moves require the template to
// allow them.
func (s *SessionService) Navigate(ctx context.Context, sessionID uuid.UUID, index int) (*model.TestSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, ErrSessionTerminal
	}
	if index < 0 || index >= len(session.QuestionIDs) {
		return nil, ErrIndexOutOfRange
	}
	if index < session.CurrentIdx {
		template, err := s.templateRepo.GetByID(ctx, session.TemplateID)
		if err != nil {
			return nil, err
		}
		if !template.AllowBack {
			return nil, ErrBackNotAllowed
		}
	}

	if err := s.sessionRepo.UpdateCursor(ctx, sessionID, index); err != nil {
		return nil, err
	}
	session.CurrentIdx = index
	return session, nil
}

// Complete finalizes the session as COMPLETED and queues it for scoring.
func (s *SessionService) Complete(ctx context.Context, sessionID uuid.UUID) error {
	return s.finish(ctx, sessionID, model.SessionStatusCompleted)
}

// Abandon finalizes the session as ABANDONED and queues it for scoring, so
// partial evidence still produces a result.
func (s *SessionService) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	return s.finish(ctx, sessionID, model.SessionStatusAbandoned)
}

// Timeout finalizes the session as TIMED_OUT and queues it for scoring.
func (s *SessionService) Timeout(ctx context.Context, sessionID uuid.UUID) error {
	return s.finish(ctx, sessionID, model.SessionStatusTimedOut)
}

// finish commits the terminal transition first, then enqueues the scoring
// job. Scoring failures can therefore never undo a finished session; a lost
// enqueue is recovered by the pending sweep.
func (s *SessionService) finish(ctx context.Context, sessionID uuid.UUID, status model.SessionStatus) error {
	transitioned, err := s.sessionRepo.MarkTerminal(ctx, sessionID, status)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	if !transitioned {
		// Already terminal. Keep the call idempotent.
		return nil
	}

	s.rdb.Del(ctx, config.CacheKey.SessionDeadlineKey(sessionID.String()))

	payload, _ := json.Marshal(scoringJob{SessionID: sessionID.String()})
	if err := s.rdb.RPush(ctx, config.WorkerKey.ScoringQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).
			Str("session_id", sessionID.String()).
			Msg("Scoring enqueue failed, retry sweep will pick it up")
		return nil
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("status", string(status)).
		Msg("Session finalized and queued for scoring")
	return nil
}

// GetState returns the candidate-facing session snapshot. The deadline is
// read from Redis; on a cache miss it is rebuilt from PostgreSQL and written
// back.
func (s *SessionService) GetState(ctx context.Context, sessionID uuid.UUID) (*model.SessionState, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := &model.SessionState{
		SessionID:      session.ID,
		Status:         session.Status,
		CurrentIdx:     session.CurrentIdx,
		TotalQuestions: len(session.QuestionIDs),
	}
	if session.Terminal() {
		return state, nil
	}

	var deadlineUnix int64
	key := config.CacheKey.SessionDeadlineKey(sessionID.String())

	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		// Cache miss: rebuild from the source of truth and self-heal.
		template, dbErr := s.templateRepo.GetByID(ctx, session.TemplateID)
		if dbErr != nil {
			return nil, fmt.Errorf("deadline not in cache or db: %w", dbErr)
		}
		if session.StartedAt == nil {
			return state, nil
		}
		deadlineUnix = session.StartedAt.
			Add(time.Duration(template.DurationMinutes) * time.Minute).Unix()
		_ = s.rdb.Set(ctx, key, deadlineUnix, 0)
	} else if err != nil {
		return nil, fmt.Errorf("redis error getting deadline: %w", err)
	} else {
		deadlineUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid deadline format in cache: %w", err)
		}
	}

	remaining := time.Until(time.Unix(deadlineUnix, 0))
	if remaining < 0 {
		remaining = 0
	}
	state.RemainingSeconds = int(remaining.Seconds())
	return state, nil
}

// SweepExpired times out every in-progress session past its deadline.
// Returns the number of sessions transitioned.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.sessionRepo.ListExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}
	for _, id := range expired {
		if err := s.Timeout(ctx, id); err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Timeout transition failed")
		}
	}
	return len(expired), nil
}

// ListAnswers returns a session's answers.
func (s *SessionService) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.TestAnswer, error) {
	return s.answerRepo.ListBySession(ctx, sessionID)
}
