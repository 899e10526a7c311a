package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates test session states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
	SessionStatusTimedOut   SessionStatus = "TIMED_OUT"
)

// TestSession is one candidate's attempt at a template. It owns its answer
// list and at most one result.
type TestSession struct {
	ID          uuid.UUID     `json:"id"`
	TemplateID  uuid.UUID     `json:"template_id"`
	CandidateID *uuid.UUID    `json:"candidate_id,omitempty"`
	ShareToken  *string       `json:"share_token,omitempty"`
	QuestionIDs []uuid.UUID   `json:"question_ids"`
	CurrentIdx  int           `json:"current_index"`
	Status      SessionStatus `json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Terminal reports whether the session has reached a final state.
func (s *TestSession) Terminal() bool {
	switch s.Status {
	case SessionStatusCompleted, SessionStatusAbandoned, SessionStatusTimedOut:
		return true
	}
	return false
}

// StartSessionRequest is the payload for starting a session.
type StartSessionRequest struct {
	TemplateID uuid.UUID `json:"template_id" binding:"required"`
	ShareToken *string   `json:"share_token" binding:"omitempty,min=8,max=64"`
}

// NavigateRequest moves the session cursor.
type NavigateRequest struct {
	Index int `json:"index" binding:"min=0"`
}

// SessionState is the candidate-facing snapshot of a running session.
type SessionState struct {
	SessionID        uuid.UUID     `json:"session_id"`
	Status           SessionStatus `json:"status"`
	CurrentIdx       int           `json:"current_index"`
	TotalQuestions   int           `json:"total_questions"`
	RemainingSeconds int           `json:"remaining_seconds"`
}
