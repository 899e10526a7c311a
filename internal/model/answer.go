package model

import (
	"time"

	"github.com/google/uuid"
)

// TestAnswer is one response to one question within a session. Immutability
// after the session turns terminal is enforced by the session service.
type TestAnswer struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	QuestionID     uuid.UUID  `json:"question_id"`
	SelectedOption *string    `json:"selected_option,omitempty"`
	LikertValue    *int       `json:"likert_value,omitempty"`
	TextResponse   *string    `json:"text_response,omitempty"`
	Skipped        bool       `json:"skipped"`
	Score          *float64   `json:"score,omitempty"`
	MaxScore       float64    `json:"max_score"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Answered reports whether the answer counts as a real response for scoring.
func (a *TestAnswer) Answered() bool {
	return !a.Skipped && a.AnsweredAt != nil
}

// SubmitAnswerRequest is the payload for answering or skipping a question.
type SubmitAnswerRequest struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption *string   `json:"selected_option" binding:"omitempty,max=10"`
	LikertValue    *int      `json:"likert_value" binding:"omitempty,min=1,max=7"`
	TextResponse   *string   `json:"text_response" binding:"omitempty,max=10000"`
	Skipped        bool      `json:"skipped"`
}
