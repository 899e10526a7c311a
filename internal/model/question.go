package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported response formats.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	QuestionTypeLikert       QuestionType = "LIKERT"
	QuestionTypeOpenText     QuestionType = "OPEN_TEXT"
)

// Difficulty is the authored difficulty band of a question.
type Difficulty string

const (
	DifficultyFoundational Difficulty = "FOUNDATIONAL"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// AnswerOption is one selectable option with its score contribution.
type AnswerOption struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AssessmentQuestion measures a single behavioral indicator.
type AssessmentQuestion struct {
	ID               uuid.UUID      `json:"id"`
	IndicatorID      uuid.UUID      `json:"indicator_id"`
	QuestionText     string         `json:"question_text"`
	QuestionType     QuestionType   `json:"question_type"`
	Options          []AnswerOption `json:"options,omitempty"`
	Difficulty       Difficulty     `json:"difficulty"`
	RubricMaxScore   *float64       `json:"rubric_max_score,omitempty"`
	TimeLimitSeconds *int           `json:"time_limit_seconds,omitempty"`
	Active           bool           `json:"active"`
}

// MaxOptionScore returns the highest option score, or 0 for questions
// without options.
func (q *AssessmentQuestion) MaxOptionScore() float64 {
	var max float64
	for _, o := range q.Options {
		if o.Score > max {
			max = o.Score
		}
	}
	return max
}

// OptionScore looks up the score for a selected option key.
func (q *AssessmentQuestion) OptionScore(key string) (float64, bool) {
	for _, o := range q.Options {
		if o.Key == key {
			return o.Score, true
		}
	}
	return 0, false
}

// CreateQuestionRequest is the payload for adding a question to an indicator.
type CreateQuestionRequest struct {
	QuestionText     string         `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType     string         `json:"question_type" binding:"required,oneof=SINGLE_CHOICE LIKERT OPEN_TEXT"`
	Options          []AnswerOption `json:"options" binding:"omitempty,dive"`
	Difficulty       string         `json:"difficulty" binding:"required,oneof=FOUNDATIONAL INTERMEDIATE ADVANCED"`
	RubricMaxScore   *float64       `json:"rubric_max_score" binding:"omitempty,gt=0"`
	TimeLimitSeconds *int           `json:"time_limit_seconds" binding:"omitempty,min=10,max=1800"`
}
