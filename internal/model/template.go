package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssessmentGoal selects the assembly and scoring strategy for a template.
type AssessmentGoal string

const (
	GoalOverview AssessmentGoal = "OVERVIEW"
	GoalJobFit   AssessmentGoal = "JOB_FIT"
	GoalTeamFit  AssessmentGoal = "TEAM_FIT"
)

// TemplateStatus enumerates template lifecycle states. Only DRAFT is editable.
type TemplateStatus string

const (
	TemplateStatusDraft     TemplateStatus = "DRAFT"
	TemplateStatusPublished TemplateStatus = "PUBLISHED"
	TemplateStatusArchived  TemplateStatus = "ARCHIVED"
)

// TestTemplate defines a test's blueprint, timing and pass criteria.
type TestTemplate struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Goal            AssessmentGoal  `json:"goal"`
	Blueprint       json.RawMessage `json:"blueprint,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	PassingScore    float64         `json:"passing_score"`
	AllowBack       bool            `json:"allow_back"`
	ShuffleOptions  bool            `json:"shuffle_options"`
	Status          TemplateStatus  `json:"status"`
	Version         int             `json:"version"`
	ParentID        *uuid.UUID      `json:"parent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateTemplateRequest is the payload for creating a draft template.
type CreateTemplateRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=255"`
	Goal            string          `json:"goal" binding:"required,oneof=OVERVIEW JOB_FIT TEAM_FIT"`
	Blueprint       json.RawMessage `json:"blueprint" binding:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScore    float64         `json:"passing_score" binding:"min=0,max=100"`
	AllowBack       *bool           `json:"allow_back" binding:"omitempty"`
	ShuffleOptions  *bool           `json:"shuffle_options" binding:"omitempty"`
}

// UpdateTemplateRequest is the payload for editing a draft template.
type UpdateTemplateRequest struct {
	Title           string          `json:"title" binding:"omitempty,min=3,max=255"`
	Blueprint       json.RawMessage `json:"blueprint" binding:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingScore    *float64        `json:"passing_score" binding:"omitempty,min=0,max=100"`
	AllowBack       *bool           `json:"allow_back" binding:"omitempty"`
	ShuffleOptions  *bool           `json:"shuffle_options" binding:"omitempty"`
}
