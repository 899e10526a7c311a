package model

import (
	"time"

	"github.com/google/uuid"
)

// ContextScope describes where an indicator is observable.
type ContextScope string

const (
	ScopeUniversal    ContextScope = "UNIVERSAL"
	ScopeRoleSpecific ContextScope = "ROLE_SPECIFIC"
)

// MeasurementType describes how an indicator is measured.
type MeasurementType string

const (
	MeasurementFrequency MeasurementType = "FREQUENCY"
	MeasurementQuality   MeasurementType = "QUALITY"
	MeasurementJudgment  MeasurementType = "JUDGMENT"
)

// ObservabilityLevel describes how directly an indicator can be observed.
type ObservabilityLevel string

const (
	ObservabilityDirect   ObservabilityLevel = "DIRECT"
	ObservabilityInferred ObservabilityLevel = "INFERRED"
)

// Competency is the top level of the two-level skill taxonomy.
type Competency struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	// TraitCode optionally maps the competency to a Big Five trait
	// (O, C, E, A, N) for profile roll-ups.
	TraitCode *string   `json:"trait_code,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BehavioralIndicator belongs to exactly one competency and is scored by
// one or more questions.
type BehavioralIndicator struct {
	ID            uuid.UUID          `json:"id"`
	CompetencyID  uuid.UUID          `json:"competency_id"`
	Name          string             `json:"name"`
	Weight        float64            `json:"weight"`
	Measurement   MeasurementType    `json:"measurement_type"`
	Scope         ContextScope       `json:"context_scope"`
	RoleCode      *string            `json:"role_code,omitempty"`
	Observability ObservabilityLevel `json:"observability"`
	Active        bool               `json:"active"`
}

// CreateCompetencyRequest is the payload for creating a competency.
type CreateCompetencyRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=120"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	TraitCode   *string `json:"trait_code" binding:"omitempty,oneof=O C E A N"`
}

// CreateIndicatorRequest is the payload for adding an indicator to a competency.
type CreateIndicatorRequest struct {
	Name          string  `json:"name" binding:"required,min=2,max=200"`
	Weight        float64 `json:"weight" binding:"required,gt=0,lte=10"`
	Measurement   string  `json:"measurement_type" binding:"required,oneof=FREQUENCY QUALITY JUDGMENT"`
	Scope         string  `json:"context_scope" binding:"required,oneof=UNIVERSAL ROLE_SPECIFIC"`
	RoleCode      *string `json:"role_code" binding:"omitempty,min=2,max=40"`
	Observability string  `json:"observability" binding:"required,oneof=DIRECT INFERRED"`
}
