package model

import (
	"time"

	"github.com/google/uuid"
)

// ValidityStatus gates a question's use in new assemblies. RETIRED items are
// never selected.
type ValidityStatus string

const (
	ValidityProbation ValidityStatus = "PROBATION"
	ValidityActive    ValidityStatus = "ACTIVE"
	ValidityRetired   ValidityStatus = "RETIRED"
)

// ItemStatistics tracks per-question psychometric health, recomputed by the
// audit job.
type ItemStatistics struct {
	QuestionID       uuid.UUID      `json:"question_id"`
	ResponseCount    int            `json:"response_count"`
	PValue           float64        `json:"p_value"`
	Discrimination   float64        `json:"discrimination"`
	Validity         ValidityStatus `json:"validity_status"`
	LastCalculatedAt *time.Time     `json:"last_calculated_at,omitempty"`
}
