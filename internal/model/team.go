package model

import (
	"time"

	"github.com/google/uuid"
)

// TeamProfile holds a team's competency saturation map (0..1 per competency).
// Low saturation marks a coverage gap.
type TeamProfile struct {
	TeamID     uuid.UUID             `json:"team_id"`
	Name       string                `json:"name"`
	Saturation map[uuid.UUID]float64 `json:"competency_saturation"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// CompetencySaturation pairs a competency with its team saturation, used when
// ranking assembly targets.
type CompetencySaturation struct {
	CompetencyID uuid.UUID `json:"competency_id"`
	Saturation   float64   `json:"saturation"`
}
