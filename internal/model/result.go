package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates result states. PENDING is a recoverable placeholder
// written when scoring fails after retries.
type ResultStatus string

const (
	ResultStatusCompleted ResultStatus = "COMPLETED"
	ResultStatusPending   ResultStatus = "PENDING"
)

// CompetencyScore is the per-competency projection stored inside a result.
// The list is rebuilt wholesale on each scoring pass, never patched.
type CompetencyScore struct {
	CompetencyID         uuid.UUID `json:"competency_id"`
	Name                 string    `json:"name"`
	Score                float64   `json:"score"`
	MaxScore             float64   `json:"max_score"`
	Percentage           float64   `json:"percentage"`
	QuestionsAnswered    int       `json:"questions_answered"`
	ConfidenceLow        *float64  `json:"confidence_low,omitempty"`
	ConfidenceHigh       *float64  `json:"confidence_high,omitempty"`
	Percentile           *int      `json:"percentile,omitempty"`
	InsufficientEvidence bool      `json:"insufficient_evidence,omitempty"`
	EvidenceNote         string    `json:"evidence_note,omitempty"`
}

// BigFiveProfile holds trait percentages rolled up from competencies that
// carry a trait code.
type BigFiveProfile struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// ConsistencyMetrics summarizes response-pattern analysis.
type ConsistencyMetrics struct {
	ConsistencyScore  float64 `json:"consistency_score"`
	SpeedAnomaly      bool    `json:"speed_anomaly"`
	StraightLining    bool    `json:"straight_lining"`
	StraightLineRate  float64 `json:"straight_line_rate"`
	RapidResponseRate float64 `json:"rapid_response_rate"`
}

// TeamFitMetrics describes how a candidate's profile covers a team's gaps.
type TeamFitMetrics struct {
	TeamID                uuid.UUID          `json:"team_id"`
	TargetedCompetencies  int                `json:"targeted_competencies"`
	GapCoverageScore      float64            `json:"gap_coverage_score"`
	SaturationLift        map[string]float64 `json:"saturation_lift,omitempty"`
	StrongestContribution string             `json:"strongest_contribution,omitempty"`
}

// DecisionConfidence grades how much weight the overall score can carry.
type DecisionConfidence struct {
	Level     string `json:"level"`
	Rationale string `json:"rationale,omitempty"`
}

// ExtendedMetrics is the typed union of known metric families serialized into
// one column. Extra carries forward-compatible unknown metrics.
type ExtendedMetrics struct {
	Consistency *ConsistencyMetrics `json:"consistency,omitempty"`
	TeamFit     *TeamFitMetrics     `json:"team_fit,omitempty"`
	Decision    *DecisionConfidence `json:"decision_confidence,omitempty"`
	Extra       map[string]any      `json:"extra,omitempty"`
}

// TestResult is the single scored outcome of a session. session_id is unique
// at the database level, making double scoring safe by construction.
type TestResult struct {
	ID                uuid.UUID         `json:"id"`
	SessionID         uuid.UUID         `json:"session_id"`
	TemplateID        uuid.UUID         `json:"template_id"`
	OverallScore      *float64          `json:"overall_score"`
	OverallPercentage *float64          `json:"overall_percentage"`
	Percentile        *int              `json:"percentile,omitempty"`
	Passed            *bool             `json:"passed,omitempty"`
	CompetencyScores  []CompetencyScore `json:"competency_scores"`
	BigFive           *BigFiveProfile   `json:"big_five_profile,omitempty"`
	Extended          *ExtendedMetrics  `json:"extended_metrics,omitempty"`
	TotalTimeSeconds  int               `json:"total_time_seconds"`
	QuestionsAnswered int               `json:"questions_answered"`
	QuestionsSkipped  int               `json:"questions_skipped"`
	TotalQuestions    int               `json:"total_questions"`
	Status            ResultStatus      `json:"status"`
	CompletedAt       time.Time         `json:"completed_at"`
}
