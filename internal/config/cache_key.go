package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

// CacheKey groups every Redis cache key builder.
var CacheKey = &CacheKeyStruct{}

// SessionDeadlineKey returns the cache key for a session's absolute deadline
// (Unix seconds).
func (r *CacheKeyStruct) SessionDeadlineKey(sessionID string) string {
	return fmt.Sprintf("session:%s:deadline", sessionID)
}

// TeamProfileKey returns the cache key for a team's saturation profile.
func (r *CacheKeyStruct) TeamProfileKey(teamID string) string {
	return fmt.Sprintf("team:%s:profile", teamID)
}

// QuestionResponseCountKey returns the counter key used to detect
// response-count milestones for the audit job.
func (r *CacheKeyStruct) QuestionResponseCountKey(questionID string) string {
	return fmt.Sprintf("question:%s:responses", questionID)
}

// SimulationReportKey returns the cache key for a deterministic simulation
// report.
func (r *CacheKeyStruct) SimulationReportKey(templateID string, seed int64) string {
	return fmt.Sprintf("template:%s:simulation:%d", templateID, seed)
}
