package config

type WorkerKeyStruct struct {
	ScoringQueue        string
	ScoringEventsQueue  string
	AuditMilestoneQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ScoringQueue:        "scoring_queue",
	ScoringEventsQueue:  "scoring_events_queue",
	AuditMilestoneQueue: "audit_milestone_queue",
}
