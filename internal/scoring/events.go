package scoring

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/model"
)

// EventType identifies a scoring lifecycle event.
type EventType string

const (
	EventScoringStarted     EventType = "scoring.started"
	EventScoringCompleted   EventType = "scoring.completed"
	EventScoringFailed      EventType = "scoring.failed"
	EventResilienceFallback EventType = "scoring.fallback"
	EventScoringAudit       EventType = "scoring.audit"
)

// Event is one scoring lifecycle record, consumed externally by
// metrics/observability listeners.
type Event struct {
	Type      EventType            `json:"type"`
	SessionID uuid.UUID            `json:"session_id"`
	Goal      model.AssessmentGoal `json:"goal,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   map[string]any       `json:"payload,omitempty"`
}

// Emitter publishes scoring lifecycle events. Program order guarantees
// started precedes completed/failed for the same session.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// RedisEmitter pushes events onto the scoring event queue for external
// listeners, logging each emission. Emission failures are logged, never
// propagated; observability must not break scoring.
type RedisEmitter struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisEmitter creates a RedisEmitter.
func NewRedisEmitter(rdb *redis.Client, log zerolog.Logger) *RedisEmitter {
	return &RedisEmitter{
		rdb: rdb,
		log: log.With().Str("component", "scoring_events").Logger(),
	}
}

// Emit publishes one event.
func (e *RedisEmitter) Emit(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	e.log.Info().
		Str("event", string(ev.Type)).
		Str("session_id", ev.SessionID.String()).
		Msg("Scoring event")

	raw, err := json.Marshal(ev)
	if err != nil {
		e.log.Error().Err(err).Msg("Marshal event failed")
		return
	}
	if err := e.rdb.RPush(ctx, config.WorkerKey.ScoringEventsQueue, raw).Err(); err != nil {
		e.log.Error().Err(err).Str("event", string(ev.Type)).Msg("Event publish failed")
	}
}
