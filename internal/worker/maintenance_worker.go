package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
	"github.com/psymetric/psymetric-backend/internal/scoring"
	"github.com/psymetric/psymetric-backend/internal/service"
)

// pendingBatchSize bounds how many PENDING results one sweep retries.
const pendingBatchSize = 50

// MaintenanceWorker runs the periodic sweeps: timing out overdue sessions
// and retrying PENDING results left behind by failed scoring passes.
type MaintenanceWorker struct {
	sessions     *service.SessionService
	results      *repository.ResultRepository
	orchestrator *scoring.Orchestrator
	interval     time.Duration
	log          zerolog.Logger
}

// NewMaintenanceWorker creates a new MaintenanceWorker.
func NewMaintenanceWorker(
	sessions *service.SessionService,
	results *repository.ResultRepository,
	orchestrator *scoring.Orchestrator,
	interval time.Duration,
	log zerolog.Logger,
) *MaintenanceWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &MaintenanceWorker{
		sessions:     sessions,
		results:      results,
		orchestrator: orchestrator,
		interval:     interval,
		log:          log.With().Str("component", "maintenance_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweepTimeouts(ctx)
			w.retryPending(ctx)
		}
	}
}

func (w *MaintenanceWorker) sweepTimeouts(ctx context.Context) {
	n, err := w.sessions.SweepExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Timeout sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("timed_out", n).Msg("Timed out overdue sessions")
	}
}

func (w *MaintenanceWorker) retryPending(ctx context.Context) {
	sessionIDs, err := w.results.ListPendingSessions(ctx, pendingBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Pending listing failed")
		return
	}

	recovered := 0
	for _, id := range sessionIDs {
		result, err := w.orchestrator.RecalculatePending(ctx, id)
		if err != nil {
			w.log.Error().Err(err).Str("session_id", id.String()).Msg("Pending recalculation failed")
			continue
		}
		if result.Status == model.ResultStatusCompleted {
			recovered++
		}
	}
	if len(sessionIDs) > 0 {
		w.log.Info().
			Int("pending", len(sessionIDs)).
			Int("recovered", recovered).
			Msg("Pending retry sweep done")
	}
}
