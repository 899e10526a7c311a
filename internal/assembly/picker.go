package assembly

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// Picker is the shared question selection service. It enforces psychometric
// eligibility (RETIRED items are never selected), prefers the requested
// difficulty, and never re-selects a question already used in the assembly.
type Picker struct {
	catalog     Catalog
	eligibility Eligibility
	log         zerolog.Logger
}

// NewPicker creates a Picker.
func NewPicker(catalog Catalog, eligibility Eligibility, log zerolog.Logger) *Picker {
	return &Picker{
		catalog:     catalog,
		eligibility: eligibility,
		log:         log.With().Str("component", "question_picker").Logger(),
	}
}

// Pick selects up to count questions for an indicator. Questions at the
// target difficulty come first; the pool widens to other difficulties when
// the preferred band runs dry. used is mutated with every selected id.
func (p *Picker) Pick(
	ctx context.Context,
	indicatorID uuid.UUID,
	count int,
	target model.Difficulty,
	used map[uuid.UUID]bool,
) ([]uuid.UUID, error) {
	if count <= 0 {
		return nil, nil
	}

	questions, err := p.catalog.ListActiveQuestions(ctx, indicatorID)
	if err != nil {
		return nil, fmt.Errorf("list questions for indicator %s: %w", indicatorID, err)
	}

	eligible := make([]model.AssessmentQuestion, 0, len(questions))
	for _, q := range questions {
		if used[q.ID] {
			continue
		}
		ok, err := p.eligibility.IsEligibleForAssembly(ctx, q.ID)
		if err != nil {
			// Eligibility lookup failures exclude the item rather than
			// aborting the assembly.
			p.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("Eligibility check failed, excluding item")
			continue
		}
		if ok {
			eligible = append(eligible, q)
		}
	}

	picked := make([]uuid.UUID, 0, count)
	// Preferred difficulty first, then widen.
	for _, q := range eligible {
		if len(picked) >= count {
			break
		}
		if q.Difficulty == target {
			picked = append(picked, q.ID)
			used[q.ID] = true
		}
	}
	for _, q := range eligible {
		if len(picked) >= count {
			break
		}
		if !used[q.ID] {
			picked = append(picked, q.ID)
			used[q.ID] = true
		}
	}

	return picked, nil
}
