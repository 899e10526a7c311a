package psychometrics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

func TestIsEligibleForAssembly(t *testing.T) {
	stats := newMemoryStats()
	retired := uuid.New()
	active := uuid.New()
	probation := uuid.New()
	unknown := uuid.New()

	stats.rows[retired] = &model.ItemStatistics{QuestionID: retired, Validity: model.ValidityRetired}
	stats.rows[active] = &model.ItemStatistics{QuestionID: active, Validity: model.ValidityActive}
	stats.rows[probation] = &model.ItemStatistics{QuestionID: probation, Validity: model.ValidityProbation}

	checker := NewEligibilityChecker(stats)

	cases := []struct {
		name string
		id   uuid.UUID
		want bool
	}{
		{"retired excluded", retired, false},
		{"active selectable", active, true},
		{"probation selectable", probation, true},
		{"no statistics yet selectable", unknown, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := checker.IsEligibleForAssembly(context.Background(), tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestRecomputeRestoresRetiredItem(t *testing.T) {
	qid := uuid.New()
	stats := newMemoryStats()
	stats.rows[qid] = &model.ItemStatistics{QuestionID: qid, Validity: model.ValidityRetired}

	responses := &stubResponses{byQuestion: map[uuid.UUID][]ItemResponse{qid: correlated(40)}}
	a := NewAnalyzer(responses, stats, &stubReliability{}, &stubTaxonomy{}, 30, zerolog.Nop())

	got, err := a.RecomputeItem(context.Background(), qid)
	require.NoError(t, err)
	assert.Equal(t, model.ValidityActive, got.Validity)

	checker := NewEligibilityChecker(stats)
	ok, err := checker.IsEligibleForAssembly(context.Background(), qid)
	require.NoError(t, err)
	assert.True(t, ok)
}
