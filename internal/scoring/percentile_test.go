package scoring

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHistory struct {
	total int
	below int
}

func (s *stubHistory) CountCompleted(context.Context, uuid.UUID) (int, error) {
	return s.total, nil
}

func (s *stubHistory) CountCompletedBelow(context.Context, uuid.UUID, float64) (int, error) {
	return s.below, nil
}

func TestRankDefaultsWithThinHistory(t *testing.T) {
	for _, total := range []int{0, 1} {
		calc := NewPercentileCalculator(&stubHistory{total: total})
		rank, err := calc.Rank(context.Background(), uuid.New(), 80)
		require.NoError(t, err)
		assert.Equal(t, defaultPercentile, rank)
	}
}

func TestRank(t *testing.T) {
	cases := []struct {
		name  string
		total int
		below int
		want  int
	}{
		{"bottom", 11, 0, 0},
		{"top", 11, 10, 100},
		{"middle", 11, 5, 50},
		{"rounded", 4, 2, 67},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := NewPercentileCalculator(&stubHistory{total: tc.total, below: tc.below})
			rank, err := calc.Rank(context.Background(), uuid.New(), 75)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rank)
		})
	}
}
