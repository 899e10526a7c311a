package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBlueprint(t *testing.T) {
	bp, err := DecodeBlueprint(GoalOverview, json.RawMessage(`{"questions_per_competency":3}`))
	require.NoError(t, err)
	overview, ok := bp.(OverviewBlueprint)
	require.True(t, ok)
	assert.Equal(t, 3, overview.QuestionsPerCompetency)
	assert.Equal(t, GoalOverview, overview.Goal())

	bp, err = DecodeBlueprint(GoalJobFit, json.RawMessage(`{"role_code":"SRE","questions_per_indicator":2}`))
	require.NoError(t, err)
	jobFit, ok := bp.(JobFitBlueprint)
	require.True(t, ok)
	assert.Equal(t, "SRE", jobFit.RoleCode)

	teamID := uuid.New()
	raw, err := json.Marshal(TeamFitBlueprint{TeamID: teamID, SaturationThreshold: 0.25, BaseQuestions: 5})
	require.NoError(t, err)
	bp, err = DecodeBlueprint(GoalTeamFit, raw)
	require.NoError(t, err)
	teamFit, ok := bp.(TeamFitBlueprint)
	require.True(t, ok)
	assert.Equal(t, teamID, teamFit.TeamID)
	assert.Equal(t, 0.25, teamFit.SaturationThreshold)
}

func TestDecodeBlueprintErrors(t *testing.T) {
	_, err := DecodeBlueprint(GoalOverview, nil)
	assert.ErrorIs(t, err, ErrMissingBlueprint)

	_, err = DecodeBlueprint(GoalOverview, json.RawMessage(`not json`))
	assert.Error(t, err)

	_, err = DecodeBlueprint("SOMETHING_ELSE", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestSessionTerminal(t *testing.T) {
	s := TestSession{Status: SessionStatusInProgress}
	assert.False(t, s.Terminal())

	for _, status := range []SessionStatus{SessionStatusCompleted, SessionStatusAbandoned, SessionStatusTimedOut} {
		s.Status = status
		assert.True(t, s.Terminal(), string(status))
	}
}

func TestAnswerAnswered(t *testing.T) {
	a := TestAnswer{}
	assert.False(t, a.Answered())

	now := time.Now()
	a.AnsweredAt = &now
	assert.True(t, a.Answered())

	a.Skipped = true
	assert.False(t, a.Answered())
}
