package rounds

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
)

func lightningQuestions(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{ID: fmt.Sprintf("q%d", i), Text: fmt.Sprintf("Q%d", i), Answer: "A"}
	}
	return out
}

func newLightning(t *testing.T) (*Lightning, *fakeDoc, *fakeLedger) {
	t.Helper()
	doc := &fakeDoc{}
	ledger := newFakeLedger()
	l := NewLightning(twoTeamDeps(doc, ledger), quietLogger(), lightningQuestions(20), 60)
	l.Begin()
	return l, doc, ledger
}

func TestLightningTurn(t *testing.T) {
	t.Parallel()

	l, doc, ledger := newLightning(t)

	assert.Equal(t, "team-a", l.CurrentTeam())
	require.NoError(t, l.StartTurn())

	s := doc.snapshot()
	assert.Equal(t, model.LightningActive, s.RoundData.Lightning.Phase)
	assert.Equal(t, 60, s.RoundData.Lightning.TimeRemaining)
	assert.Equal(t, "team-a", *s.CurrentTurnTeamID)

	require.NoError(t, l.Correct())
	require.NoError(t, l.Correct())
	require.NoError(t, l.Correct())
	require.NoError(t, l.Pass())
	require.NoError(t, l.Incorrect())
	require.NoError(t, l.Incorrect())
	require.NoError(t, l.Incorrect())

	assert.Equal(t, 150, ledger.totals["team-a"])
	assert.Equal(t, 6, l.Resolved(), "passes are not resolutions")

	for i := 0; i < 60; i++ {
		l.Tick()
	}
	s = doc.snapshot()
	assert.Equal(t, 150, s.RoundData.Lightning.PointsThisRound)
	assert.Equal(t, 3, s.RoundData.Lightning.CorrectCount)
	assert.Equal(t, 3, s.RoundData.Lightning.IncorrectCount)
}

func TestLightningPassRequeues(t *testing.T) {
	t.Parallel()

	l, doc, _ := newLightning(t)
	require.NoError(t, l.StartTurn())

	first := *doc.snapshot().RoundData.Lightning.Question
	require.NoError(t, l.Pass())
	second := *doc.snapshot().RoundData.Lightning.Question
	assert.NotEqual(t, first, second)

	// Resolve everything else; the passed question resurfaces last.
	for i := 0; i < lightningPerTeam-1; i++ {
		require.NoError(t, l.Incorrect())
	}
	// Queue is exhausted only after the requeued question is resolved too,
	// so the turn is still running before that final resolution.
	assert.Equal(t, lightningPerTeam-1, l.Resolved())
}

func TestLightningAutoAdvancesTeams(t *testing.T) {
	t.Parallel()

	l, doc, _ := newLightning(t)
	require.NoError(t, l.StartTurn())

	for i := 0; i < lightningPerTeam; i++ {
		require.NoError(t, l.Correct())
	}
	assert.Equal(t, model.LightningExpired, doc.snapshot().RoundData.Lightning.Phase)

	l.Tick()
	l.Tick()
	assert.Equal(t, "team-b", l.CurrentTeam(), "advances without host action")
	assert.Equal(t, model.LightningIdle, doc.snapshot().RoundData.Lightning.Phase)
}

func TestLightningQueuesAreDistinctPerTeam(t *testing.T) {
	t.Parallel()

	l, doc, _ := newLightning(t)
	require.NoError(t, l.StartTurn())
	teamAFirst := *doc.snapshot().RoundData.Lightning.Question

	for i := 0; i < lightningPerTeam; i++ {
		require.NoError(t, l.Incorrect())
	}
	l.Tick()
	l.Tick()
	require.NoError(t, l.StartTurn())
	teamBFirst := *doc.snapshot().RoundData.Lightning.Question

	// Slicing by team index starts team B deeper in the pool.
	assert.Equal(t, "Q0", teamAFirst)
	assert.Equal(t, "Q10", teamBFirst)
}

func TestLightningCompletesAfterLastTeam(t *testing.T) {
	t.Parallel()

	l, _, ledger := newLightning(t)

	for team := 0; team < 2; team++ {
		require.NoError(t, l.StartTurn())
		for i := 0; i < lightningPerTeam; i++ {
			require.NoError(t, l.Correct())
		}
		l.Tick()
		l.Tick()
	}
	assert.True(t, l.Finished())
	assert.Equal(t, 500, ledger.totals["team-a"])
	assert.Equal(t, 500, ledger.totals["team-b"])

	assert.ErrorIs(t, l.StartTurn(), ErrBadPhase)
}

func TestLightningTimerExpiry(t *testing.T) {
	t.Parallel()

	l, doc, _ := newLightning(t)
	require.NoError(t, l.StartTurn())

	for i := 0; i < 60; i++ {
		l.Tick()
	}
	assert.Equal(t, model.LightningExpired, doc.snapshot().RoundData.Lightning.Phase)
	assert.ErrorIs(t, l.Correct(), ErrBadPhase)
}
