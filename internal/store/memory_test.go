package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
)

func newTestGame(t *testing.T, m *Memory) *model.Game {
	t.Helper()
	g := &model.Game{
		ID:        "game-1",
		Code:      "GAMENITE",
		Status:    model.StatusWaiting,
		CreatedAt: time.Now(),
	}
	require.NoError(t, m.CreateGame(context.Background(), g))
	return g
}

func TestCreateAndLookupGame(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	got, err := m.GetGame(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Code, got.Code)

	byCode, err := m.GetGameByCode(context.Background(), "GAMENITE")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byCode.ID)

	_, err = m.GetGameByCode(context.Background(), "WRONGONE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateGameCodeCollision(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	newTestGame(t, m)

	err := m.CreateGame(context.Background(), &model.Game{ID: "game-2", Code: "GAMENITE"})
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestCreateGameInitializesState(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	s, err := m.GetState(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, s.GameID)
	assert.Nil(t, s.RoundData)
}

func TestAddTeamScore(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t1", GameID: g.ID, Name: "Red"}))

	score, err := m.AddTeamScore(context.Background(), "t1", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	score, err = m.AddTeamScore(context.Background(), "t1", -150)
	require.NoError(t, err)
	assert.Equal(t, -50, score, "scores may go negative")

	_, err = m.AddTeamScore(context.Background(), "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddTeamScoreConcurrent(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t1", GameID: g.ID}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.AddTeamScore(context.Background(), "t1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	team, err := m.GetTeam(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 500, team.Score, "no delta may be lost")
}

func TestCreatePlayerAppendsToRoster(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t1", GameID: g.ID, Name: "Red"}))
	require.NoError(t, m.CreatePlayer(context.Background(), &model.Player{
		ID: "p1", GameID: g.ID, TeamID: "t1", Name: "Ana", Connected: true,
	}))

	team, err := m.GetTeam(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, team.Players)
}

func TestSetPlayerConnectedKeepsPlayer(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)
	require.NoError(t, m.CreatePlayer(context.Background(), &model.Player{
		ID: "p1", GameID: g.ID, Name: "Ana", Connected: true,
	}))

	require.NoError(t, m.SetPlayerConnected(context.Background(), "p1", false))

	p, err := m.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, p.Connected)

	players, err := m.ListPlayers(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, players, 1, "disconnect never deletes")
}

func TestPatchStateMerges(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	_, err := m.PatchState(context.Background(), g.ID, model.StatePatch{
		CurrentQuestion: model.Some(strp("Q1")),
		CanBuzz:         model.Some(true),
	})
	require.NoError(t, err)

	s, err := m.PatchState(context.Background(), g.ID, model.StatePatch{
		BuzzedTeamID: model.Some(strp("t1")),
		CanBuzz:      model.Some(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Q1", *s.CurrentQuestion, "earlier fields survive later patches")
	assert.Equal(t, "t1", *s.BuzzedTeamID)
	assert.False(t, s.CanBuzz)
}

func TestPatchStateReturnsClone(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	s1, err := m.PatchState(context.Background(), g.ID, model.StatePatch{
		CurrentQuestion: model.Some(strp("Q1")),
	})
	require.NoError(t, err)
	*s1.CurrentQuestion = "tampered"

	s2, err := m.GetState(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1", *s2.CurrentQuestion)
}

func TestBuzzHistory(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	require.NoError(t, m.RecordBuzz(context.Background(), &model.BuzzRecord{
		ID: "b1", GameID: g.ID, TeamID: "t1", WasFirst: true,
	}))
	require.NoError(t, m.RecordBuzz(context.Background(), &model.BuzzRecord{
		ID: "b2", GameID: g.ID, TeamID: "t2",
	}))

	buzzes, err := m.ListBuzzes(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, buzzes, 2)
	assert.True(t, buzzes[0].WasFirst)
	assert.False(t, buzzes[1].WasFirst)
}

func TestQuestionSetRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)

	_, err := m.GetQuestionSet(context.Background(), g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	set := &model.QuestionSet{TriviaBuzz: []model.Question{{ID: "q1", Text: "Q?", Answer: "A"}}}
	require.NoError(t, m.SaveQuestionSet(context.Background(), g.ID, set))

	got, err := m.GetQuestionSet(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, got.TriviaBuzz, 1)
	assert.Equal(t, "q1", got.TriviaBuzz[0].ID)
}

func TestListTeamsSorted(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	g := newTestGame(t, m)
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t2", GameID: g.ID, Name: "Blue"}))
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t1", GameID: g.ID, Name: "Red"}))
	require.NoError(t, m.CreateTeam(context.Background(), &model.Team{ID: "t9", GameID: "other", Name: "Elsewhere"}))

	teams, err := m.ListTeams(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Blue", teams[0].Name)
	assert.Equal(t, "Red", teams[1].Name)
}

func strp(s string) *string { return &s }
