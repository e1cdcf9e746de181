package server

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/config"
	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/gamecode"
	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/store"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestService(t *testing.T) (*GameService, store.Store) {
	t.Helper()
	st := store.NewMemory()
	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Stop)
	provider := content.NewStatic(rand.New(rand.NewSource(1)))
	svc := NewGameService(st, hub, provider, config.Default().Game, testLogger())
	return svc, st
}

func createTestGame(t *testing.T, svc *GameService, pin string) (*model.Game, []model.Team) {
	t.Helper()
	game, teams, err := svc.CreateGame(context.Background(), CreateGameParams{
		Teams:      []TeamSpec{{Name: "Alpha", Color: "#ff0000"}, {Name: "Bravo", Color: "#0000ff"}},
		Difficulty: model.DifficultyMedium,
		Rounds:     []model.RoundType{model.RoundTriviaBuzz},
		HostPin:    pin,
	})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	return game, teams
}

func TestCreateGameSeedsSetup(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	game, teams := createTestGame(t, svc, "4321")

	require.NoError(t, gamecode.Validate(game.Code))
	assert.Equal(t, model.StatusWaiting, game.Status)
	assert.Equal(t, model.RoundTriviaBuzz, game.CurrentRoundType)
	assert.Equal(t, "Alpha", teams[0].Name)

	state, err := svc.GetState(context.Background(), game.ID)
	require.NoError(t, err)
	require.NotNil(t, state.RoundData)
	require.NotNil(t, state.RoundData.GameSetup)
	assert.Equal(t, []model.RoundType{model.RoundTriviaBuzz}, state.RoundData.GameSetup.Rounds)
	assert.Equal(t, HashHostPin(game.ID, "4321"), state.RoundData.GameSetup.HostPinHash)
}

func TestCreateGameValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.CreateGame(ctx, CreateGameParams{
		Teams:  []TeamSpec{{Name: "A"}, {Name: "B"}},
		Rounds: nil,
	})
	assert.Error(t, err)

	_, _, err = svc.CreateGame(ctx, CreateGameParams{
		Teams:  []TeamSpec{{Name: "A"}, {Name: "B"}},
		Rounds: []model.RoundType{"karaoke"},
	})
	assert.Error(t, err)

	_, _, err = svc.CreateGame(ctx, CreateGameParams{
		Teams:  []TeamSpec{{Name: "A"}},
		Rounds: []model.RoundType{model.RoundTriviaBuzz},
	})
	assert.Error(t, err)

	_, _, err = svc.CreateGame(ctx, CreateGameParams{
		Teams:  []TeamSpec{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}, {Name: "E"}},
		Rounds: []model.RoundType{model.RoundTriviaBuzz},
	})
	assert.Error(t, err)
}

func TestJoinGame(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")

	player, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Ana")
	require.NoError(t, err)
	assert.Equal(t, game.ID, player.GameID)
	assert.Equal(t, teams[0].ID, player.TeamID)
	assert.True(t, player.Connected)

	// Codes are accepted in display form too.
	_, err = svc.JoinGame(ctx, gamecode.Format(game.Code), teams[1].ID, "Bea")
	require.NoError(t, err)

	_, err = svc.JoinGame(ctx, "ZZZZZZ", teams[0].ID, "Cal")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, otherTeams := createTestGame(t, svc, "")
	_, err = svc.JoinGame(ctx, game.Code, otherTeams[0].ID, "Dan")
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestJoinGameTeamFull(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")

	for i := 0; i < config.Default().Game.MaxPlayersPerTeam; i++ {
		_, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Player")
		require.NoError(t, err)
	}
	_, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Overflow")
	assert.ErrorContains(t, err, "full")
}

func TestHostAuth(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, _ := createTestGame(t, svc, "7777")

	authed, err := svc.HostAuth(ctx, game.Code, "7777")
	require.NoError(t, err)
	assert.Equal(t, game.ID, authed.ID)

	_, err = svc.HostAuth(ctx, game.Code, "0000")
	assert.ErrorIs(t, err, ErrBadPin)

	noPin, _ := createTestGame(t, svc, "")
	_, err = svc.HostAuth(ctx, noPin.Code, "7777")
	assert.ErrorIs(t, err, ErrPinNotSet)
}

func TestUpdateGamePartial(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, _ := createTestGame(t, svc, "")

	status := model.StatusInProgress
	updated, err := svc.UpdateGame(ctx, game.ID, GameUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
	// Untouched fields survive.
	assert.Equal(t, game.Code, updated.Code)
	assert.Equal(t, model.DifficultyMedium, updated.Difficulty)
}

func TestAddTeamScoreMayGoNegative(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, teams := createTestGame(t, svc, "")

	team, err := svc.AddTeamScore(ctx, teams[0].ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, team.Score)

	team, err = svc.AddTeamScore(ctx, teams[0].ID, -200)
	require.NoError(t, err)
	assert.Equal(t, -50, team.Score)
}

func TestBuzzDocumentGate(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")
	p1, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Ana")
	require.NoError(t, err)

	// Gate starts closed.
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID, PlayerID: p1.ID})
	assert.ErrorIs(t, err, ErrCannotBuzz)

	_, err = svc.SetBuzzing(ctx, game.ID, true)
	require.NoError(t, err)

	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID, PlayerID: p1.ID, QuestionText: "capital of France?"})
	require.NoError(t, err)

	// The lock holds against the other team.
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[1].ID})
	assert.ErrorIs(t, err, ErrCannotBuzz)

	state, err := svc.GetState(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, state.BuzzedTeamID)
	assert.Equal(t, teams[0].ID, *state.BuzzedTeamID)
	assert.False(t, state.CanBuzz)
	require.NotNil(t, state.RoundData.Trivia)
	require.NotNil(t, state.RoundData.Trivia.BuzzedPlayerName)
	assert.Equal(t, "Ana", *state.RoundData.Trivia.BuzzedPlayerName)

	buzzes, err := svc.ListBuzzes(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, buzzes, 1)
	assert.Equal(t, "Ana", buzzes[0].PlayerName)
	assert.True(t, buzzes[0].WasFirst)
	assert.Equal(t, "capital of France?", buzzes[0].QuestionText)

	// Reset reopens the gate and clears the lock.
	state, err = svc.ResetBuzz(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, state.CanBuzz)
	assert.Nil(t, state.BuzzedTeamID)

	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[1].ID})
	require.NoError(t, err)
}

func TestDisconnectPlayer(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")
	p1, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Ana")
	require.NoError(t, err)

	player, err := svc.DisconnectPlayer(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, player.Connected)

	// Disconnected players stay on the roster.
	players, err := svc.Players(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.False(t, players[0].Connected)
}

func TestGenerateQuestionsSavesSet(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()
	game, _ := createTestGame(t, svc, "")

	set, err := svc.GenerateQuestions(ctx, game.ID, content.Request{
		Rounds:     []model.RoundType{model.RoundTriviaBuzz},
		Difficulty: model.DifficultyEasy,
		Settings:   model.RoundSettings{TriviaBuzzQuestions: 5},
	})
	require.NoError(t, err)
	assert.Len(t, set.TriviaBuzz, 5)

	saved, err := st.GetQuestionSet(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, set.TriviaBuzz, saved.TriviaBuzz)
}

func TestSnapshotAssembly(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")
	_, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Ana")
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.Game)
	assert.Equal(t, game.ID, snap.Game.ID)
	assert.Len(t, snap.Teams, 2)
	assert.Len(t, snap.Players, 1)
	require.NotNil(t, snap.State)
	assert.Equal(t, game.ID, snap.State.GameID)
}
