package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/rounds"
)

// setupTriviaGame creates a game configured for one two-question trivia
// round with a known question set.
func setupTriviaGame(t *testing.T, svc *GameService) (*model.Game, []model.Team) {
	t.Helper()
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")

	setup := &model.GameSetup{
		Rounds:        []model.RoundType{model.RoundTriviaBuzz},
		RoundSettings: model.RoundSettings{TriviaBuzzQuestions: 2},
		Difficulty:    model.DifficultyEasy,
	}
	_, err := svc.PatchState(ctx, game.ID, model.StatePatch{
		RoundData: &model.RoundDataPatch{GameSetup: model.Some(setup)},
	})
	require.NoError(t, err)

	err = svc.store.SaveQuestionSet(ctx, game.ID, &model.QuestionSet{
		TriviaBuzz: []model.Question{
			{ID: "q1", Text: "Q1", Answer: "A1"},
			{ID: "q2", Text: "Q2", Answer: "A2"},
		},
	})
	require.NoError(t, err)
	return game, teams
}

func TestStartGameRunsTriviaRound(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()
	game, teams := setupTriviaGame(t, svc)
	p1, err := svc.JoinGame(ctx, game.Code, teams[0].ID, "Ana")
	require.NoError(t, err)

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	started, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, started.Status)

	_, registered := svc.Session(game.ID)
	assert.True(t, registered)

	require.NoError(t, session.Orchestrator().AckRules())

	// The session arbitrates the race; the document gate is bypassed.
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID, PlayerID: p1.ID})
	require.NoError(t, err)
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[1].ID})
	assert.ErrorIs(t, err, rounds.ErrTooLate)

	buzzes, err := svc.ListBuzzes(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, buzzes, 1)
	assert.Equal(t, "Ana", buzzes[0].PlayerName)

	require.NoError(t, session.Orchestrator().WithTrivia(func(tb *rounds.TriviaBuzz) error {
		if err := tb.MarkCorrect(); err != nil {
			return err
		}
		return tb.Next()
	}))

	// Second question finishes the round and the game.
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID, PlayerID: p1.ID})
	require.NoError(t, err)
	require.NoError(t, session.Orchestrator().WithTrivia(func(tb *rounds.TriviaBuzz) error {
		if err := tb.MarkCorrect(); err != nil {
			return err
		}
		return tb.Next()
	}))

	finished, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, finished.Status)

	scored, err := st.GetTeam(ctx, teams[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 200, scored.Score)

	summary := session.Orchestrator().Summary()
	assert.Equal(t, []string{teams[0].ID}, summary.Winners)
	assert.False(t, summary.Tie)

	assert.Eventually(t, func() bool {
		_, ok := svc.Session(game.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStartGameTwiceFails(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, _ := setupTriviaGame(t, svc)

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	_, err = svc.StartGame(ctx, game.ID, nil)
	assert.ErrorContains(t, err, "already has a host session")
}

func TestStartGameRequiresSetup(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	bare := &model.Game{ID: "bare", Code: "AAA000", Status: model.StatusWaiting}
	require.NoError(t, st.CreateGame(ctx, bare))

	_, err := svc.StartGame(ctx, "bare", nil)
	assert.ErrorContains(t, err, "no setup")
}

func TestStartGameGeneratesQuestionsWhenMissing(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()
	game, _ := createTestGame(t, svc, "")

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	set, err := st.GetQuestionSet(ctx, game.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, set.TriviaBuzz)
}

func TestBuzzOutsideTriviaRejected(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")

	setup := &model.GameSetup{
		Rounds:        []model.RoundType{model.RoundQuickBuild},
		RoundSettings: model.RoundSettings{QuickBuildSeconds: 30},
	}
	_, err := svc.PatchState(ctx, game.ID, model.StatePatch{
		RoundData: &model.RoundDataPatch{GameSetup: model.Some(setup)},
	})
	require.NoError(t, err)

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)
	require.NoError(t, session.Orchestrator().AckRules())

	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID})
	assert.ErrorIs(t, err, ErrCannotBuzz)
}

func TestSessionStopUnregisters(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, _ := setupTriviaGame(t, svc)

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)

	session.Stop()
	_, ok := svc.Session(game.ID)
	assert.False(t, ok)
}

func TestSessionPublishesInstructions(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, _ := setupTriviaGame(t, svc)

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	state, err := svc.GetState(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, state.RoundData)
	require.NotNil(t, state.RoundData.ShowRules)
	assert.True(t, *state.RoundData.ShowRules)
	require.NotNil(t, state.RoundData.NextRoundName)
	assert.Equal(t, "Trivia Buzz", *state.RoundData.NextRoundName)
}

func TestSessionTracksRoundPosition(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := createTestGame(t, svc, "")

	setup := &model.GameSetup{
		Rounds:        []model.RoundType{model.RoundTriviaBuzz, model.RoundQuickBuild},
		RoundSettings: model.RoundSettings{TriviaBuzzQuestions: 1, QuickBuildSeconds: 30},
	}
	_, err := svc.PatchState(ctx, game.ID, model.StatePatch{
		RoundData: &model.RoundDataPatch{GameSetup: model.Some(setup)},
	})
	require.NoError(t, err)
	require.NoError(t, svc.store.SaveQuestionSet(ctx, game.ID, &model.QuestionSet{
		TriviaBuzz: []model.Question{{ID: "q1", Text: "Q1", Answer: "A1"}},
	}))

	session, err := svc.StartGame(ctx, game.ID, nil)
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	started, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, started.CurrentRound)
	assert.Equal(t, model.RoundTriviaBuzz, started.CurrentRoundType)

	require.NoError(t, session.Orchestrator().AckRules())
	err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID})
	require.NoError(t, err)
	require.NoError(t, session.Orchestrator().WithTrivia(func(tb *rounds.TriviaBuzz) error {
		if err := tb.MarkCorrect(); err != nil {
			return err
		}
		return tb.Next()
	}))

	// The transition screen still reports the finished round; the record
	// moves when the next round's instructions go up.
	assert.Eventually(t, func() bool {
		g, err := svc.GetGame(ctx, game.ID)
		return err == nil && g.CurrentRound == 1 && g.CurrentRoundType == model.RoundQuickBuild
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSessionRendersSummaryOnMonitor(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	ctx := context.Background()
	game, teams := setupTriviaGame(t, svc)

	var console bytes.Buffer
	session, err := svc.StartGame(ctx, game.ID, NewMonitor(&console))
	require.NoError(t, err)
	t.Cleanup(session.Stop)

	require.NoError(t, session.Orchestrator().AckRules())
	for i := 0; i < 2; i++ {
		err = svc.Buzz(ctx, game.ID, BuzzParams{TeamID: teams[0].ID})
		require.NoError(t, err)
		require.NoError(t, session.Orchestrator().WithTrivia(func(tb *rounds.TriviaBuzz) error {
			if err := tb.MarkCorrect(); err != nil {
				return err
			}
			return tb.Next()
		}))
	}

	out := console.String()
	assert.Contains(t, out, "FINAL RESULTS")
	assert.Contains(t, out, "Alpha")
}
