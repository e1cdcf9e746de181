package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
)

func strp(s string) *string { return &s }

func drawSnapshot() model.Snapshot {
	return model.Snapshot{
		Game: &model.Game{ID: "g1"},
		State: &model.GameState{
			GameID: "g1",
			RoundData: &model.RoundData{
				GameSetup: &model.GameSetup{
					Rounds:      []model.RoundType{model.RoundBlindDraw},
					HostPinHash: "deadbeef",
				},
				BlindDraw: &model.BlindDrawData{
					Phase:          model.TurnActive,
					Word:           strp("giraffe"),
					DrawerTeamID:   strp("team-a"),
					DrawerPlayerID: strp("p1"),
				},
			},
		},
	}
}

func TestProjectHostSeesEverything(t *testing.T) {
	t.Parallel()

	snap := drawSnapshot()
	out := Project(snap, Viewer{Role: RoleHost})
	assert.Equal(t, "giraffe", *out.State.RoundData.BlindDraw.Word)
	assert.Equal(t, "deadbeef", out.State.RoundData.GameSetup.HostPinHash)
}

func TestProjectWordOnlyForDrawer(t *testing.T) {
	t.Parallel()

	snap := drawSnapshot()

	drawer := Project(snap, Viewer{Role: RolePlayer, PlayerID: "p1"})
	require.NotNil(t, drawer.State.RoundData.BlindDraw.Word)
	assert.Equal(t, "giraffe", *drawer.State.RoundData.BlindDraw.Word)

	guesser := Project(snap, Viewer{Role: RolePlayer, PlayerID: "p3"})
	assert.Nil(t, guesser.State.RoundData.BlindDraw.Word)
	assert.Equal(t, "p1", *guesser.State.RoundData.BlindDraw.DrawerPlayerID,
		"identity stays visible, only the word is secret")

	display := Project(snap, Viewer{Role: RoleDisplay})
	assert.Nil(t, display.State.RoundData.BlindDraw.Word)

	// The source snapshot is untouched.
	assert.Equal(t, "giraffe", *snap.State.RoundData.BlindDraw.Word)
}

func TestProjectCharadesWordOnlyForActor(t *testing.T) {
	t.Parallel()

	snap := model.Snapshot{State: &model.GameState{
		RoundData: &model.RoundData{
			DumpCharades: &model.CharadesData{
				Phase:         model.TurnActive,
				Word:          strp("moonwalk"),
				ActorPlayerID: strp("p2"),
			},
		},
	}}

	actor := Project(snap, Viewer{Role: RolePlayer, PlayerID: "p2"})
	assert.Equal(t, "moonwalk", *actor.State.RoundData.DumpCharades.Word)

	other := Project(snap, Viewer{Role: RolePlayer, PlayerID: "p1"})
	assert.Nil(t, other.State.RoundData.DumpCharades.Word)
}

func TestProjectPinHashStripped(t *testing.T) {
	t.Parallel()

	snap := drawSnapshot()
	out := Project(snap, Viewer{Role: RolePlayer, PlayerID: "p3"})
	assert.Empty(t, out.State.RoundData.GameSetup.HostPinHash)
	assert.NotEmpty(t, out.State.RoundData.GameSetup.Rounds, "setup itself stays visible")
	assert.Equal(t, "deadbeef", snap.State.RoundData.GameSetup.HostPinHash)
}

func TestProjectDraftsOwnOnlyWhileActive(t *testing.T) {
	t.Parallel()

	active := model.Snapshot{State: &model.GameState{
		RoundData: &model.RoundData{
			GuessNumber: &model.GuessNumberData{
				Phase: model.GuessActive,
				PlayerDrafts: map[string]model.GuessEntry{
					"p1": {PlayerID: "p1", Guess: 80},
					"p3": {PlayerID: "p3", Guess: 90},
				},
			},
		},
	}}

	own := Project(active, Viewer{Role: RolePlayer, PlayerID: "p1"})
	d := own.State.RoundData.GuessNumber
	require.Len(t, d.PlayerDrafts, 1)
	assert.Equal(t, 80, d.PlayerDrafts["p1"].Guess)

	noDraft := Project(active, Viewer{Role: RolePlayer, PlayerID: "p2"})
	assert.Empty(t, noDraft.State.RoundData.GuessNumber.PlayerDrafts)

	display := Project(active, Viewer{Role: RoleDisplay})
	assert.Empty(t, display.State.RoundData.GuessNumber.PlayerDrafts)
}

func TestProjectRevealedGuessesPublic(t *testing.T) {
	t.Parallel()

	revealed := model.Snapshot{State: &model.GameState{
		RoundData: &model.RoundData{
			GuessNumber: &model.GuessNumberData{
				Phase: model.GuessRevealed,
				PlayerGuesses: map[string]model.GuessEntry{
					"p1": {PlayerID: "p1", Guess: 80},
					"p3": {PlayerID: "p3", Guess: 90},
				},
			},
		},
	}}

	out := Project(revealed, Viewer{Role: RolePlayer, PlayerID: "p1"})
	assert.Len(t, out.State.RoundData.GuessNumber.PlayerGuesses, 2)
}

func TestProjectNilState(t *testing.T) {
	t.Parallel()

	out := Project(model.Snapshot{}, Viewer{Role: RolePlayer, PlayerID: "p1"})
	assert.Nil(t, out.State)
}
