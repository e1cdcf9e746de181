package rounds

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
)

func boardQuestions() []model.BoardQuestion {
	themes := []string{"Science", "Movies", "Sports", "Food"}
	var out []model.BoardQuestion
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out = append(out, model.BoardQuestion{
				Column: col,
				Row:    row,
				Question: model.Question{
					ID:       fmt.Sprintf("c%dr%d", col, row),
					Text:     fmt.Sprintf("question %d-%d", col, row),
					Answer:   "answer",
					Category: themes[col],
				},
			})
		}
	}
	return out
}

func newConnect4(t *testing.T) (*Connect4, *fakeDoc, *fakeLedger) {
	t.Helper()
	doc := &fakeDoc{}
	ledger := newFakeLedger()
	c := NewConnect4(twoTeamDeps(doc, ledger), quietLogger(), boardQuestions(), rand.New(rand.NewSource(1)))
	c.Begin()
	return c, doc, ledger
}

// startGame flips the coin and puts teamID in control.
func startGame(t *testing.T, c *Connect4, teamID string) {
	t.Helper()
	require.NoError(t, c.CoinFlip())
	require.NoError(t, c.ChooseOrder(c.coinWinner == teamID))
	require.Equal(t, teamID, c.CurrentTeam())
}

// answerColumn runs teamID through every remaining cell of col correctly.
func answerColumn(t *testing.T, c *Connect4, col int) {
	t.Helper()
	for row := 0; row < 4; row++ {
		if c.board[row][col].answered {
			continue
		}
		require.NoError(t, c.SelectCell(row, col))
		require.NoError(t, c.Correct())
	}
}

func TestConnect4SoleOwnerColumn(t *testing.T) {
	t.Parallel()

	c, doc, ledger := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(0))
	answerColumn(t, c, 0)

	// 25+50+75+100 for the cells plus the column bonus, applied once.
	assert.Equal(t, 400, ledger.totals["team-a"])
	assert.Equal(t, 150, c.BonusPoints("team-a"))
	assert.Equal(t, "team-b", c.CurrentTeam(), "sole owner finishing its column passes the turn")

	s := doc.snapshot()
	assert.Equal(t, "team-b", *s.CurrentTurnTeamID)
	assert.Equal(t, model.Connect4ColumnSelect, s.RoundData.Connect4.Phase)
	assert.Equal(t, 150, s.RoundData.Connect4.TeamBonusPoints["team-a"])
}

func TestConnect4ColumnLockRejectsOtherColumns(t *testing.T) {
	t.Parallel()

	c, _, _ := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(1))
	assert.ErrorIs(t, c.SelectCell(0, 2), ErrBadPhase, "locked to column 1")
	require.NoError(t, c.SelectCell(0, 1))
}

func TestConnect4StealKeepsTurnWithChoice(t *testing.T) {
	t.Parallel()

	c, doc, ledger := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(0))
	require.NoError(t, c.SelectCell(2, 0))
	require.NoError(t, c.Incorrect())

	s := doc.snapshot()
	assert.Equal(t, model.Connect4StealOpen, s.RoundData.Connect4.Phase)
	assert.Equal(t, "team-b", *s.RoundData.Connect4.StealTeamID)
	assert.Zero(t, ledger.totals["team-a"], "a miss costs nothing here")

	require.NoError(t, c.StealCorrect())
	assert.Equal(t, 75, ledger.totals["team-b"])
	assert.Equal(t, "team-b", c.CurrentTeam(), "stealer keeps the turn")
	assert.Equal(t, model.Connect4ColumnChoice, doc.snapshot().RoundData.Connect4.Phase)

	require.NoError(t, c.ContinueColumn())
	require.NoError(t, c.SelectCell(0, 0))
	require.NoError(t, c.Correct())
	assert.Equal(t, 100, ledger.totals["team-b"])
}

func TestConnect4StealFinishesColumn(t *testing.T) {
	t.Parallel()

	c, _, _ := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(0))
	for _, row := range []int{0, 1, 2} {
		require.NoError(t, c.SelectCell(row, 0))
		require.NoError(t, c.Correct())
	}
	require.NoError(t, c.SelectCell(3, 0))
	require.NoError(t, c.Incorrect())
	require.NoError(t, c.StealCorrect())

	// The steal completed the column, so the stealer goes straight to a
	// fresh column choice with no continue option.
	assert.Equal(t, "team-b", c.CurrentTeam())
	assert.Equal(t, model.Connect4ColumnSelect, c.phase)
}

func TestConnect4StealIncorrectReturnsTurnToOwner(t *testing.T) {
	t.Parallel()

	c, doc, _ := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(2))
	require.NoError(t, c.SelectCell(1, 2))
	require.NoError(t, c.Incorrect())
	require.NoError(t, c.StealIncorrect())

	s := doc.snapshot()
	cell := s.RoundData.Connect4.Board[1][2]
	assert.True(t, cell.Answered)
	assert.Empty(t, cell.TeamID, "missed steal leaves the cell unclaimed")
	assert.Equal(t, "team-a", c.CurrentTeam(), "turn returns to the column owner")
	assert.Equal(t, model.Connect4ColumnSelect, c.phase)
}

func TestConnect4StealPassAlternates(t *testing.T) {
	t.Parallel()

	c, _, _ := newConnect4(t)
	startGame(t, c, "team-a")

	require.NoError(t, c.SelectColumn(2))
	require.NoError(t, c.SelectCell(1, 2))
	require.NoError(t, c.Incorrect())
	require.NoError(t, c.StealPass())

	assert.True(t, c.board[1][2].answered)
	assert.Empty(t, c.board[1][2].team)
	assert.Equal(t, "team-b", c.CurrentTeam())
}

func TestConnect4RowAndColumnBonusStack(t *testing.T) {
	t.Parallel()

	c, _, ledger := newConnect4(t)
	startGame(t, c, "team-a")

	// Seed the board so claiming (0,3) completes row 0 and column 3 for
	// team A in one move.
	for col := 0; col < 3; col++ {
		c.board[0][col] = boardCell{answered: true, team: "team-a", points: connect4PointValues[0]}
	}
	for row := 1; row < 4; row++ {
		c.board[row][3] = boardCell{answered: true, team: "team-a", points: connect4PointValues[row]}
	}

	require.NoError(t, c.SelectColumn(3))
	require.NoError(t, c.SelectCell(0, 3))
	require.NoError(t, c.Correct())

	// 25 for the cell plus 150 for the row and 150 for the column.
	assert.Equal(t, 325, ledger.totals["team-a"])
	assert.Equal(t, 300, c.BonusPoints("team-a"))
}

func TestConnect4RoundTripTotals(t *testing.T) {
	t.Parallel()

	c, doc, ledger := newConnect4(t)
	startGame(t, c, "team-a")

	// Teams alternate sole-owner columns until the board completes.
	for col := 0; col < 4; col++ {
		require.NoError(t, c.SelectColumn(col))
		answerColumn(t, c, col)
	}
	assert.True(t, c.Finished())
	assert.Equal(t, model.Connect4Complete, doc.snapshot().RoundData.Connect4.Phase)

	claimed := 0
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			claimed += c.board[row][col].points
		}
	}
	bonuses := c.BonusPoints("team-a") + c.BonusPoints("team-b")
	assert.Equal(t, claimed+bonuses, ledger.deltaSum(),
		"claimed cells plus bonuses equal the score deltas applied")
}

func TestConnect4PhaseGuards(t *testing.T) {
	t.Parallel()

	c, _, _ := newConnect4(t)

	assert.ErrorIs(t, c.ChooseOrder(true), ErrBadPhase)
	assert.ErrorIs(t, c.SelectColumn(0), ErrBadPhase)
	assert.ErrorIs(t, c.Correct(), ErrBadPhase)
	assert.ErrorIs(t, c.StealCorrect(), ErrBadPhase)

	require.NoError(t, c.CoinFlip())
	assert.ErrorIs(t, c.CoinFlip(), ErrBadPhase)
}
