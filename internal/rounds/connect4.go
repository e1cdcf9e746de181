package rounds

import (
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	connect4Size       = 4
	connect4BonusScore = 150
)

// Cell point values by row, bottom to top.
var connect4PointValues = [connect4Size]int{25, 50, 75, 100}

type boardCell struct {
	answered bool
	team     string
	points   int
}

// Connect4 runs the themed-board round. Turn discipline: a team locks a
// column and keeps answering inside it until it misses or the column
// completes; misses open a one-shot steal for the other team.
type Connect4 struct {
	deps   Deps
	logger *log.Logger
	rng    *rand.Rand

	board     [connect4Size][connect4Size]boardCell
	questions map[[2]int]model.Question
	themes    [connect4Size]string

	phase       model.Connect4Phase
	coinWinner  string
	currentTeam string

	selectedColumn int // -1 when none
	selectedRow    int
	selectedCol    int
	question       *model.Question

	answeredInColumn int
	originalTeam     string
	continuedStolen  bool
	stolenColumn     int
	stealTeam        string

	bonus   map[string]int
	claimed map[string]int
}

// NewConnect4 creates the controller. A nil rng seeds from the global
// source.
func NewConnect4(deps Deps, logger *log.Logger, questions []model.BoardQuestion, rng *rand.Rand) *Connect4 {
	c := &Connect4{
		deps:           deps,
		logger:         logger.WithPrefix("connect4"),
		rng:            rng,
		questions:      make(map[[2]int]model.Question, len(questions)),
		phase:          model.Connect4CoinFlip,
		selectedColumn: -1,
		bonus:          make(map[string]int),
		claimed:        make(map[string]int),
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	for _, bq := range questions {
		if bq.Row < 0 || bq.Row >= connect4Size || bq.Column < 0 || bq.Column >= connect4Size {
			continue
		}
		c.questions[[2]int{bq.Row, bq.Column}] = bq.Question
		if c.themes[bq.Column] == "" {
			c.themes[bq.Column] = bq.Question.Category
		}
	}
	return c
}

func (c *Connect4) Type() model.RoundType { return model.RoundConnect4 }

func (c *Connect4) Begin() {
	c.publish()
}

func (c *Connect4) Finished() bool { return c.phase == model.Connect4Complete }

// Tick is a no-op; this round has no countdown.
func (c *Connect4) Tick() {}

// CoinFlip picks a random team to receive the go-first choice.
func (c *Connect4) CoinFlip() error {
	if c.phase != model.Connect4CoinFlip {
		return ErrBadPhase
	}
	if len(c.deps.Teams) == 0 {
		return ErrUnknownTeam
	}
	c.coinWinner = c.deps.Teams[c.rng.Intn(len(c.deps.Teams))].ID
	c.phase = model.Connect4Choice
	c.logger.Info("coin flip", "winner", c.coinWinner)
	c.publish()
	return nil
}

// ChooseOrder records the coin-flip winner's decision to go first or
// second.
func (c *Connect4) ChooseOrder(goFirst bool) error {
	if c.phase != model.Connect4Choice {
		return ErrBadPhase
	}
	if goFirst {
		c.currentTeam = c.coinWinner
	} else {
		c.currentTeam = c.deps.otherTeam(c.coinWinner)
	}
	c.phase = model.Connect4ColumnSelect
	c.publish()
	return nil
}

// SelectColumn locks the current team into a column with unanswered cells.
func (c *Connect4) SelectColumn(col int) error {
	if c.phase != model.Connect4ColumnSelect {
		return ErrBadPhase
	}
	if col < 0 || col >= connect4Size || c.columnComplete(col) {
		return ErrBadPhase
	}
	c.selectedColumn = col
	c.answeredInColumn = 0
	c.originalTeam = c.currentTeam
	c.continuedStolen = false
	c.phase = model.Connect4CellSelect
	c.publish()
	return nil
}

// SelectCell opens the question behind an unanswered cell in the locked
// column.
func (c *Connect4) SelectCell(row, col int) error {
	if c.phase != model.Connect4CellSelect {
		return ErrBadPhase
	}
	if col != c.selectedColumn || row < 0 || row >= connect4Size || c.board[row][col].answered {
		return ErrBadPhase
	}
	q, ok := c.questions[[2]int{row, col}]
	if !ok {
		return ErrBadPhase
	}
	c.selectedRow = row
	c.selectedCol = col
	c.question = &q
	c.phase = model.Connect4QuestionActive
	c.publish()
	return nil
}

// Correct claims the open cell for the current team.
func (c *Connect4) Correct() error {
	if c.phase != model.Connect4QuestionActive {
		return ErrBadPhase
	}
	c.claim(c.currentTeam)

	if c.boardComplete() {
		c.complete()
		return nil
	}

	c.answeredInColumn++
	colDone := c.columnComplete(c.selectedCol)
	c.clearQuestion()

	switch {
	case colDone && (c.continuedStolen || (c.originalTeam != "" && c.currentTeam != c.originalTeam)):
		// Finished a column it stole into: keeps the turn and picks a
		// fresh column.
		c.resetColumn(c.currentTeam)
		c.phase = model.Connect4ColumnSelect
	case colDone:
		// Original owner ran its column to the end: turn passes.
		c.switchTurn()
	case c.answeredInColumn >= connect4Size:
		// Answered a full column's worth but earlier cells were stolen
		// away: turn passes anyway.
		c.switchTurn()
	default:
		c.phase = model.Connect4CellSelect
	}
	c.publish()
	return nil
}

// Incorrect opens the steal window for the other team. Skipping the
// question is treated the same way.
func (c *Connect4) Incorrect() error {
	if c.phase != model.Connect4QuestionActive {
		return ErrBadPhase
	}
	c.stealTeam = c.deps.otherTeam(c.currentTeam)
	c.phase = model.Connect4StealOpen
	c.publish()
	return nil
}

// StealCorrect claims the cell for the stealing team, which keeps the turn
// and chooses its next column.
func (c *Connect4) StealCorrect() error {
	if c.phase != model.Connect4StealOpen {
		return ErrBadPhase
	}
	stealer := c.stealTeam
	c.claim(stealer)
	c.currentTeam = stealer
	c.stealTeam = ""

	if c.boardComplete() {
		c.complete()
		return nil
	}

	colDone := c.columnComplete(c.selectedCol)
	stolenCol := c.selectedCol
	c.clearQuestion()

	if colDone {
		// The steal finished the column: straight to a fresh column
		// choice, no continue option left.
		c.resetColumn(stealer)
		c.phase = model.Connect4ColumnSelect
	} else {
		c.stolenColumn = stolenCol
		c.selectedColumn = -1
		c.phase = model.Connect4ColumnChoice
	}
	c.publish()
	return nil
}

// ContinueColumn keeps the stealing team working the column it stole into.
func (c *Connect4) ContinueColumn() error {
	if c.phase != model.Connect4ColumnChoice {
		return ErrBadPhase
	}
	c.selectedColumn = c.stolenColumn
	c.continuedStolen = true
	c.phase = model.Connect4CellSelect
	c.publish()
	return nil
}

// NewColumn lets the stealing team abandon the stolen column and pick a
// different one.
func (c *Connect4) NewColumn() error {
	if c.phase != model.Connect4ColumnChoice {
		return ErrBadPhase
	}
	c.selectedColumn = -1
	c.phase = model.Connect4ColumnSelect
	c.publish()
	return nil
}

// StealIncorrect marks the cell unclaimed and returns the turn to the
// column's original owner, who picks a new column.
func (c *Connect4) StealIncorrect() error {
	if c.phase != model.Connect4StealOpen {
		return ErrBadPhase
	}
	c.markUnclaimed()
	if c.boardComplete() {
		c.complete()
		return nil
	}
	owner := c.originalTeam
	if owner == "" {
		owner = c.deps.otherTeam(c.currentTeam)
	}
	c.clearQuestion()
	c.resetColumn("")
	c.currentTeam = owner
	c.stealTeam = ""
	c.phase = model.Connect4ColumnSelect
	c.publish()
	return nil
}

// StealPass resolves a steal window nobody took: the cell is marked
// unclaimed and the turn alternates.
func (c *Connect4) StealPass() error {
	if c.phase != model.Connect4StealOpen {
		return ErrBadPhase
	}
	c.markUnclaimed()
	if c.boardComplete() {
		c.complete()
		return nil
	}
	c.clearQuestion()
	c.stealTeam = ""
	c.switchTurn()
	c.publish()
	return nil
}

// CurrentTeam returns the team whose turn it is.
func (c *Connect4) CurrentTeam() string { return c.currentTeam }

// BonusPoints returns the bonus total awarded to one team so far.
func (c *Connect4) BonusPoints(teamID string) int { return c.bonus[teamID] }

func (c *Connect4) claim(teamID string) {
	points := connect4PointValues[c.selectedRow]
	c.board[c.selectedRow][c.selectedCol] = boardCell{answered: true, team: teamID, points: points}
	c.deps.Scores.AddScore(teamID, points)
	c.claimed[teamID]++
	c.logger.Info("cell claimed", "team", teamID, "row", c.selectedRow, "col", c.selectedCol, "points", points)
	c.checkBonus(teamID, c.selectedRow, c.selectedCol)
}

func (c *Connect4) markUnclaimed() {
	c.board[c.selectedRow][c.selectedCol] = boardCell{answered: true}
}

// checkBonus awards +150 for a completed row and +150 for a completed
// column in the claimer's color; both can land on one claim.
func (c *Connect4) checkBonus(teamID string, row, col int) {
	rowDone := true
	for i := 0; i < connect4Size; i++ {
		if c.board[row][i].team != teamID {
			rowDone = false
			break
		}
	}
	colDone := true
	for i := 0; i < connect4Size; i++ {
		if c.board[i][col].team != teamID {
			colDone = false
			break
		}
	}
	earned := 0
	if rowDone {
		earned += connect4BonusScore
	}
	if colDone {
		earned += connect4BonusScore
	}
	if earned > 0 {
		c.deps.Scores.AddScore(teamID, earned)
		c.bonus[teamID] += earned
		c.logger.Info("bonus awarded", "team", teamID, "points", earned)
	}
}

func (c *Connect4) columnComplete(col int) bool {
	for row := 0; row < connect4Size; row++ {
		if !c.board[row][col].answered {
			return false
		}
	}
	return true
}

func (c *Connect4) boardComplete() bool {
	for row := 0; row < connect4Size; row++ {
		for col := 0; col < connect4Size; col++ {
			if !c.board[row][col].answered {
				return false
			}
		}
	}
	return true
}

func (c *Connect4) switchTurn() {
	c.currentTeam = c.deps.otherTeam(c.currentTeam)
	c.resetColumn("")
	c.phase = model.Connect4ColumnSelect
}

func (c *Connect4) resetColumn(newOwner string) {
	c.selectedColumn = -1
	c.answeredInColumn = 0
	c.originalTeam = newOwner
	c.continuedStolen = false
	c.stolenColumn = -1
}

func (c *Connect4) clearQuestion() {
	c.question = nil
}

func (c *Connect4) complete() {
	c.clearQuestion()
	c.phase = model.Connect4Complete
	c.logger.Info("board complete", "claimed", c.claimed, "bonus", c.bonus)
	c.publish()
}

func (c *Connect4) publish() {
	d := &model.Connect4Data{
		Phase:           c.phase,
		Board:           c.boardDoc(),
		ColumnThemes:    c.themes[:],
		TeamBonusPoints: cloneCounts(c.bonus),
		ClaimedCells:    cloneCounts(c.claimed),
	}
	if c.question != nil {
		d.Question = strptr(c.question.Text)
		d.SelectedSquare = &model.CellRef{Row: c.selectedRow, Col: c.selectedCol}
		d.PointValue = intptr(connect4PointValues[c.selectedRow])
	}
	if c.selectedColumn >= 0 {
		d.SelectedColumn = intptr(c.selectedColumn)
	}
	if c.coinWinner != "" {
		d.CoinFlipWinnerTeam = strptr(c.coinWinner)
	}
	if c.stealTeam != "" {
		d.StealTeamID = strptr(c.stealTeam)
	}
	var turn *string
	if c.currentTeam != "" {
		turn = strptr(c.currentTeam)
	}
	var question *string
	if c.question != nil {
		question = strptr(c.question.Text)
	}
	var category *string
	if c.question != nil {
		category = strptr(c.themes[c.selectedCol])
	}
	var points *int
	if c.question != nil {
		points = intptr(connect4PointValues[c.selectedRow])
	}
	c.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentQuestion:   model.Some(question),
		CurrentCategory:   model.Some(category),
		CurrentPoints:     model.Some(points),
		CurrentTurnTeamID: model.Some(turn),
		RoundData:         &model.RoundDataPatch{Connect4: model.Some(d)},
	})
}

func (c *Connect4) boardDoc() [][]model.BoardCell {
	out := make([][]model.BoardCell, connect4Size)
	for row := 0; row < connect4Size; row++ {
		out[row] = make([]model.BoardCell, connect4Size)
		for col := 0; col < connect4Size; col++ {
			cell := c.board[row][col]
			points := cell.points
			if !cell.answered {
				points = connect4PointValues[row]
			}
			out[row][col] = model.BoardCell{
				Answered: cell.answered,
				TeamID:   cell.team,
				Points:   points,
			}
		}
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
