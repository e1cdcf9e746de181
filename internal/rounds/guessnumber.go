package rounds

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	guessWinPoints      = 200
	guessDefaultSeconds = 30
)

// GuessNumber runs the numeric-estimation round: players draft guesses
// against a countdown, and at reveal the team with the sole closest guess
// scores.
type GuessNumber struct {
	deps   Deps
	logger *log.Logger

	questions []model.GuessQuestion
	total     int
	seconds   int

	idx       int
	phase     model.GuessPhase
	drafts    map[string]model.GuessEntry
	remaining int
	results   []model.TeamGuessResult
	winner    string
	tie       bool
}

// NewGuessNumber creates the controller. Zero counts and seconds take the
// defaults.
func NewGuessNumber(deps Deps, logger *log.Logger, questions []model.GuessQuestion, totalQuestions, seconds int) *GuessNumber {
	if totalQuestions <= 0 {
		totalQuestions = 10
	}
	if totalQuestions > len(questions) {
		totalQuestions = len(questions)
	}
	if seconds <= 0 {
		seconds = guessDefaultSeconds
	}
	return &GuessNumber{
		deps:      deps,
		logger:    logger.WithPrefix("guess"),
		questions: questions,
		total:     totalQuestions,
		seconds:   seconds,
		phase:     model.GuessActive,
		drafts:    make(map[string]model.GuessEntry),
		remaining: seconds,
	}
}

func (g *GuessNumber) Type() model.RoundType { return model.RoundGuessNumber }

func (g *GuessNumber) Begin() {
	// Without material the countdown would run down to a reveal that
	// indexes an empty question list. Complete immediately instead.
	if g.total == 0 {
		g.logger.Warn("no questions available, completing round")
		g.phase = model.GuessComplete
		g.remaining = 0
	}
	g.publish()
}

func (g *GuessNumber) Finished() bool { return g.phase == model.GuessComplete }

// Tick counts the question down; hitting zero finalizes drafts and
// reveals.
func (g *GuessNumber) Tick() {
	if g.phase != model.GuessActive {
		return
	}
	g.remaining--
	if g.remaining <= 0 {
		g.remaining = 0
		g.reveal()
		return
	}
	g.publish()
}

// SubmitGuess records or updates a player's draft guess. Accepted any time
// before reveal.
func (g *GuessNumber) SubmitGuess(player model.Player, guess int) error {
	if g.phase != model.GuessActive {
		return ErrBadPhase
	}
	g.drafts[player.ID] = model.GuessEntry{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		TeamID:     player.TeamID,
		Guess:      guess,
	}
	g.publish()
	return nil
}

// Reveal lets the host cut the countdown short.
func (g *GuessNumber) Reveal() error {
	if g.phase != model.GuessActive {
		return ErrBadPhase
	}
	g.remaining = 0
	g.reveal()
	return nil
}

// reveal finalizes drafts, ranks teams by their best guess, and awards the
// sole closest team. An exact tie on minimum difference awards nobody.
func (g *GuessNumber) reveal() {
	answer := g.questions[g.idx].Answer
	byTeam := make(map[string]*model.TeamGuessResult)
	for _, entry := range g.drafts {
		diff := int(math.Abs(float64(answer - entry.Guess)))
		r, ok := byTeam[entry.TeamID]
		if !ok || diff < r.Difference {
			byTeam[entry.TeamID] = &model.TeamGuessResult{
				TeamID:        entry.TeamID,
				ClosestGuess:  entry.Guess,
				Difference:    diff,
				PlayerName:    entry.PlayerName,
				WinnerPlayers: []model.GuessEntry{entry},
			}
		} else if diff == r.Difference {
			// Teammates tied for closest share display credit.
			r.WinnerPlayers = append(r.WinnerPlayers, entry)
		}
	}

	g.results = g.results[:0]
	for _, r := range byTeam {
		g.results = append(g.results, *r)
	}
	sort.Slice(g.results, func(i, j int) bool {
		if g.results[i].Difference != g.results[j].Difference {
			return g.results[i].Difference < g.results[j].Difference
		}
		return g.results[i].TeamID < g.results[j].TeamID
	})

	g.winner = ""
	g.tie = false
	if len(g.results) == 1 {
		g.winner = g.results[0].TeamID
	} else if len(g.results) > 1 {
		if g.results[0].Difference == g.results[1].Difference {
			g.tie = true
		} else {
			g.winner = g.results[0].TeamID
		}
	}
	if g.winner != "" {
		g.deps.Scores.AddScore(g.winner, guessWinPoints)
	}
	g.phase = model.GuessRevealed
	g.logger.Info("revealed", "question", g.idx+1, "winner", g.winner, "tie", g.tie)
	g.publish()
}

// Award lets the host hand the points to a team when the automatic result
// gave no winner.
func (g *GuessNumber) Award(teamID string) error {
	if g.phase != model.GuessRevealed || g.winner != "" {
		return ErrBadPhase
	}
	if g.deps.teamIndex(teamID) < 0 {
		return ErrUnknownTeam
	}
	g.deps.Scores.AddScore(teamID, guessWinPoints)
	g.winner = teamID
	g.tie = false
	g.publish()
	return nil
}

// Next advances to the next question or completes the round.
func (g *GuessNumber) Next() error {
	if g.phase != model.GuessRevealed {
		return ErrBadPhase
	}
	g.idx++
	g.drafts = make(map[string]model.GuessEntry)
	g.results = nil
	g.winner = ""
	g.tie = false
	if g.idx >= g.total {
		g.phase = model.GuessComplete
		g.publish()
		return nil
	}
	g.remaining = g.seconds
	g.phase = model.GuessActive
	g.publish()
	return nil
}

func (g *GuessNumber) publish() {
	d := &model.GuessNumberData{
		Phase:          g.phase,
		QuestionIndex:  g.idx,
		TotalQuestions: g.total,
		QuestionID:     g.idx,
		TeamResults:    append([]model.TeamGuessResult(nil), g.results...),
		Tie:            g.tie,
		TimeRemaining:  g.remaining,
		TotalTime:      g.seconds,
	}
	if g.idx < g.total {
		d.Prompt = strptr(g.questions[g.idx].Prompt)
	}
	switch g.phase {
	case model.GuessActive:
		d.PlayerDrafts = cloneEntries(g.drafts)
	case model.GuessRevealed:
		d.PlayerGuesses = cloneEntries(g.drafts)
		d.CorrectAnswer = intptr(g.questions[g.idx].Answer)
	}
	if g.winner != "" {
		d.WinnerTeamID = strptr(g.winner)
	}
	g.deps.Doc.ApplyPatch(model.StatePatch{
		TimeRemaining: model.Some(intptr(g.remaining)),
		RoundData:     &model.RoundDataPatch{GuessNumber: model.Some(d)},
	})
}

func cloneEntries(m map[string]model.GuessEntry) map[string]model.GuessEntry {
	out := make(map[string]model.GuessEntry, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
