package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gameshowhq/gameshow/internal/rounds"
)

var (
	// ErrNoSession is returned for round actions against a game without a
	// live host session.
	ErrNoSession = errors.New("game has no host session")
	// ErrUnknownAction is returned for an unrecognized action name.
	ErrUnknownAction = errors.New("unknown action")
)

// RoundActionParams carries one host action against the live round. Action
// names are namespaced by round, e.g. "trivia.correct" or
// "connect4.select_column". Unused fields are ignored by actions that do
// not need them.
type RoundActionParams struct {
	Action    string `json:"action"`
	TeamID    string `json:"team_id,omitempty"`
	PlayerID  string `json:"player_id,omitempty"`
	Criterion string `json:"criterion,omitempty"`
	Column    int    `json:"column,omitempty"`
	Row       int    `json:"row,omitempty"`
	GoFirst   bool   `json:"go_first,omitempty"`
	Guessed   bool   `json:"guessed,omitempty"`
}

// AckRules dismisses the current round's instructions screen.
func (s *GameService) AckRules(gameID string) error {
	session, ok := s.Session(gameID)
	if !ok {
		return ErrNoSession
	}
	return session.orch.AckRules()
}

// SkipRound force-advances past the current round.
func (s *GameService) SkipRound(gameID string) error {
	session, ok := s.Session(gameID)
	if !ok {
		return ErrNoSession
	}
	return session.orch.Skip()
}

// RoundAction dispatches a host action to the live round controller.
func (s *GameService) RoundAction(gameID string, params RoundActionParams) error {
	session, ok := s.Session(gameID)
	if !ok {
		return ErrNoSession
	}
	return session.apply(params)
}

// SubmitGuess records a player's draft in a live guess-the-number round.
func (s *GameService) SubmitGuess(ctx context.Context, gameID, playerID string, guess int) error {
	session, ok := s.Session(gameID)
	if !ok {
		return ErrNoSession
	}
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	return session.orch.WithGuessNumber(func(g *rounds.GuessNumber) error {
		return g.SubmitGuess(*player, guess)
	})
}

// apply maps an action name onto the matching controller method. Wrong-round
// actions surface as ErrNoRound from the orchestrator's typed accessors.
func (h *HostSession) apply(p RoundActionParams) error {
	o := h.orch
	switch p.Action {
	case "trivia.correct":
		return o.WithTrivia(func(t *rounds.TriviaBuzz) error { return t.MarkCorrect() })
	case "trivia.incorrect":
		return o.WithTrivia(func(t *rounds.TriviaBuzz) error { return t.MarkIncorrect() })
	case "trivia.skip":
		return o.WithTrivia(func(t *rounds.TriviaBuzz) error { return t.Skip() })
	case "trivia.next":
		return o.WithTrivia(func(t *rounds.TriviaBuzz) error { return t.Next() })

	case "lightning.start_turn":
		return o.WithLightning(func(l *rounds.Lightning) error { return l.StartTurn() })
	case "lightning.correct":
		return o.WithLightning(func(l *rounds.Lightning) error { return l.Correct() })
	case "lightning.incorrect":
		return o.WithLightning(func(l *rounds.Lightning) error { return l.Incorrect() })
	case "lightning.pass":
		return o.WithLightning(func(l *rounds.Lightning) error { return l.Pass() })

	case "quick_build.start":
		return o.WithQuickBuild(func(q *rounds.QuickBuild) error { return q.StartBuild(p.Criterion) })
	case "quick_build.end":
		return o.WithQuickBuild(func(q *rounds.QuickBuild) error { return q.EndBuild() })
	case "quick_build.winner":
		return o.WithQuickBuild(func(q *rounds.QuickBuild) error { return q.DeclareWinner(p.TeamID) })
	case "quick_build.tie":
		return o.WithQuickBuild(func(q *rounds.QuickBuild) error { return q.DeclareTie() })

	case "connect4.coin_flip":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.CoinFlip() })
	case "connect4.choose_order":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.ChooseOrder(p.GoFirst) })
	case "connect4.select_column":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.SelectColumn(p.Column) })
	case "connect4.select_cell":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.SelectCell(p.Row, p.Column) })
	case "connect4.correct":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.Correct() })
	case "connect4.incorrect":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.Incorrect() })
	case "connect4.steal_correct":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.StealCorrect() })
	case "connect4.steal_incorrect":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.StealIncorrect() })
	case "connect4.steal_pass":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.StealPass() })
	case "connect4.continue_column":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.ContinueColumn() })
	case "connect4.new_column":
		return o.WithConnect4(func(c *rounds.Connect4) error { return c.NewColumn() })

	case "guess_number.reveal":
		return o.WithGuessNumber(func(g *rounds.GuessNumber) error { return g.Reveal() })
	case "guess_number.award":
		return o.WithGuessNumber(func(g *rounds.GuessNumber) error { return g.Award(p.TeamID) })
	case "guess_number.next":
		return o.WithGuessNumber(func(g *rounds.GuessNumber) error { return g.Next() })

	case "blind_draw.select_drawer":
		return o.WithBlindDraw(func(b *rounds.BlindDraw) error { return b.SelectDrawer(p.PlayerID) })
	case "blind_draw.reroll":
		return o.WithBlindDraw(func(b *rounds.BlindDraw) error { return b.RerollWord() })
	case "blind_draw.start_timer":
		return o.WithBlindDraw(func(b *rounds.BlindDraw) error { return b.StartTimer() })
	case "blind_draw.judge":
		return o.WithBlindDraw(func(b *rounds.BlindDraw) error { return b.Judge(p.Guessed) })
	case "blind_draw.next_turn":
		return o.WithBlindDraw(func(b *rounds.BlindDraw) error { return b.NextTurn() })

	case "charades.select_actor":
		return o.WithCharades(func(c *rounds.Charades) error { return c.SelectActor(p.PlayerID) })
	case "charades.reroll":
		return o.WithCharades(func(c *rounds.Charades) error { return c.RerollWord() })
	case "charades.start_timer":
		return o.WithCharades(func(c *rounds.Charades) error { return c.StartTimer() })
	case "charades.judge":
		return o.WithCharades(func(c *rounds.Charades) error { return c.Judge(p.Guessed) })
	case "charades.next_turn":
		return o.WithCharades(func(c *rounds.Charades) error { return c.NextTurn() })

	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, p.Action)
	}
}
