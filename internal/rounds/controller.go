// Package rounds implements the round state machines and the orchestrator
// that sequences them. Controllers hold authoritative in-memory state,
// award points only through the score keeper, and replicate their view by
// writing merge patches into the shared state document.
package rounds

import (
	"errors"

	"github.com/gameshowhq/gameshow/internal/model"
)

var (
	// ErrBadPhase is returned when a host action arrives in a phase that
	// does not accept it.
	ErrBadPhase = errors.New("action not valid in current phase")
	// ErrUnknownTeam is returned when an action names a team not in the
	// game.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrNoRound is returned when an action targets a round that is not
	// active.
	ErrNoRound = errors.New("no active round")
	// ErrTooLate marks a buzz that lost the race. An expected outcome, not
	// a failure.
	ErrTooLate = errors.New("buzz too late")
	// ErrStealClosed marks a steal attempt outside the steal window or
	// inside its lockout.
	ErrStealClosed = errors.New("steal window closed")
)

// DocSink receives state-document patches. Writes are fire-and-forget:
// implementations swallow replication failures because the next write
// supersedes stale state and score truth lives in the ledger.
type DocSink interface {
	ApplyPatch(patch model.StatePatch)
}

// ScoreKeeper applies score deltas. Controllers never write totals.
type ScoreKeeper interface {
	AddScore(teamID string, delta int)
}

// Controller is one round's state machine. Begin publishes the initial
// round state; Tick is driven once per second by the orchestrator while
// the round is active; Finished reports whether the round reached its
// terminal phase.
type Controller interface {
	Type() model.RoundType
	Begin()
	Tick()
	Finished() bool
}

// Deps is what every controller needs: the document sink, the scorer, and
// the rosters frozen at round start.
type Deps struct {
	Doc     DocSink
	Scores  ScoreKeeper
	Teams   []model.Team
	Players []model.Player
}

func (d Deps) teamIndex(teamID string) int {
	for i, t := range d.Teams {
		if t.ID == teamID {
			return i
		}
	}
	return -1
}

// otherTeam returns the opposing team's ID in a two-team game, or the next
// team in rotation otherwise.
func (d Deps) otherTeam(teamID string) string {
	i := d.teamIndex(teamID)
	if i < 0 || len(d.Teams) == 0 {
		return ""
	}
	return d.Teams[(i+1)%len(d.Teams)].ID
}

// connectedPlayers returns the connected members of one team, in roster
// order.
func (d Deps) connectedPlayers(teamID string) []model.Player {
	var out []model.Player
	for _, p := range d.Players {
		if p.TeamID == teamID && p.Connected {
			out = append(out, p)
		}
	}
	return out
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }
func boolptr(b bool) *bool    { return &b }
