// Package store persists games, teams, players, state documents, and buzz
// history. Two backends: an in-process memory store and a Redis store for
// multi-process deployments.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/gameshowhq/gameshow/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCodeTaken is returned when a game code collides with a live game.
	ErrCodeTaken = errors.New("game code already in use")
)

// Store is the persistence boundary. All team score mutation goes through
// AddTeamScore: an atomic delta, never a blind overwrite, so concurrent
// awards cannot lose points. Scores are not clamped and may go negative.
type Store interface {
	CreateGame(ctx context.Context, g *model.Game) error
	GetGame(ctx context.Context, id string) (*model.Game, error)
	// GetGameByCode looks up by normalized join code.
	GetGameByCode(ctx context.Context, code string) (*model.Game, error)
	UpdateGame(ctx context.Context, g *model.Game) error

	CreateTeam(ctx context.Context, t *model.Team) error
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context, gameID string) ([]model.Team, error)
	AddTeamScore(ctx context.Context, teamID string, delta int) (newScore int, err error)

	CreatePlayer(ctx context.Context, p *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	ListPlayers(ctx context.Context, gameID string) ([]model.Player, error)
	SetPlayerConnected(ctx context.Context, playerID string, connected bool) error

	GetState(ctx context.Context, gameID string) (*model.GameState, error)
	// PatchState merge-applies the patch and returns the resulting
	// document.
	PatchState(ctx context.Context, gameID string, patch model.StatePatch) (*model.GameState, error)

	RecordBuzz(ctx context.Context, b *model.BuzzRecord) error
	ListBuzzes(ctx context.Context, gameID string) ([]model.BuzzRecord, error)

	SaveQuestionSet(ctx context.Context, gameID string, set *model.QuestionSet) error
	GetQuestionSet(ctx context.Context, gameID string) (*model.QuestionSet, error)
}

// Listings sort by name so every client renders teams and rosters in the
// same order.

func sortTeams(teams []model.Team) {
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Name != teams[j].Name {
			return teams[i].Name < teams[j].Name
		}
		return teams[i].ID < teams[j].ID
	})
}

func sortPlayers(players []model.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})
}
