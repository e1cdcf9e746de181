package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gameshowhq/gameshow/internal/config"
	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/gamecode"
	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/store"
)

var (
	// ErrInvalidTeam is returned when a join names a team outside the game.
	ErrInvalidTeam = errors.New("invalid team")
	// ErrPinNotSet is returned for host auth against a game created
	// without a PIN.
	ErrPinNotSet = errors.New("host pin not set")
	// ErrBadPin is returned when the host PIN does not match.
	ErrBadPin = errors.New("invalid host pin")
	// ErrCannotBuzz is returned when the buzz gate is closed or another
	// team holds the lock.
	ErrCannotBuzz = errors.New("cannot buzz right now")
)

// GameService owns game lifecycle against the store and pushes a fresh
// snapshot to the hub after every authoritative change. By design it
// validates identities and codes, not game rules: rule authority lives
// with the driving host session.
type GameService struct {
	store   store.Store
	hub     *Hub
	content content.Provider
	codes   *gamecode.Generator
	game    config.GameSettings
	logger  *log.Logger

	mu       sync.Mutex
	sessions map[string]*HostSession
}

// NewGameService creates the service.
func NewGameService(st store.Store, hub *Hub, provider content.Provider, game config.GameSettings, logger *log.Logger) *GameService {
	return &GameService{
		store:    st,
		hub:      hub,
		content:  provider,
		codes:    gamecode.NewGenerator(nil),
		game:     game,
		logger:   logger.WithPrefix("service"),
		sessions: make(map[string]*HostSession),
	}
}

// TeamSpec describes one team at game creation.
type TeamSpec struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateGameParams is the create-game request.
type CreateGameParams struct {
	Teams      []TeamSpec        `json:"teams"`
	Difficulty model.Difficulty  `json:"difficulty"`
	Rounds     []model.RoundType `json:"rounds"`
	HostPin    string            `json:"host_pin,omitempty"`
}

// CreateGame creates a game with its teams and seeds the state document's
// game setup. The optional host PIN is stored as a salted hash, never in
// the clear.
func (s *GameService) CreateGame(ctx context.Context, params CreateGameParams) (*model.Game, []model.Team, error) {
	if len(params.Rounds) == 0 {
		return nil, nil, fmt.Errorf("at least one round is required")
	}
	for _, rt := range params.Rounds {
		if !rt.Valid() {
			return nil, nil, fmt.Errorf("unknown round type %q", rt)
		}
	}
	if len(params.Teams) < 2 || len(params.Teams) > s.game.MaxTeams {
		return nil, nil, fmt.Errorf("team count must be between 2 and %d", s.game.MaxTeams)
	}

	now := time.Now().UTC()
	game := &model.Game{
		ID:               uuid.NewString(),
		Status:           model.StatusWaiting,
		CurrentRound:     0,
		CurrentRoundType: params.Rounds[0],
		Difficulty:       params.Difficulty,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Codes collide rarely; a handful of retries is plenty.
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		game.Code = s.codes.Generate()
		err = s.store.CreateGame(ctx, game)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrCodeTaken) {
			return nil, nil, err
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("unable to allocate a unique game code: %w", err)
	}

	teams := make([]model.Team, 0, len(params.Teams))
	for _, spec := range params.Teams {
		team := model.Team{
			ID:     uuid.NewString(),
			GameID: game.ID,
			Name:   spec.Name,
			Color:  spec.Color,
		}
		if err := s.store.CreateTeam(ctx, &team); err != nil {
			return nil, nil, err
		}
		teams = append(teams, team)
	}

	setup := &model.GameSetup{
		Rounds:     params.Rounds,
		Difficulty: params.Difficulty,
	}
	if params.HostPin != "" {
		setup.HostPinHash = HashHostPin(game.ID, params.HostPin)
	}
	if _, err := s.store.PatchState(ctx, game.ID, model.StatePatch{
		RoundData: &model.RoundDataPatch{GameSetup: model.Some(setup)},
	}); err != nil {
		return nil, nil, err
	}

	s.logger.Info("game created", "game", game.ID, "code", gamecode.Format(game.Code), "teams", len(teams))
	s.Broadcast(ctx, game.ID)
	return game, teams, nil
}

// HashHostPin derives the stored PIN hash. Salting with the game id keeps
// equal PINs from producing equal hashes across games.
func HashHostPin(gameID, pin string) string {
	sum := sha256.Sum256([]byte(gameID + ":" + pin))
	return hex.EncodeToString(sum[:])
}

// JoinGame adds a player to a team, looked up by join code.
func (s *GameService) JoinGame(ctx context.Context, code, teamID, playerName string) (*model.Player, error) {
	game, err := s.store.GetGameByCode(ctx, gamecode.Normalize(code))
	if err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil || team.GameID != game.ID {
		return nil, ErrInvalidTeam
	}
	players, err := s.store.ListPlayers(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	onTeam := 0
	for _, p := range players {
		if p.TeamID == teamID {
			onTeam++
		}
	}
	if onTeam >= s.game.MaxPlayersPerTeam {
		return nil, fmt.Errorf("team %s is full", team.Name)
	}

	player := &model.Player{
		ID:        uuid.NewString(),
		GameID:    game.ID,
		TeamID:    teamID,
		Name:      playerName,
		Connected: true,
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}
	s.logger.Info("player joined", "game", game.ID, "team", team.Name, "player", playerName)
	s.Broadcast(ctx, game.ID)
	return player, nil
}

// HostAuth verifies the host PIN for a game looked up by code.
func (s *GameService) HostAuth(ctx context.Context, code, pin string) (*model.Game, error) {
	game, err := s.store.GetGameByCode(ctx, gamecode.Normalize(code))
	if err != nil {
		return nil, err
	}
	state, err := s.store.GetState(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	var storedHash string
	if state.RoundData != nil && state.RoundData.GameSetup != nil {
		storedHash = state.RoundData.GameSetup.HostPinHash
	}
	if storedHash == "" {
		return nil, ErrPinNotSet
	}
	if HashHostPin(game.ID, pin) != storedHash {
		return nil, ErrBadPin
	}
	return game, nil
}

// GetGame returns a game by id.
func (s *GameService) GetGame(ctx context.Context, id string) (*model.Game, error) {
	return s.store.GetGame(ctx, id)
}

// GetGameByCode returns a game by normalized join code.
func (s *GameService) GetGameByCode(ctx context.Context, code string) (*model.Game, error) {
	return s.store.GetGameByCode(ctx, gamecode.Normalize(code))
}

// GameUpdate holds partial game mutations; nil fields are untouched.
type GameUpdate struct {
	Status           *model.GameStatus `json:"status"`
	CurrentRound     *int              `json:"current_round"`
	CurrentRoundType *model.RoundType  `json:"current_round_type"`
	Difficulty       *model.Difficulty `json:"difficulty"`
}

// UpdateGame applies a partial update and broadcasts.
func (s *GameService) UpdateGame(ctx context.Context, id string, updates GameUpdate) (*model.Game, error) {
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if updates.Status != nil {
		game.Status = *updates.Status
	}
	if updates.CurrentRound != nil {
		game.CurrentRound = *updates.CurrentRound
	}
	if updates.CurrentRoundType != nil {
		game.CurrentRoundType = *updates.CurrentRoundType
	}
	if updates.Difficulty != nil {
		game.Difficulty = *updates.Difficulty
	}
	game.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateGame(ctx, game); err != nil {
		return nil, err
	}
	s.Broadcast(ctx, id)
	return game, nil
}

// Teams lists a game's teams.
func (s *GameService) Teams(ctx context.Context, gameID string) ([]model.Team, error) {
	return s.store.ListTeams(ctx, gameID)
}

// Players lists a game's players.
func (s *GameService) Players(ctx context.Context, gameID string) ([]model.Player, error) {
	return s.store.ListPlayers(ctx, gameID)
}

// GetState returns a game's state document.
func (s *GameService) GetState(ctx context.Context, gameID string) (*model.GameState, error) {
	return s.store.GetState(ctx, gameID)
}

// PatchState merge-applies a patch and broadcasts the result.
func (s *GameService) PatchState(ctx context.Context, gameID string, patch model.StatePatch) (*model.GameState, error) {
	state, err := s.store.PatchState(ctx, gameID, patch)
	if err != nil {
		return nil, err
	}
	s.Broadcast(ctx, gameID)
	return state, nil
}

// AddTeamScore applies a score delta and broadcasts.
func (s *GameService) AddTeamScore(ctx context.Context, teamID string, delta int) (*model.Team, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	newScore, err := s.store.AddTeamScore(ctx, teamID, delta)
	if err != nil {
		return nil, err
	}
	team.Score = newScore
	s.Broadcast(ctx, team.GameID)
	return team, nil
}

// BuzzParams identifies who buzzed and on what.
type BuzzParams struct {
	TeamID       string `json:"team_id"`
	PlayerID     string `json:"player_id,omitempty"`
	PlayerName   string `json:"player_name,omitempty"`
	QuestionText string `json:"question_text,omitempty"`
}

// Buzz arbitrates a buzz attempt. With a host session driving the game the
// trivia controller decides the race; otherwise the state document's gate
// does. A lost race returns ErrCannotBuzz, not an internal error.
func (s *GameService) Buzz(ctx context.Context, gameID string, params BuzzParams) error {
	if params.PlayerID != "" && params.PlayerName == "" {
		if p, err := s.store.GetPlayer(ctx, params.PlayerID); err == nil {
			params.PlayerName = p.Name
		}
	}

	if session, ok := s.Session(gameID); ok {
		if err := session.Buzz(params); err != nil {
			return err
		}
	} else if err := s.buzzAgainstDocument(ctx, gameID, params); err != nil {
		return err
	}

	record := &model.BuzzRecord{
		ID:           uuid.NewString(),
		GameID:       gameID,
		TeamID:       params.TeamID,
		PlayerID:     params.PlayerID,
		PlayerName:   params.PlayerName,
		QuestionText: params.QuestionText,
		WasFirst:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.RecordBuzz(ctx, record); err != nil {
		s.logger.Warn("failed to record buzz", "game", gameID, "error", err)
	}
	s.Broadcast(ctx, gameID)
	return nil
}

// buzzAgainstDocument takes the input lock through the state document when
// no in-process controller is driving the game.
func (s *GameService) buzzAgainstDocument(ctx context.Context, gameID string, params BuzzParams) error {
	state, err := s.store.GetState(ctx, gameID)
	if err != nil {
		return err
	}
	if !state.CanBuzz || state.BuzzedTeamID != nil {
		return ErrCannotBuzz
	}

	trivia := &model.TriviaData{}
	if state.RoundData != nil && state.RoundData.Trivia != nil {
		copied := *state.RoundData.Trivia
		trivia = &copied
	}
	trivia.BuzzedPlayerID = &params.PlayerID
	trivia.BuzzedPlayerName = &params.PlayerName

	_, err = s.store.PatchState(ctx, gameID, model.StatePatch{
		CanBuzz:      model.Some(false),
		BuzzedTeamID: model.Some(&params.TeamID),
		RoundData:    &model.RoundDataPatch{Trivia: model.Some(trivia)},
	})
	return err
}

// ResetBuzz clears the lock and reopens buzzing.
func (s *GameService) ResetBuzz(ctx context.Context, gameID string) (*model.GameState, error) {
	return s.PatchState(ctx, gameID, model.StatePatch{
		CanBuzz:      model.Some(true),
		BuzzedTeamID: model.Some[*string](nil),
	})
}

// SetBuzzing opens or closes the buzz gate. Opening also clears the lock.
func (s *GameService) SetBuzzing(ctx context.Context, gameID string, canBuzz bool) (*model.GameState, error) {
	patch := model.StatePatch{CanBuzz: model.Some(canBuzz)}
	if canBuzz {
		patch.BuzzedTeamID = model.Some[*string](nil)
	}
	return s.PatchState(ctx, gameID, patch)
}

// DisconnectPlayer marks a player disconnected. Players are never deleted.
func (s *GameService) DisconnectPlayer(ctx context.Context, playerID string) (*model.Player, error) {
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPlayerConnected(ctx, playerID, false); err != nil {
		return nil, err
	}
	player.Connected = false
	s.Broadcast(ctx, player.GameID)
	return player, nil
}

// ListBuzzes returns a game's buzz history.
func (s *GameService) ListBuzzes(ctx context.Context, gameID string) ([]model.BuzzRecord, error) {
	return s.store.ListBuzzes(ctx, gameID)
}

// GenerateQuestions provisions material from the content provider, saving
// it for the game when a game id is given.
func (s *GameService) GenerateQuestions(ctx context.Context, gameID string, req content.Request) (*model.QuestionSet, error) {
	set, err := s.content.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if gameID != "" {
		if err := s.store.SaveQuestionSet(ctx, gameID, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// RegenerateQuestion swaps one question or word.
func (s *GameService) RegenerateQuestion(ctx context.Context, req content.RegenerateRequest) (*content.Replacement, error) {
	return s.content.Regenerate(ctx, req)
}

// Snapshot assembles the full replication payload for one game.
func (s *GameService) Snapshot(ctx context.Context, gameID string) (model.Snapshot, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return model.Snapshot{}, err
	}
	teams, err := s.store.ListTeams(ctx, gameID)
	if err != nil {
		return model.Snapshot{}, err
	}
	players, err := s.store.ListPlayers(ctx, gameID)
	if err != nil {
		return model.Snapshot{}, err
	}
	state, err := s.store.GetState(ctx, gameID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Game: game, Teams: teams, Players: players, State: state}, nil
}

// Broadcast pushes the current snapshot to every subscriber of a game.
// Failures are logged and dropped; the next write supersedes.
func (s *GameService) Broadcast(ctx context.Context, gameID string) {
	snap, err := s.Snapshot(ctx, gameID)
	if err != nil {
		s.logger.Debug("snapshot assembly failed", "game", gameID, "error", err)
		return
	}
	s.hub.BroadcastSnapshot(gameID, snap)
}

// Session returns the host session driving a game, if one is registered.
func (s *GameService) Session(gameID string) (*HostSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[gameID]
	return session, ok
}

func (s *GameService) registerSession(gameID string, session *HostSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[gameID] = session
}

func (s *GameService) dropSession(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, gameID)
}
