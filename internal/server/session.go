package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/rounds"
	"github.com/gameshowhq/gameshow/internal/store"
)

// HostSession is the in-process host: the single writer of game truth.
// It owns the round orchestrator for one game and translates its output
// into store patches and hub broadcasts. The REST layer never mutates
// round state directly while a session is live.
type HostSession struct {
	gameID string
	svc    *GameService
	orch   *rounds.Orchestrator
	logger *log.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// StartGame spins up a host session for a waiting game: loads the setup
// from the state document, provisions questions if none were generated,
// flips the game in progress, and starts the orchestrator tick loop.
func (s *GameService) StartGame(ctx context.Context, gameID string, monitor *Monitor) (*HostSession, error) {
	if _, exists := s.Session(gameID); exists {
		return nil, fmt.Errorf("game %s already has a host session", gameID)
	}
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status == model.StatusCompleted {
		return nil, fmt.Errorf("game %s is already completed", gameID)
	}
	state, err := s.store.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if state.RoundData == nil || state.RoundData.GameSetup == nil {
		return nil, fmt.Errorf("game %s has no setup", gameID)
	}
	setup := state.RoundData.GameSetup

	teams, err := s.store.ListTeams(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	questions, err := s.store.GetQuestionSet(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		questions, err = s.GenerateQuestions(ctx, gameID, content.Request{
			Rounds:     setup.Rounds,
			Difficulty: setup.Difficulty,
			Settings:   setup.RoundSettings,
		})
	}
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &HostSession{
		gameID: gameID,
		svc:    s,
		logger: s.logger.WithPrefix("session").With("game", gameID),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	session.orch = rounds.NewOrchestrator(rounds.Config{
		GameID:    gameID,
		Doc:       &sessionDoc{svc: s, gameID: gameID, logger: session.logger},
		Ledger:    newStoreLedger(s.store, gameID, teams),
		Teams:     teams,
		Players:   players,
		Rounds:    setup.Rounds,
		Settings:  setup.RoundSettings,
		Questions: questions,
		Logger:    session.logger,
		OnAdvance: func(index int, round model.RoundType) {
			session.recordRound(index, round)
		},
		OnComplete: func(summary rounds.Summary) {
			session.finish(summary, monitor, teams)
		},
	})

	status := model.StatusInProgress
	if _, err := s.UpdateGame(ctx, gameID, GameUpdate{Status: &status}); err != nil {
		cancel()
		return nil, err
	}

	s.registerSession(gameID, session)
	session.orch.Start()
	go func() {
		defer close(session.done)
		if err := session.orch.Run(sessionCtx); err != nil && !errors.Is(err, context.Canceled) {
			session.logger.Error("orchestrator stopped", "error", err)
		}
	}()
	session.logger.Info("host session started", "rounds", len(setup.Rounds))
	return session, nil
}

// Orchestrator exposes the round sequencer for host input.
func (h *HostSession) Orchestrator() *rounds.Orchestrator { return h.orch }

// GameID returns the driven game's id.
func (h *HostSession) GameID() string { return h.gameID }

// Buzz runs a buzz attempt through the live trivia controller. Rejections
// keep the controller's typed error so the transport can map them.
func (h *HostSession) Buzz(params BuzzParams) error {
	err := h.orch.WithTrivia(func(tb *rounds.TriviaBuzz) error {
		_, err := tb.Buzz(params.TeamID, params.PlayerID, params.PlayerName)
		return err
	})
	if errors.Is(err, rounds.ErrNoRound) {
		return ErrCannotBuzz
	}
	return err
}

// recordRound mirrors the orchestrator's position onto the game record so
// clients polling the REST surface see the current round without a
// websocket.
func (h *HostSession) recordRound(index int, round model.RoundType) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.svc.UpdateGame(ctx, h.gameID, GameUpdate{CurrentRound: &index, CurrentRoundType: &round}); err != nil {
		h.logger.Warn("failed to record round position", "index", index, "error", err)
	}
}

// Stop cancels the tick loop and unregisters the session.
func (h *HostSession) Stop() {
	h.cancel()
	<-h.done
	h.svc.dropSession(h.gameID)
}

// finish runs once when the last round completes: the game flips to
// completed, the session unregisters itself, and the summary renders on
// the operator console if one is attached.
func (h *HostSession) finish(summary rounds.Summary, monitor *Monitor, teams []model.Team) {
	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	status := model.StatusCompleted
	if _, err := h.svc.UpdateGame(ctx, h.gameID, GameUpdate{Status: &status}); err != nil {
		h.logger.Warn("failed to mark game completed", "error", err)
	}
	if monitor != nil {
		monitor.RenderSummary(teams, summary)
	}
	go h.svc.dropSession(h.gameID)
	h.logger.Info("game finished", "winners", summary.Winners)
}

// sessionDoc adapts the store's merge-patch endpoint to the controllers'
// document sink. Patch failures are logged and dropped: the document is a
// replica of controller state, not the source of truth, and the next patch
// supersedes.
type sessionDoc struct {
	svc    *GameService
	gameID string
	logger *log.Logger
}

func (d *sessionDoc) ApplyPatch(patch model.StatePatch) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := d.svc.PatchState(ctx, d.gameID, patch); err != nil {
		d.logger.Debug("state patch dropped", "error", err)
	}
}

// storeLedger keeps authoritative totals in the store via atomic deltas and
// a local cache for the orchestrator's synchronous Scores reads.
type storeLedger struct {
	mu     sync.Mutex
	store  store.Store
	gameID string
	totals map[string]int
}

func newStoreLedger(st store.Store, gameID string, teams []model.Team) *storeLedger {
	totals := make(map[string]int, len(teams))
	for _, t := range teams {
		totals[t.ID] = t.Score
	}
	return &storeLedger{store: st, gameID: gameID, totals: totals}
}

func (l *storeLedger) AddScore(teamID string, delta int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	newScore, err := l.store.AddTeamScore(ctx, teamID, delta)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		// Keep the cache moving so breakdown math stays consistent even
		// when the store write fails.
		l.totals[teamID] += delta
		return
	}
	l.totals[teamID] = newScore
}

func (l *storeLedger) Scores() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.totals))
	for id, score := range l.totals {
		out[id] = score
	}
	return out
}
