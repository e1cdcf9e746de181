package store

import (
	"context"
	"sync"
	"time"

	"github.com/gameshowhq/gameshow/internal/model"
)

// Memory is the in-process store. Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	games     map[string]*model.Game
	codes     map[string]string // normalized code -> game ID
	teams     map[string]*model.Team
	players   map[string]*model.Player
	states    map[string]*model.GameState
	buzzes    map[string][]model.BuzzRecord
	questions map[string]*model.QuestionSet
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		games:     make(map[string]*model.Game),
		codes:     make(map[string]string),
		teams:     make(map[string]*model.Team),
		players:   make(map[string]*model.Player),
		states:    make(map[string]*model.GameState),
		buzzes:    make(map[string][]model.BuzzRecord),
		questions: make(map[string]*model.QuestionSet),
	}
}

func (m *Memory) CreateGame(_ context.Context, g *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[g.Code]; taken {
		return ErrCodeTaken
	}
	cp := *g
	m.games[g.ID] = &cp
	m.codes[g.Code] = g.ID
	m.states[g.ID] = &model.GameState{GameID: g.ID, UpdatedAt: g.CreatedAt}
	return nil
}

func (m *Memory) GetGame(_ context.Context, id string) (*model.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *Memory) GetGameByCode(_ context.Context, code string) (*model.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.games[id]
	return &cp, nil
}

func (m *Memory) UpdateGame(_ context.Context, g *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; !ok {
		return ErrNotFound
	}
	cp := *g
	cp.UpdatedAt = time.Now()
	m.games[g.ID] = &cp
	return nil
}

func (m *Memory) CreateTeam(_ context.Context, t *model.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.Players = append([]string(nil), t.Players...)
	m.teams[t.ID] = &cp
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id string) (*model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	cp.Players = append([]string(nil), t.Players...)
	return &cp, nil
}

func (m *Memory) ListTeams(_ context.Context, gameID string) ([]model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Team
	for _, t := range m.teams {
		if t.GameID != gameID {
			continue
		}
		cp := *t
		cp.Players = append([]string(nil), t.Players...)
		out = append(out, cp)
	}
	sortTeams(out)
	return out, nil
}

func (m *Memory) AddTeamScore(_ context.Context, teamID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return 0, ErrNotFound
	}
	t.Score += delta
	return t.Score, nil
}

func (m *Memory) CreatePlayer(_ context.Context, p *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.players[p.ID] = &cp
	if t, ok := m.teams[p.TeamID]; ok {
		t.Players = append(t.Players, p.Name)
	}
	return nil
}

func (m *Memory) GetPlayer(_ context.Context, id string) (*model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ListPlayers(_ context.Context, gameID string) ([]model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Player
	for _, p := range m.players {
		if p.GameID == gameID {
			out = append(out, *p)
		}
	}
	sortPlayers(out)
	return out, nil
}

func (m *Memory) SetPlayerConnected(_ context.Context, playerID string, connected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return ErrNotFound
	}
	p.Connected = connected
	return nil
}

func (m *Memory) GetState(_ context.Context, gameID string) (*model.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) PatchState(_ context.Context, gameID string, patch model.StatePatch) (*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Apply(patch)
	s.UpdatedAt = time.Now()
	return s.Clone(), nil
}

func (m *Memory) RecordBuzz(_ context.Context, b *model.BuzzRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buzzes[b.GameID] = append(m.buzzes[b.GameID], *b)
	return nil
}

func (m *Memory) ListBuzzes(_ context.Context, gameID string) ([]model.BuzzRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.BuzzRecord(nil), m.buzzes[gameID]...), nil
}

func (m *Memory) SaveQuestionSet(_ context.Context, gameID string, set *model.QuestionSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *set
	m.questions[gameID] = &cp
	return nil
}

func (m *Memory) GetQuestionSet(_ context.Context, gameID string) (*model.QuestionSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.questions[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *set
	return &cp, nil
}
