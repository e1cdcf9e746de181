package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gameshowhq/gameshow/internal/model"
)

// Games expire a day after their last write so abandoned lobbies do not
// accumulate.
const redisTTL = 24 * time.Hour

// Redis stores game data in Redis so multiple server processes can share
// games. Team scores live in a dedicated counter key mutated with INCRBY,
// which keeps AddTeamScore atomic without transactions.
type Redis struct {
	rdb *redis.Client
}

// NewRedis creates a Redis store.
func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func gameKey(id string) string      { return "game:" + id }
func codeKey(code string) string    { return "gamecode:" + code }
func teamKey(id string) string      { return "team:" + id }
func scoreKey(id string) string     { return "team:" + id + ":score" }
func teamsKey(gameID string) string { return "game:" + gameID + ":teams" }
func playerKey(id string) string    { return "player:" + id }
func playersKey(gid string) string  { return "game:" + gid + ":players" }
func stateKey(gameID string) string { return "gamestate:" + gameID }
func buzzKey(gameID string) string  { return "game:" + gameID + ":buzzes" }
func qsetKey(gameID string) string  { return "game:" + gameID + ":questions" }

func (r *Redis) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.rdb.Set(ctx, key, data, redisTTL).Err()
}

func (r *Redis) getJSON(ctx context.Context, key string, v any) error {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (r *Redis) CreateGame(ctx context.Context, g *model.Game) error {
	ok, err := r.rdb.SetNX(ctx, codeKey(g.Code), g.ID, redisTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeTaken
	}
	if err := r.setJSON(ctx, gameKey(g.ID), g); err != nil {
		return err
	}
	return r.setJSON(ctx, stateKey(g.ID), &model.GameState{GameID: g.ID, UpdatedAt: g.CreatedAt})
}

func (r *Redis) GetGame(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	if err := r.getJSON(ctx, gameKey(id), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Redis) GetGameByCode(ctx context.Context, code string) (*model.Game, error) {
	id, err := r.rdb.Get(ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetGame(ctx, id)
}

func (r *Redis) UpdateGame(ctx context.Context, g *model.Game) error {
	if _, err := r.GetGame(ctx, g.ID); err != nil {
		return err
	}
	cp := *g
	cp.UpdatedAt = time.Now()
	return r.setJSON(ctx, gameKey(g.ID), &cp)
}

func (r *Redis) CreateTeam(ctx context.Context, t *model.Team) error {
	if err := r.setJSON(ctx, teamKey(t.ID), t); err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, scoreKey(t.ID), t.Score, redisTTL).Err(); err != nil {
		return err
	}
	return r.rdb.SAdd(ctx, teamsKey(t.GameID), t.ID).Err()
}

func (r *Redis) GetTeam(ctx context.Context, id string) (*model.Team, error) {
	var t model.Team
	if err := r.getJSON(ctx, teamKey(id), &t); err != nil {
		return nil, err
	}
	score, err := r.rdb.Get(ctx, scoreKey(id)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	t.Score = score
	return &t, nil
}

func (r *Redis) ListTeams(ctx context.Context, gameID string) ([]model.Team, error) {
	ids, err := r.rdb.SMembers(ctx, teamsKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Team, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetTeam(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	sortTeams(out)
	return out, nil
}

func (r *Redis) AddTeamScore(ctx context.Context, teamID string, delta int) (int, error) {
	exists, err := r.rdb.Exists(ctx, teamKey(teamID)).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, ErrNotFound
	}
	score, err := r.rdb.IncrBy(ctx, scoreKey(teamID), int64(delta)).Result()
	if err != nil {
		return 0, err
	}
	return int(score), nil
}

func (r *Redis) CreatePlayer(ctx context.Context, p *model.Player) error {
	if err := r.setJSON(ctx, playerKey(p.ID), p); err != nil {
		return err
	}
	if err := r.rdb.SAdd(ctx, playersKey(p.GameID), p.ID).Err(); err != nil {
		return err
	}
	t, err := r.GetTeam(ctx, p.TeamID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t.Players = append(t.Players, p.Name)
	return r.setJSON(ctx, teamKey(t.ID), t)
}

func (r *Redis) GetPlayer(ctx context.Context, id string) (*model.Player, error) {
	var p model.Player
	if err := r.getJSON(ctx, playerKey(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Redis) ListPlayers(ctx context.Context, gameID string) ([]model.Player, error) {
	ids, err := r.rdb.SMembers(ctx, playersKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetPlayer(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	sortPlayers(out)
	return out, nil
}

func (r *Redis) SetPlayerConnected(ctx context.Context, playerID string, connected bool) error {
	p, err := r.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	p.Connected = connected
	return r.setJSON(ctx, playerKey(playerID), p)
}

func (r *Redis) GetState(ctx context.Context, gameID string) (*model.GameState, error) {
	var s model.GameState
	if err := r.getJSON(ctx, stateKey(gameID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PatchState is read-modify-write without a transaction. The orchestrator
// is the sole writer per game, so concurrent patches to one state document
// do not occur in practice.
func (r *Redis) PatchState(ctx context.Context, gameID string, patch model.StatePatch) (*model.GameState, error) {
	s, err := r.GetState(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.Apply(patch)
	s.UpdatedAt = time.Now()
	if err := r.setJSON(ctx, stateKey(gameID), s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Redis) RecordBuzz(ctx context.Context, b *model.BuzzRecord) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode buzz record: %w", err)
	}
	if err := r.rdb.RPush(ctx, buzzKey(b.GameID), data).Err(); err != nil {
		return err
	}
	return r.rdb.Expire(ctx, buzzKey(b.GameID), redisTTL).Err()
}

func (r *Redis) ListBuzzes(ctx context.Context, gameID string) ([]model.BuzzRecord, error) {
	items, err := r.rdb.LRange(ctx, buzzKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.BuzzRecord, 0, len(items))
	for _, item := range items {
		var b model.BuzzRecord
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Redis) SaveQuestionSet(ctx context.Context, gameID string, set *model.QuestionSet) error {
	return r.setJSON(ctx, qsetKey(gameID), set)
}

func (r *Redis) GetQuestionSet(ctx context.Context, gameID string) (*model.QuestionSet, error) {
	var set model.QuestionSet
	if err := r.getJSON(ctx, qsetKey(gameID), &set); err != nil {
		return nil, err
	}
	return &set, nil
}
