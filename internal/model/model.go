// Package model defines the shared vocabulary of the platform: games, teams,
// players, questions, and the replicated game-state document with its
// merge-patch semantics.
package model

import "time"

// GameStatus is the lifecycle status of a game.
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
)

// Difficulty selects the question difficulty for content generation.
type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyMedium     Difficulty = "medium"
	DifficultyMediumHard Difficulty = "medium-hard"
	DifficultyHard       Difficulty = "hard"
)

// RoundType identifies one of the seven mini-games.
type RoundType string

const (
	RoundTriviaBuzz   RoundType = "trivia-buzz"
	RoundLightning    RoundType = "lightning"
	RoundQuickBuild   RoundType = "quick-build"
	RoundConnect4     RoundType = "connect-4"
	RoundGuessNumber  RoundType = "guess-number"
	RoundBlindDraw    RoundType = "blind-draw"
	RoundDumpCharades RoundType = "dump-charades"
)

// RoundTypes lists every round type in canonical order.
var RoundTypes = []RoundType{
	RoundTriviaBuzz,
	RoundLightning,
	RoundQuickBuild,
	RoundConnect4,
	RoundGuessNumber,
	RoundBlindDraw,
	RoundDumpCharades,
}

var roundNames = map[RoundType]string{
	RoundTriviaBuzz:   "Trivia Buzz",
	RoundLightning:    "Lightning Round",
	RoundQuickBuild:   "Quick Build",
	RoundConnect4:     "Connect 4",
	RoundGuessNumber:  "Guess the Number",
	RoundBlindDraw:    "Blind Draw",
	RoundDumpCharades: "Dump Charades",
}

// DisplayName returns the human-facing round name.
func (rt RoundType) DisplayName() string {
	if name, ok := roundNames[rt]; ok {
		return name
	}
	return string(rt)
}

// Valid reports whether rt names a known round type.
func (rt RoundType) Valid() bool {
	_, ok := roundNames[rt]
	return ok
}

// Game is one party-game session. ID and Code are immutable after creation.
type Game struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	Status           GameStatus `json:"status"`
	CurrentRound     int        `json:"current_round"`
	CurrentRoundType RoundType  `json:"current_round_type,omitempty"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Team is a scoring unit. Score moves only through the score ledger's
// add-delta operation and may go negative.
type Team struct {
	ID      string   `json:"id"`
	GameID  string   `json:"game_id"`
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Score   int      `json:"score"`
	Players []string `json:"players"`
}

// Player is a joined participant. Players are never deleted mid-game;
// leaving only flips Connected so scoring attribution survives.
type Player struct {
	ID        string `json:"id"`
	GameID    string `json:"game_id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// BuzzRecord is an append-only attribution record of who buzzed.
type BuzzRecord struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	TeamID       string    `json:"team_id"`
	PlayerID     string    `json:"player_id,omitempty"`
	PlayerName   string    `json:"player_name,omitempty"`
	QuestionText string    `json:"question_text,omitempty"`
	WasFirst     bool      `json:"was_first"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot is the full replication payload pushed to every client on each
// authoritative change.
type Snapshot struct {
	Game    *Game      `json:"game"`
	Teams   []Team     `json:"teams"`
	Players []Player   `json:"players"`
	State   *GameState `json:"game_state"`
}
