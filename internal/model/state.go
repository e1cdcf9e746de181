package model

import "time"

// GameState is the shared synchronization document: one mutable record per
// game, merge-patched by the active round controller and read by every
// client. Last write wins; controllers patch only their own keys.
type GameState struct {
	GameID            string     `json:"game_id"`
	CurrentQuestion   *string    `json:"current_question"`
	CurrentCategory   *string    `json:"current_category"`
	CurrentPoints     *int       `json:"current_points"`
	TimeRemaining     *int       `json:"time_remaining"`
	CanBuzz           bool       `json:"can_buzz"`
	BuzzedTeamID      *string    `json:"buzzed_team_id"`
	CurrentTurnTeamID *string    `json:"current_turn_team_id"`
	RoundData         *RoundData `json:"round_data"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RoundData is the round-data bag: one typed sub-document per round type
// under a fixed key, plus orchestrator flow fields. Only the active round's
// key holds live state; the orchestrator nulls all round keys on transition
// so presenters never render ghost state from a previous round.
type RoundData struct {
	ShowRules      *bool      `json:"show_rules,omitempty"`
	ShowTransition *bool      `json:"show_transition,omitempty"`
	NextRoundName  *string    `json:"next_round_name,omitempty"`
	RulesAckRound  *int       `json:"rules_ack_round,omitempty"`
	GameSetup      *GameSetup `json:"game_setup,omitempty"`

	Trivia       *TriviaData      `json:"trivia,omitempty"`
	Lightning    *LightningData   `json:"lightning,omitempty"`
	QuickBuild   *QuickBuildData  `json:"quick_build,omitempty"`
	Connect4     *Connect4Data    `json:"connect4,omitempty"`
	GuessNumber  *GuessNumberData `json:"guess_number,omitempty"`
	BlindDraw    *BlindDrawData   `json:"blind_draw,omitempty"`
	DumpCharades *CharadesData    `json:"dump_charades,omitempty"`
}

// GameSetup records the host's game configuration, written once at creation.
type GameSetup struct {
	Rounds        []RoundType   `json:"rounds"`
	RoundSettings RoundSettings `json:"round_settings"`
	Difficulty    Difficulty    `json:"difficulty"`
	HostPinHash   string        `json:"host_pin_hash,omitempty"`
}

// Phase names are scoped per round; each sub-document carries exactly one.

type TriviaPhase string

const (
	TriviaQuestionActive TriviaPhase = "question-active"
	TriviaBuzzed         TriviaPhase = "buzzed"
	TriviaStealOpen      TriviaPhase = "steal-open"
	TriviaStealBuzzed    TriviaPhase = "steal-buzzed"
	TriviaResolved       TriviaPhase = "resolved"
	TriviaRoundComplete  TriviaPhase = "round-complete"
)

// TriviaData is the trivia-buzz round sub-document.
type TriviaData struct {
	Phase            TriviaPhase `json:"phase"`
	QuestionNumber   int         `json:"question_number"`
	TotalQuestions   int         `json:"total_questions"`
	Answer           string      `json:"answer,omitempty"`
	ShowAnswer       bool        `json:"show_answer"`
	BuzzedPlayerID   *string     `json:"buzzed_player_id"`
	BuzzedPlayerName *string     `json:"buzzed_player_name"`
	IncorrectTeamID  *string     `json:"incorrect_team_id"`
	AnswerTimer      *int        `json:"answer_timer"`
}

type LightningPhase string

const (
	LightningIdle        LightningPhase = "idle"
	LightningActive      LightningPhase = "active"
	LightningExpired     LightningPhase = "expired"
	LightningAllComplete LightningPhase = "all-complete"
)

// LightningData is the lightning round sub-document.
type LightningData struct {
	Phase           LightningPhase `json:"phase"`
	Question        *string        `json:"question"`
	QuestionNumber  int            `json:"question_number"`
	TotalQuestions  int            `json:"total_questions"`
	TimeRemaining   int            `json:"time_remaining"`
	TotalTime       int            `json:"total_time"`
	CorrectCount    int            `json:"correct_count"`
	IncorrectCount  int            `json:"incorrect_count"`
	PointsThisRound int            `json:"points_this_round"`
}

type QuickBuildPhase string

const (
	QuickBuildSetup    QuickBuildPhase = "setup"
	QuickBuildBuilding QuickBuildPhase = "building"
	QuickBuildJudging  QuickBuildPhase = "judging"
	QuickBuildComplete QuickBuildPhase = "complete"
)

// QuickBuildData is the quick-build round sub-document.
type QuickBuildData struct {
	Phase         QuickBuildPhase `json:"phase"`
	Challenge     string          `json:"challenge"`
	TimeRemaining int             `json:"time_remaining"`
	TotalTime     int             `json:"total_time"`
	WinnerTeamID  *string         `json:"winner_team_id"`
	Tie           bool            `json:"tie"`
}

type Connect4Phase string

const (
	Connect4CoinFlip       Connect4Phase = "coin-flip"
	Connect4Choice         Connect4Phase = "choice"
	Connect4ColumnSelect   Connect4Phase = "column-select"
	Connect4CellSelect     Connect4Phase = "cell-select"
	Connect4QuestionActive Connect4Phase = "question-active"
	Connect4StealOpen      Connect4Phase = "steal-open"
	Connect4ColumnChoice   Connect4Phase = "column-choice"
	Connect4Complete       Connect4Phase = "complete"
)

// BoardCell is one Connect-4 board square as replicated to clients. An
// answered cell with an empty TeamID was X'd: nobody claimed it.
type BoardCell struct {
	Answered bool   `json:"answered"`
	TeamID   string `json:"team,omitempty"`
	Points   int    `json:"points"`
}

// CellRef addresses a board cell.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Connect4Data is the connect-4 round sub-document.
type Connect4Data struct {
	Phase              Connect4Phase   `json:"phase"`
	Question           *string         `json:"question"`
	SelectedColumn     *int            `json:"selected_column"`
	SelectedSquare     *CellRef        `json:"selected_square"`
	PointValue         *int            `json:"point_value"`
	Board              [][]BoardCell   `json:"board"`
	ColumnThemes       []string        `json:"column_themes"`
	TeamBonusPoints    map[string]int  `json:"team_bonus_points"`
	ClaimedCells       map[string]int  `json:"claimed_cells"`
	CoinFlipWinnerTeam *string         `json:"coin_flip_winner_team_id"`
	StealTeamID        *string         `json:"steal_team_id"`
}

type GuessPhase string

const (
	GuessActive   GuessPhase = "active"
	GuessRevealed GuessPhase = "revealed"
	GuessComplete GuessPhase = "complete"
)

// GuessEntry is one player's (draft or final) numeric guess.
type GuessEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     string `json:"team_id"`
	Guess      int    `json:"guess"`
}

// TeamGuessResult ranks one team at reveal time. WinnerPlayers lists every
// player tied for the team's best difference, for display only.
type TeamGuessResult struct {
	TeamID        string       `json:"team_id"`
	ClosestGuess  int          `json:"closest_guess"`
	Difference    int          `json:"difference"`
	PlayerName    string       `json:"player_name"`
	WinnerPlayers []GuessEntry `json:"winner_players"`
}

// GuessNumberData is the guess-the-number round sub-document.
type GuessNumberData struct {
	Phase          GuessPhase            `json:"phase"`
	Prompt         *string               `json:"prompt"`
	QuestionIndex  int                   `json:"question_index"`
	TotalQuestions int                   `json:"total_questions"`
	QuestionID     int                   `json:"question_id"`
	CorrectAnswer  *int                  `json:"correct_answer"`
	PlayerDrafts   map[string]GuessEntry `json:"player_drafts,omitempty"`
	PlayerGuesses  map[string]GuessEntry `json:"player_guesses,omitempty"`
	TeamResults    []TeamGuessResult     `json:"team_results"`
	WinnerTeamID   *string               `json:"winner_team_id"`
	Tie            bool                  `json:"tie"`
	TimeRemaining  int                   `json:"time_remaining"`
	TotalTime      int                   `json:"total_time"`
}

type TurnPhase string

const (
	TurnPrep     TurnPhase = "prep"
	TurnStaged   TurnPhase = "staged"
	TurnActive   TurnPhase = "active"
	TurnJudging  TurnPhase = "judging"
	TurnComplete TurnPhase = "complete"
	TurnAllDone  TurnPhase = "round-complete"
)

// TurnResult is the host's manual judgment of a drawing or acting turn.
type TurnResult string

const (
	TurnGuessed TurnResult = "guessed"
	TurnMissed  TurnResult = "missed"
)

// BlindDrawData is the blind-draw round sub-document. Word is projected
// only to the drawer by the presenter layer.
type BlindDrawData struct {
	Phase          TurnPhase   `json:"phase"`
	Word           *string     `json:"word"`
	DrawerTeamID   *string     `json:"drawer_team_id"`
	DrawerPlayerID *string     `json:"drawer_player_id"`
	TimeRemaining  int         `json:"time_remaining"`
	TotalTime      int         `json:"total_time"`
	Result         *TurnResult `json:"result"`
	PassNumber     int         `json:"pass_number"`
	TotalPasses    int         `json:"total_passes"`
}

// CharadesData is the dump-charades round sub-document, structurally
// blind-draw with an actor instead of a drawer.
type CharadesData struct {
	Phase         TurnPhase   `json:"phase"`
	Word          *string     `json:"word"`
	ActorTeamID   *string     `json:"actor_team_id"`
	ActorPlayerID *string     `json:"actor_player_id"`
	TimeRemaining int         `json:"time_remaining"`
	TotalTime     int         `json:"total_time"`
	Result        *TurnResult `json:"result"`
	PassNumber    int         `json:"pass_number"`
	TotalPasses   int         `json:"total_passes"`
}
