package model

import "encoding/json"

// Opt is an optional patch field. A zero Opt leaves the target untouched;
// Some marks the field for writing, including explicit nulls via a nil
// pointer value. This distinguishes "absent" from "set to null", which a
// plain pointer cannot.
type Opt[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Opt carrying v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Value: v}
}

// IsZero pairs with the omitzero tag so unset fields vanish from encoded
// patches.
func (o Opt[T]) IsZero() bool { return !o.Set }

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// UnmarshalJSON marks the field set. A JSON null writes the zero value,
// which for pointer fields is the explicit null.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// StatePatch is a merge patch against GameState. Unset fields are
// preserved; set fields replace. RoundData merges key-wise so a controller
// patching its own sub-document never clobbers orchestrator flow fields.
type StatePatch struct {
	CurrentQuestion   Opt[*string]    `json:"current_question,omitzero"`
	CurrentCategory   Opt[*string]    `json:"current_category,omitzero"`
	CurrentPoints     Opt[*int]       `json:"current_points,omitzero"`
	TimeRemaining     Opt[*int]       `json:"time_remaining,omitzero"`
	CanBuzz           Opt[bool]       `json:"can_buzz,omitzero"`
	BuzzedTeamID      Opt[*string]    `json:"buzzed_team_id,omitzero"`
	CurrentTurnTeamID Opt[*string]    `json:"current_turn_team_id,omitzero"`
	RoundData         *RoundDataPatch `json:"round_data,omitempty"`
}

// RoundDataPatch merges into RoundData. Each round sub-document replaces
// wholesale when set: controllers own their sub-document and always write
// the full thing, so nested merging buys nothing and invites stale fields.
// ClearRounds nulls every round key before the rest of the patch applies;
// the orchestrator sets it on every transition.
type RoundDataPatch struct {
	ClearRounds bool `json:"clear_rounds,omitempty"`

	ShowRules      Opt[*bool]      `json:"show_rules,omitzero"`
	ShowTransition Opt[*bool]      `json:"show_transition,omitzero"`
	NextRoundName  Opt[*string]    `json:"next_round_name,omitzero"`
	RulesAckRound  Opt[*int]       `json:"rules_ack_round,omitzero"`
	GameSetup      Opt[*GameSetup] `json:"game_setup,omitzero"`

	Trivia       Opt[*TriviaData]      `json:"trivia,omitzero"`
	Lightning    Opt[*LightningData]   `json:"lightning,omitzero"`
	QuickBuild   Opt[*QuickBuildData]  `json:"quick_build,omitzero"`
	Connect4     Opt[*Connect4Data]    `json:"connect4,omitzero"`
	GuessNumber  Opt[*GuessNumberData] `json:"guess_number,omitzero"`
	BlindDraw    Opt[*BlindDrawData]   `json:"blind_draw,omitzero"`
	DumpCharades Opt[*CharadesData]    `json:"dump_charades,omitzero"`
}

// Apply merges p into s in place. The caller serializes writes.
func (s *GameState) Apply(p StatePatch) {
	if p.CurrentQuestion.Set {
		s.CurrentQuestion = p.CurrentQuestion.Value
	}
	if p.CurrentCategory.Set {
		s.CurrentCategory = p.CurrentCategory.Value
	}
	if p.CurrentPoints.Set {
		s.CurrentPoints = p.CurrentPoints.Value
	}
	if p.TimeRemaining.Set {
		s.TimeRemaining = p.TimeRemaining.Value
	}
	if p.CanBuzz.Set {
		s.CanBuzz = p.CanBuzz.Value
	}
	if p.BuzzedTeamID.Set {
		s.BuzzedTeamID = p.BuzzedTeamID.Value
	}
	if p.CurrentTurnTeamID.Set {
		s.CurrentTurnTeamID = p.CurrentTurnTeamID.Value
	}
	if p.RoundData != nil {
		if s.RoundData == nil {
			s.RoundData = &RoundData{}
		}
		s.RoundData.apply(p.RoundData)
	}
}

func (d *RoundData) apply(p *RoundDataPatch) {
	if p.ClearRounds {
		d.Trivia = nil
		d.Lightning = nil
		d.QuickBuild = nil
		d.Connect4 = nil
		d.GuessNumber = nil
		d.BlindDraw = nil
		d.DumpCharades = nil
	}
	if p.ShowRules.Set {
		d.ShowRules = p.ShowRules.Value
	}
	if p.ShowTransition.Set {
		d.ShowTransition = p.ShowTransition.Value
	}
	if p.NextRoundName.Set {
		d.NextRoundName = p.NextRoundName.Value
	}
	if p.RulesAckRound.Set {
		d.RulesAckRound = p.RulesAckRound.Value
	}
	if p.GameSetup.Set {
		d.GameSetup = p.GameSetup.Value
	}
	if p.Trivia.Set {
		d.Trivia = p.Trivia.Value
	}
	if p.Lightning.Set {
		d.Lightning = p.Lightning.Value
	}
	if p.QuickBuild.Set {
		d.QuickBuild = p.QuickBuild.Value
	}
	if p.Connect4.Set {
		d.Connect4 = p.Connect4.Value
	}
	if p.GuessNumber.Set {
		d.GuessNumber = p.GuessNumber.Value
	}
	if p.BlindDraw.Set {
		d.BlindDraw = p.BlindDraw.Value
	}
	if p.DumpCharades.Set {
		d.DumpCharades = p.DumpCharades.Value
	}
}

// Clone deep-copies the state so readers can hold a snapshot without
// racing controller writes.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.CurrentQuestion = clonePtr(s.CurrentQuestion)
	out.CurrentCategory = clonePtr(s.CurrentCategory)
	out.CurrentPoints = clonePtr(s.CurrentPoints)
	out.TimeRemaining = clonePtr(s.TimeRemaining)
	out.BuzzedTeamID = clonePtr(s.BuzzedTeamID)
	out.CurrentTurnTeamID = clonePtr(s.CurrentTurnTeamID)
	out.RoundData = s.RoundData.clone()
	return &out
}

func (d *RoundData) clone() *RoundData {
	if d == nil {
		return nil
	}
	out := *d
	out.ShowRules = clonePtr(d.ShowRules)
	out.ShowTransition = clonePtr(d.ShowTransition)
	out.NextRoundName = clonePtr(d.NextRoundName)
	out.RulesAckRound = clonePtr(d.RulesAckRound)
	if d.GameSetup != nil {
		gs := *d.GameSetup
		gs.Rounds = append([]RoundType(nil), d.GameSetup.Rounds...)
		out.GameSetup = &gs
	}
	if d.Trivia != nil {
		t := *d.Trivia
		t.BuzzedPlayerID = clonePtr(d.Trivia.BuzzedPlayerID)
		t.BuzzedPlayerName = clonePtr(d.Trivia.BuzzedPlayerName)
		t.IncorrectTeamID = clonePtr(d.Trivia.IncorrectTeamID)
		t.AnswerTimer = clonePtr(d.Trivia.AnswerTimer)
		out.Trivia = &t
	}
	if d.Lightning != nil {
		l := *d.Lightning
		l.Question = clonePtr(d.Lightning.Question)
		out.Lightning = &l
	}
	if d.QuickBuild != nil {
		q := *d.QuickBuild
		q.WinnerTeamID = clonePtr(d.QuickBuild.WinnerTeamID)
		out.QuickBuild = &q
	}
	if d.Connect4 != nil {
		c := *d.Connect4
		c.Question = clonePtr(d.Connect4.Question)
		c.SelectedColumn = clonePtr(d.Connect4.SelectedColumn)
		c.SelectedSquare = clonePtr(d.Connect4.SelectedSquare)
		c.PointValue = clonePtr(d.Connect4.PointValue)
		c.CoinFlipWinnerTeam = clonePtr(d.Connect4.CoinFlipWinnerTeam)
		c.StealTeamID = clonePtr(d.Connect4.StealTeamID)
		c.Board = make([][]BoardCell, len(d.Connect4.Board))
		for i, col := range d.Connect4.Board {
			c.Board[i] = append([]BoardCell(nil), col...)
		}
		c.ColumnThemes = append([]string(nil), d.Connect4.ColumnThemes...)
		c.TeamBonusPoints = cloneMap(d.Connect4.TeamBonusPoints)
		c.ClaimedCells = cloneMap(d.Connect4.ClaimedCells)
		out.Connect4 = &c
	}
	if d.GuessNumber != nil {
		g := *d.GuessNumber
		g.Prompt = clonePtr(d.GuessNumber.Prompt)
		g.CorrectAnswer = clonePtr(d.GuessNumber.CorrectAnswer)
		g.WinnerTeamID = clonePtr(d.GuessNumber.WinnerTeamID)
		g.PlayerDrafts = cloneMap(d.GuessNumber.PlayerDrafts)
		g.PlayerGuesses = cloneMap(d.GuessNumber.PlayerGuesses)
		g.TeamResults = make([]TeamGuessResult, len(d.GuessNumber.TeamResults))
		for i, r := range d.GuessNumber.TeamResults {
			r.WinnerPlayers = append([]GuessEntry(nil), r.WinnerPlayers...)
			g.TeamResults[i] = r
		}
		out.GuessNumber = &g
	}
	if d.BlindDraw != nil {
		b := *d.BlindDraw
		b.Word = clonePtr(d.BlindDraw.Word)
		b.DrawerTeamID = clonePtr(d.BlindDraw.DrawerTeamID)
		b.DrawerPlayerID = clonePtr(d.BlindDraw.DrawerPlayerID)
		b.Result = clonePtr(d.BlindDraw.Result)
		out.BlindDraw = &b
	}
	if d.DumpCharades != nil {
		c := *d.DumpCharades
		c.Word = clonePtr(d.DumpCharades.Word)
		c.ActorTeamID = clonePtr(d.DumpCharades.ActorTeamID)
		c.ActorPlayerID = clonePtr(d.DumpCharades.ActorPlayerID)
		c.Result = clonePtr(d.DumpCharades.Result)
		out.DumpCharades = &c
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
