package model

// Question is a trivia prompt with its expected answer. The answer is host
// material; presenters never project it to guessing players.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Category   string     `json:"category,omitempty"`
}

// GuessQuestion is a numeric-estimation prompt.
type GuessQuestion struct {
	Prompt string `json:"question"`
	Answer int    `json:"answer"`
}

// BoardQuestion slots a question into a Connect-4 board cell.
type BoardQuestion struct {
	Column   int      `json:"column"`
	Row      int      `json:"row"`
	Question Question `json:"question"`
}

// QuestionSet is the typed batch returned by the content service, keyed by
// round. Rounds absent from the requested set leave their slice nil.
type QuestionSet struct {
	TriviaBuzz   []Question      `json:"triviaBuzz,omitempty"`
	Lightning    []Question      `json:"lightning,omitempty"`
	GuessNumber  []GuessQuestion `json:"guessNumber,omitempty"`
	Connect4     []BoardQuestion `json:"connect4,omitempty"`
	BlindDraw    []string        `json:"blindDraw,omitempty"`
	DumpCharades []string        `json:"dumpCharades,omitempty"`
}

// RoundSettings carries the host's per-round knobs for content generation
// and round timing. Zero values mean "use the round default".
type RoundSettings struct {
	TriviaBuzzQuestions    int        `json:"triviaBuzzQuestions,omitempty"`
	TriviaBuzzDifficulty   Difficulty `json:"triviaBuzzDifficulty,omitempty"`
	LightningSeconds       int        `json:"lightningSeconds,omitempty"`
	LightningDifficulty    Difficulty `json:"lightningDifficulty,omitempty"`
	QuickBuildSeconds      int        `json:"quickBuildSeconds,omitempty"`
	GuessNumberSeconds     int        `json:"guessNumberSeconds,omitempty"`
	GuessNumberQuestions   int        `json:"guessNumberQuestions,omitempty"`
	GuessNumberDifficulty  Difficulty `json:"guessNumberDifficulty,omitempty"`
	Connect4Themes         []string   `json:"connect4Themes,omitempty"`
	Connect4Difficulty     Difficulty `json:"connect4Difficulty,omitempty"`
	BlindDrawSeconds       int        `json:"blindDrawSeconds,omitempty"`
	BlindDrawWordCount     int        `json:"blindDrawWordCount,omitempty"`
	BlindDrawDifficulty    Difficulty `json:"blindDrawDifficulty,omitempty"`
	DumpCharadesSeconds    int        `json:"dumpCharadesSeconds,omitempty"`
	DumpCharadesDifficulty Difficulty `json:"dumpCharadesDifficulty,omitempty"`
	DumpCharadesCategory   string     `json:"dumpCharadesCategory,omitempty"`
}
