package rounds

import (
	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	triviaCorrectPoints   = 100
	triviaIncorrectPoints = -50
	triviaAnswerSeconds   = 5
	triviaStealLockout    = 2
)

// BuzzResult tells a buzzing client whether it won the race.
type BuzzResult struct {
	Accepted bool
	// First is true when this buzz locked the question (as opposed to a
	// steal buzz).
	First bool
}

// TriviaBuzz runs the buzzer round: first buzz locks the question, wrong
// answers open a steal window for the other teams.
type TriviaBuzz struct {
	deps   Deps
	logger *log.Logger

	questions []model.Question
	total     int
	idx       int

	phase         model.TriviaPhase
	buzzedTeam    string
	buzzedPlayer  string
	buzzedName    string
	incorrectTeam string
	answerTimer   int
	stealLockout  int
}

// NewTriviaBuzz creates the controller. totalQuestions caps the round; zero
// means the default of ten, bounded by available material.
func NewTriviaBuzz(deps Deps, logger *log.Logger, questions []model.Question, totalQuestions int) *TriviaBuzz {
	if totalQuestions <= 0 {
		totalQuestions = 10
	}
	if totalQuestions > len(questions) {
		totalQuestions = len(questions)
	}
	return &TriviaBuzz{
		deps:      deps,
		logger:    logger.WithPrefix("trivia"),
		questions: questions,
		total:     totalQuestions,
		phase:     model.TriviaQuestionActive,
	}
}

func (t *TriviaBuzz) Type() model.RoundType { return model.RoundTriviaBuzz }

func (t *TriviaBuzz) Begin() {
	// No material means nothing to ask. Complete immediately rather than
	// index into an empty question list.
	if t.total == 0 {
		t.logger.Warn("no questions available, completing round")
		t.phase = model.TriviaRoundComplete
		t.publishComplete()
		return
	}
	t.publishQuestion()
}

func (t *TriviaBuzz) Finished() bool { return t.phase == model.TriviaRoundComplete }

// Tick drives the answer window countdown and the steal lockout. Expiry of
// the answer window is display-only; resolution stays with the host.
func (t *TriviaBuzz) Tick() {
	switch t.phase {
	case model.TriviaBuzzed, model.TriviaStealBuzzed:
		if t.answerTimer > 0 {
			t.answerTimer--
			t.publish()
		}
	case model.TriviaStealOpen:
		if t.stealLockout > 0 {
			t.stealLockout--
		}
	}
}

// Buzz arbitrates a buzz attempt. First buzz wins. Rejections carry a typed
// error: ErrStealClosed when the steal window excludes the caller or is
// still in lockout, ErrTooLate otherwise.
func (t *TriviaBuzz) Buzz(teamID, playerID, playerName string) (BuzzResult, error) {
	switch t.phase {
	case model.TriviaQuestionActive:
		t.lockBuzz(teamID, playerID, playerName, model.TriviaBuzzed)
		return BuzzResult{Accepted: true, First: true}, nil
	case model.TriviaStealOpen:
		if teamID == t.incorrectTeam || t.stealLockout > 0 {
			return BuzzResult{}, ErrStealClosed
		}
		t.lockBuzz(teamID, playerID, playerName, model.TriviaStealBuzzed)
		return BuzzResult{Accepted: true}, nil
	default:
		return BuzzResult{}, ErrTooLate
	}
}

func (t *TriviaBuzz) lockBuzz(teamID, playerID, playerName string, phase model.TriviaPhase) {
	t.phase = phase
	t.buzzedTeam = teamID
	t.buzzedPlayer = playerID
	t.buzzedName = playerName
	t.answerTimer = triviaAnswerSeconds
	t.logger.Info("buzz accepted", "team", teamID, "player", playerName, "question", t.idx+1)
	t.publish()
}

// MarkCorrect resolves the locked answer as correct.
func (t *TriviaBuzz) MarkCorrect() error {
	switch t.phase {
	case model.TriviaBuzzed, model.TriviaStealBuzzed:
	default:
		return ErrBadPhase
	}
	t.deps.Scores.AddScore(t.buzzedTeam, triviaCorrectPoints)
	t.phase = model.TriviaResolved
	t.publishResolved(true)
	return nil
}

// MarkIncorrect resolves the locked answer as incorrect. A first-buzz miss
// opens the steal window; a steal miss ends the question.
func (t *TriviaBuzz) MarkIncorrect() error {
	switch t.phase {
	case model.TriviaBuzzed:
		t.deps.Scores.AddScore(t.buzzedTeam, triviaIncorrectPoints)
		t.incorrectTeam = t.buzzedTeam
		t.buzzedTeam = ""
		t.buzzedPlayer = ""
		t.buzzedName = ""
		t.phase = model.TriviaStealOpen
		t.stealLockout = triviaStealLockout
		t.publish()
		return nil
	case model.TriviaStealBuzzed:
		t.deps.Scores.AddScore(t.buzzedTeam, triviaIncorrectPoints)
		t.phase = model.TriviaResolved
		t.publishResolved(true)
		return nil
	default:
		return ErrBadPhase
	}
}

// Skip ends the question with no score change. Valid while buzzing is open
// or a steal window found no takers.
func (t *TriviaBuzz) Skip() error {
	switch t.phase {
	case model.TriviaQuestionActive, model.TriviaStealOpen:
		t.phase = model.TriviaResolved
		t.publishResolved(true)
		return nil
	default:
		return ErrBadPhase
	}
}

// Next advances to the next question, or completes the round after the
// last one.
func (t *TriviaBuzz) Next() error {
	if t.phase != model.TriviaResolved {
		return ErrBadPhase
	}
	t.idx++
	t.buzzedTeam = ""
	t.buzzedPlayer = ""
	t.buzzedName = ""
	t.incorrectTeam = ""
	t.answerTimer = 0
	if t.idx >= t.total {
		t.phase = model.TriviaRoundComplete
		t.publishComplete()
		return nil
	}
	t.phase = model.TriviaQuestionActive
	t.publishQuestion()
	return nil
}

// BuzzedTeam returns the team currently holding the lock, if any.
func (t *TriviaBuzz) BuzzedTeam() string { return t.buzzedTeam }

func (t *TriviaBuzz) current() model.Question {
	return t.questions[t.idx]
}

func (t *TriviaBuzz) publishQuestion() {
	q := t.current()
	t.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentQuestion: model.Some(strptr(q.Text)),
		CurrentCategory: model.Some(strptr(q.Category)),
		CurrentPoints:   model.Some(intptr(triviaCorrectPoints)),
		CanBuzz:         model.Some(true),
		BuzzedTeamID:    model.Some[*string](nil),
		RoundData:       &model.RoundDataPatch{Trivia: model.Some(t.doc(false))},
	})
}

func (t *TriviaBuzz) publish() {
	canBuzz := t.phase == model.TriviaQuestionActive || t.phase == model.TriviaStealOpen
	var buzzed *string
	if t.buzzedTeam != "" {
		buzzed = strptr(t.buzzedTeam)
	}
	t.deps.Doc.ApplyPatch(model.StatePatch{
		CanBuzz:      model.Some(canBuzz),
		BuzzedTeamID: model.Some(buzzed),
		RoundData:    &model.RoundDataPatch{Trivia: model.Some(t.doc(false))},
	})
}

func (t *TriviaBuzz) publishResolved(showAnswer bool) {
	t.deps.Doc.ApplyPatch(model.StatePatch{
		CanBuzz:      model.Some(false),
		BuzzedTeamID: model.Some[*string](nil),
		RoundData:    &model.RoundDataPatch{Trivia: model.Some(t.doc(showAnswer))},
	})
}

func (t *TriviaBuzz) publishComplete() {
	t.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentQuestion: model.Some[*string](nil),
		CurrentCategory: model.Some[*string](nil),
		CurrentPoints:   model.Some[*int](nil),
		CanBuzz:         model.Some(false),
		BuzzedTeamID:    model.Some[*string](nil),
		RoundData:       &model.RoundDataPatch{Trivia: model.Some(t.doc(false))},
	})
}

func (t *TriviaBuzz) doc(showAnswer bool) *model.TriviaData {
	d := &model.TriviaData{
		Phase:          t.phase,
		QuestionNumber: t.idx + 1,
		TotalQuestions: t.total,
		ShowAnswer:     showAnswer,
	}
	if t.phase == model.TriviaRoundComplete {
		d.QuestionNumber = t.total
	}
	if showAnswer {
		d.Answer = t.questions[min(t.idx, t.total-1)].Answer
	}
	if t.buzzedPlayer != "" {
		d.BuzzedPlayerID = strptr(t.buzzedPlayer)
		d.BuzzedPlayerName = strptr(t.buzzedName)
	}
	if t.incorrectTeam != "" {
		d.IncorrectTeamID = strptr(t.incorrectTeam)
	}
	if t.phase == model.TriviaBuzzed || t.phase == model.TriviaStealBuzzed {
		d.AnswerTimer = intptr(t.answerTimer)
	}
	return d
}
