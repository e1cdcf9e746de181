package rounds

import (
	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	lightningCorrectPoints  = 50
	lightningDefaultSeconds = 60
	lightningPerTeam        = 10
	lightningAdvanceDelay   = 2
)

// Lightning runs per-team timed turns against pre-sliced question queues.
// Each team gets its own slice of the material so no team sees another's
// ordering.
type Lightning struct {
	deps   Deps
	logger *log.Logger

	questions []model.Question
	seconds   int

	teamIdx   int
	phase     model.LightningPhase
	queue     []model.Question
	remaining int
	resolved  int
	correct   int
	incorrect int
	points    int
	advanceIn int
}

// NewLightning creates the controller. seconds is each team's time budget;
// zero means the default of sixty.
func NewLightning(deps Deps, logger *log.Logger, questions []model.Question, seconds int) *Lightning {
	if seconds <= 0 {
		seconds = lightningDefaultSeconds
	}
	return &Lightning{
		deps:      deps,
		logger:    logger.WithPrefix("lightning"),
		questions: questions,
		seconds:   seconds,
		phase:     model.LightningIdle,
	}
}

func (l *Lightning) Type() model.RoundType { return model.RoundLightning }

func (l *Lightning) Begin() {
	l.publish()
}

func (l *Lightning) Finished() bool { return l.phase == model.LightningAllComplete }

// CurrentTeam returns the team whose turn is up or running.
func (l *Lightning) CurrentTeam() string {
	if l.teamIdx >= len(l.deps.Teams) {
		return ""
	}
	return l.deps.Teams[l.teamIdx].ID
}

// StartTurn begins the current team's turn.
func (l *Lightning) StartTurn() error {
	if l.phase != model.LightningIdle {
		return ErrBadPhase
	}
	l.queue = l.buildQueue(l.teamIdx)
	l.remaining = l.seconds
	l.resolved = 0
	l.correct = 0
	l.incorrect = 0
	l.points = 0
	l.phase = model.LightningActive
	l.logger.Info("turn started", "team", l.CurrentTeam(), "questions", len(l.queue))
	l.publish()
	return nil
}

// buildQueue slices a distinct block of questions for team i, wrapping
// when material runs short.
func (l *Lightning) buildQueue(i int) []model.Question {
	out := make([]model.Question, 0, lightningPerTeam)
	if len(l.questions) == 0 {
		return out
	}
	start := i * lightningPerTeam
	for n := 0; n < lightningPerTeam; n++ {
		out = append(out, l.questions[(start+n)%len(l.questions)])
	}
	return out
}

// Tick drives the countdown and the post-turn auto-advance.
func (l *Lightning) Tick() {
	switch l.phase {
	case model.LightningActive:
		l.remaining--
		if l.remaining <= 0 {
			l.remaining = 0
			l.endTurn()
			return
		}
		l.publish()
	case model.LightningExpired:
		l.advanceIn--
		if l.advanceIn <= 0 {
			l.nextTeam()
		}
	}
}

// Correct awards +50 and advances the queue.
func (l *Lightning) Correct() error {
	if l.phase != model.LightningActive {
		return ErrBadPhase
	}
	l.deps.Scores.AddScore(l.CurrentTeam(), lightningCorrectPoints)
	l.correct++
	l.points += lightningCorrectPoints
	l.resolve()
	return nil
}

// Incorrect advances the queue with no score change.
func (l *Lightning) Incorrect() error {
	if l.phase != model.LightningActive {
		return ErrBadPhase
	}
	l.incorrect++
	l.resolve()
	return nil
}

// Pass re-queues the current question at the back of this team's queue; it
// can resurface if time remains. A pass is not a resolution.
func (l *Lightning) Pass() error {
	if l.phase != model.LightningActive {
		return ErrBadPhase
	}
	if len(l.queue) > 1 {
		q := l.queue[0]
		l.queue = append(l.queue[1:], q)
	}
	l.publish()
	return nil
}

func (l *Lightning) resolve() {
	l.resolved++
	l.queue = l.queue[1:]
	if len(l.queue) == 0 {
		l.endTurn()
		return
	}
	l.publish()
}

func (l *Lightning) endTurn() {
	l.phase = model.LightningExpired
	l.advanceIn = lightningAdvanceDelay
	l.logger.Info("turn ended", "team", l.CurrentTeam(),
		"resolved", l.resolved, "correct", l.correct, "points", l.points)
	l.publish()
}

func (l *Lightning) nextTeam() {
	l.teamIdx++
	if l.teamIdx >= len(l.deps.Teams) {
		l.phase = model.LightningAllComplete
	} else {
		l.phase = model.LightningIdle
	}
	l.publish()
}

// Resolved reports how many questions the current turn has resolved.
func (l *Lightning) Resolved() int { return l.resolved }

func (l *Lightning) publish() {
	d := &model.LightningData{
		Phase:           l.phase,
		TotalQuestions:  lightningPerTeam,
		TimeRemaining:   l.remaining,
		TotalTime:       l.seconds,
		CorrectCount:    l.correct,
		IncorrectCount:  l.incorrect,
		PointsThisRound: l.points,
	}
	if l.phase == model.LightningActive && len(l.queue) > 0 {
		d.Question = strptr(l.queue[0].Text)
		d.QuestionNumber = l.resolved + 1
	}
	var turn *string
	if id := l.CurrentTeam(); id != "" {
		turn = strptr(id)
	}
	l.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentTurnTeamID: model.Some(turn),
		TimeRemaining:     model.Some(intptr(l.remaining)),
		RoundData:         &model.RoundDataPatch{Lightning: model.Some(d)},
	})
}
