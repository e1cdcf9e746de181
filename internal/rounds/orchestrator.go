package rounds

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/gameshowhq/gameshow/internal/model"
)

// Ledger is the score keeper plus the read side the orchestrator needs to
// snapshot totals for round breakdowns.
type Ledger interface {
	ScoreKeeper
	// Scores returns the current total per team ID.
	Scores() map[string]int
}

// Phase is the orchestrator's position in the round sequence.
type Phase string

const (
	PhaseInstructions Phase = "instructions"
	PhaseActive       Phase = "active"
	PhaseTransition   Phase = "transition"
	PhaseComplete     Phase = "complete"
)

// RoundBreakdown is the per-team score delta of one completed round.
// Written at most once per round index.
type RoundBreakdown struct {
	Index  int             `json:"index"`
	Round  model.RoundType `json:"round"`
	Deltas map[string]int  `json:"deltas"`
}

// TeamStanding is one row of the final ranking.
type TeamStanding struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Summary is the end-of-game result.
type Summary struct {
	Standings  []TeamStanding   `json:"standings"`
	Winners    []string         `json:"winners"`
	Tie        bool             `json:"tie"`
	Breakdowns []RoundBreakdown `json:"breakdowns"`
}

// Config assembles an orchestrator.
type Config struct {
	GameID          string
	Doc             DocSink
	Ledger          Ledger
	Teams           []model.Team
	Players         []model.Player
	Rounds          []model.RoundType
	Settings        model.RoundSettings
	Questions       *model.QuestionSet
	Logger          *log.Logger
	Clock           quartz.Clock
	Rand            *rand.Rand
	TransitionTicks int
	// OnAdvance fires when a round's instructions go up, including the
	// first round at Start. It runs under the orchestrator mutex and must
	// not call back into the orchestrator.
	OnAdvance func(index int, round model.RoundType)
	// OnComplete fires once when the last round finishes.
	OnComplete func(Summary)
}

// Orchestrator sequences the selected rounds: instructions, active play,
// inter-round transition, final summary. It is the single writer for its
// game: every controller action and every tick runs under its mutex.
type Orchestrator struct {
	mu sync.Mutex

	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
	rng    *rand.Rand

	phase      Phase
	roundIdx   int
	active     Controller
	snapshot   map[string]int
	breakdowns map[int]RoundBreakdown

	transitionLeft  int
	transitionTicks int
	completed       bool
}

// NewOrchestrator creates an orchestrator in the instructions phase of the
// first round. Call Start to publish the opening state.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.TransitionTicks <= 0 {
		cfg.TransitionTicks = 2
	}
	if cfg.Questions == nil {
		cfg.Questions = &model.QuestionSet{}
	}
	return &Orchestrator{
		cfg:             cfg,
		logger:          cfg.Logger.WithPrefix("orchestrator"),
		clock:           cfg.Clock,
		rng:             cfg.Rand,
		phase:           PhaseInstructions,
		breakdowns:      make(map[int]RoundBreakdown),
		transitionTicks: cfg.TransitionTicks,
	}
}

// Start publishes the first round's instructions.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.cfg.Rounds) == 0 {
		o.finishGame()
		return
	}
	o.publishInstructions()
}

// Run drives the 1 Hz tick loop until the context ends or the game
// completes.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := o.clock.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if o.TickOnce() {
				return nil
			}
		}
	}
}

// TickOnce advances timers by one second and reports whether the game is
// complete.
func (o *Orchestrator) TickOnce() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.phase {
	case PhaseActive:
		if o.active != nil {
			o.active.Tick()
			o.checkRoundDone()
		}
	case PhaseTransition:
		o.transitionLeft--
		if o.transitionLeft <= 0 {
			o.advance()
		}
	}
	return o.phase == PhaseComplete
}

// Phase returns the orchestrator phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// CurrentRound returns the index and type of the current round.
func (o *Orchestrator) CurrentRound() (int, model.RoundType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.roundIdx >= len(o.cfg.Rounds) {
		return o.roundIdx, ""
	}
	return o.roundIdx, o.cfg.Rounds[o.roundIdx]
}

// AckRules dismisses the instructions screen, snapshots scores for the
// round breakdown, and starts the round controller.
func (o *Orchestrator) AckRules() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseInstructions {
		return ErrBadPhase
	}
	o.snapshot = o.cfg.Ledger.Scores()
	o.active = o.buildController(o.cfg.Rounds[o.roundIdx])
	o.phase = PhaseActive
	o.logger.Info("round started", "index", o.roundIdx, "round", o.cfg.Rounds[o.roundIdx])
	o.cfg.Doc.ApplyPatch(model.StatePatch{RoundData: &model.RoundDataPatch{
		ShowRules:     model.Some(boolptr(false)),
		RulesAckRound: model.Some(intptr(o.roundIdx)),
	}})
	o.active.Begin()
	return nil
}

// Skip force-advances past the current round. The breakdown snapshot is
// still finalized.
func (o *Orchestrator) Skip() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.phase {
	case PhaseInstructions:
		// Round never started; record a zero-delta breakdown.
		o.snapshot = o.cfg.Ledger.Scores()
		o.endRound()
		return nil
	case PhaseActive:
		o.endRound()
		return nil
	default:
		return ErrBadPhase
	}
}

// Summary computes the standings and breakdowns. Valid at any time; the
// tie flag reflects multiple teams sharing the top score.
func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summaryLocked()
}

func (o *Orchestrator) summaryLocked() Summary {
	scores := o.cfg.Ledger.Scores()
	s := Summary{}
	for _, t := range o.cfg.Teams {
		s.Standings = append(s.Standings, TeamStanding{TeamID: t.ID, Name: t.Name, Score: scores[t.ID]})
	}
	sort.Slice(s.Standings, func(i, j int) bool {
		if s.Standings[i].Score != s.Standings[j].Score {
			return s.Standings[i].Score > s.Standings[j].Score
		}
		return s.Standings[i].Name < s.Standings[j].Name
	})
	if len(s.Standings) > 0 {
		top := s.Standings[0].Score
		for _, st := range s.Standings {
			if st.Score == top {
				s.Winners = append(s.Winners, st.TeamID)
			}
		}
		s.Tie = len(s.Winners) > 1
	}
	for i := 0; i < len(o.cfg.Rounds); i++ {
		if b, ok := o.breakdowns[i]; ok {
			s.Breakdowns = append(s.Breakdowns, b)
		}
	}
	return s
}

// Locked accessors to the active controller. The callback runs under the
// orchestrator mutex; round completion is checked after it returns.

func withActive[C Controller](o *Orchestrator, fn func(C) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseActive {
		return ErrNoRound
	}
	c, ok := o.active.(C)
	if !ok {
		return ErrNoRound
	}
	err := fn(c)
	o.checkRoundDone()
	return err
}

func (o *Orchestrator) WithTrivia(fn func(*TriviaBuzz) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithLightning(fn func(*Lightning) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithQuickBuild(fn func(*QuickBuild) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithConnect4(fn func(*Connect4) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithGuessNumber(fn func(*GuessNumber) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithBlindDraw(fn func(*BlindDraw) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) WithCharades(fn func(*Charades) error) error {
	return withActive(o, fn)
}

func (o *Orchestrator) buildController(rt model.RoundType) Controller {
	deps := Deps{
		Doc:     o.cfg.Doc,
		Scores:  o.cfg.Ledger,
		Teams:   o.cfg.Teams,
		Players: o.cfg.Players,
	}
	q := o.cfg.Questions
	s := o.cfg.Settings
	switch rt {
	case model.RoundTriviaBuzz:
		return NewTriviaBuzz(deps, o.logger, q.TriviaBuzz, s.TriviaBuzzQuestions)
	case model.RoundLightning:
		return NewLightning(deps, o.logger, q.Lightning, s.LightningSeconds)
	case model.RoundQuickBuild:
		return NewQuickBuild(deps, o.logger, s.QuickBuildSeconds)
	case model.RoundConnect4:
		return NewConnect4(deps, o.logger, q.Connect4, o.rng)
	case model.RoundGuessNumber:
		return NewGuessNumber(deps, o.logger, q.GuessNumber, s.GuessNumberQuestions, s.GuessNumberSeconds)
	case model.RoundBlindDraw:
		return NewBlindDraw(deps, o.logger, q.BlindDraw, s.BlindDrawSeconds, 0, o.rng)
	case model.RoundDumpCharades:
		return NewCharades(deps, o.logger, q.DumpCharades, s.DumpCharadesSeconds, 0, o.rng)
	default:
		// Unknown rounds complete immediately so a bad setup cannot
		// wedge the sequence.
		return noopController{rt}
	}
}

func (o *Orchestrator) checkRoundDone() {
	if o.phase == PhaseActive && o.active != nil && o.active.Finished() {
		o.endRound()
	}
}

// endRound finalizes the breakdown and enters the transition (or the game
// summary after the last round).
func (o *Orchestrator) endRound() {
	o.finalizeBreakdown()
	o.active = nil
	if o.roundIdx+1 >= len(o.cfg.Rounds) {
		o.finishGame()
		return
	}
	o.phase = PhaseTransition
	o.transitionLeft = o.transitionTicks
	next := o.cfg.Rounds[o.roundIdx+1]
	o.cfg.Doc.ApplyPatch(model.StatePatch{
		CurrentQuestion:   model.Some[*string](nil),
		CurrentCategory:   model.Some[*string](nil),
		CurrentPoints:     model.Some[*int](nil),
		TimeRemaining:     model.Some[*int](nil),
		CanBuzz:           model.Some(false),
		BuzzedTeamID:      model.Some[*string](nil),
		CurrentTurnTeamID: model.Some[*string](nil),
		RoundData: &model.RoundDataPatch{
			ClearRounds:    true,
			ShowTransition: model.Some(boolptr(true)),
			NextRoundName:  model.Some(strptr(next.DisplayName())),
		},
	})
}

// finalizeBreakdown records the round's score deltas exactly once, no
// matter how many completion signals arrive.
func (o *Orchestrator) finalizeBreakdown() {
	if _, done := o.breakdowns[o.roundIdx]; done {
		return
	}
	deltas := make(map[string]int, len(o.cfg.Teams))
	now := o.cfg.Ledger.Scores()
	for _, t := range o.cfg.Teams {
		deltas[t.ID] = now[t.ID] - o.snapshot[t.ID]
	}
	o.breakdowns[o.roundIdx] = RoundBreakdown{
		Index:  o.roundIdx,
		Round:  o.cfg.Rounds[o.roundIdx],
		Deltas: deltas,
	}
	o.logger.Info("round finalized", "index", o.roundIdx, "deltas", deltas)
}

// advance moves from the transition screen to the next round's
// instructions.
func (o *Orchestrator) advance() {
	o.roundIdx++
	o.phase = PhaseInstructions
	o.publishInstructions()
}

func (o *Orchestrator) publishInstructions() {
	rt := o.cfg.Rounds[o.roundIdx]
	o.cfg.Doc.ApplyPatch(model.StatePatch{RoundData: &model.RoundDataPatch{
		ShowRules:      model.Some(boolptr(true)),
		ShowTransition: model.Some(boolptr(false)),
		NextRoundName:  model.Some(strptr(rt.DisplayName())),
	}})
	if o.cfg.OnAdvance != nil {
		o.cfg.OnAdvance(o.roundIdx, rt)
	}
}

func (o *Orchestrator) finishGame() {
	if o.completed {
		o.phase = PhaseComplete
		return
	}
	o.completed = true
	o.phase = PhaseComplete
	o.cfg.Doc.ApplyPatch(model.StatePatch{
		CanBuzz:           model.Some(false),
		BuzzedTeamID:      model.Some[*string](nil),
		CurrentTurnTeamID: model.Some[*string](nil),
		RoundData: &model.RoundDataPatch{
			ClearRounds:    true,
			ShowTransition: model.Some(boolptr(false)),
			ShowRules:      model.Some(boolptr(false)),
			NextRoundName:  model.Some[*string](nil),
		},
	})
	summary := o.summaryLocked()
	o.logger.Info("game complete", "winners", summary.Winners, "tie", summary.Tie)
	if o.cfg.OnComplete != nil {
		o.cfg.OnComplete(summary)
	}
}

// noopController fills the sequence slot for an unrecognized round type.
type noopController struct {
	rt model.RoundType
}

func (n noopController) Type() model.RoundType { return n.rt }
func (n noopController) Begin()                {}
func (n noopController) Tick()                 {}
func (n noopController) Finished() bool        { return true }
