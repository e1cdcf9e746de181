package rounds

import (
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	turnWinPoints      = 200
	turnDefaultSeconds = 60
	turnDefaultPasses  = 2
)

// turnCore is the shared machinery of the blind-draw and dump-charades
// rounds: round-robin team turns, one performer per turn, a secret word, a
// countdown, and a manual guessed/missed verdict.
type turnCore struct {
	deps   Deps
	logger *log.Logger
	rng    *rand.Rand

	words   []string
	used    map[string]bool
	seconds int
	passes  int

	pass      int
	turn      int
	phase     model.TurnPhase
	word      string
	performer model.Player
	result    *model.TurnResult
	remaining int

	publish func()
}

func newTurnCore(deps Deps, logger *log.Logger, words []string, seconds, passes int, rng *rand.Rand) turnCore {
	if seconds <= 0 {
		seconds = turnDefaultSeconds
	}
	if passes <= 0 {
		passes = turnDefaultPasses
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return turnCore{
		deps:    deps,
		logger:  logger,
		rng:     rng,
		words:   words,
		used:    make(map[string]bool),
		seconds: seconds,
		passes:  passes,
		pass:    1,
		phase:   model.TurnPrep,
	}
}

func (c *turnCore) finished() bool { return c.phase == model.TurnAllDone }

// CurrentTeam returns the team whose turn it is.
func (c *turnCore) CurrentTeam() string {
	if len(c.deps.Teams) == 0 {
		return ""
	}
	return c.deps.Teams[c.turn%len(c.deps.Teams)].ID
}

// PerformerID returns the player performing the current turn.
func (c *turnCore) PerformerID() string { return c.performer.ID }

// selectPerformer assigns a connected player from the current team and
// deals them a word.
func (c *turnCore) selectPerformer(playerID string) error {
	if c.phase != model.TurnPrep {
		return ErrBadPhase
	}
	teamID := c.CurrentTeam()
	for _, p := range c.deps.connectedPlayers(teamID) {
		if p.ID == playerID {
			c.performer = p
			c.word = c.dealWord()
			c.result = nil
			c.phase = model.TurnStaged
			c.logger.Info("performer selected", "team", teamID, "player", p.Name)
			c.publish()
			return nil
		}
	}
	return ErrUnknownTeam
}

// rerollWord swaps the dealt word before the timer starts.
func (c *turnCore) rerollWord() error {
	if c.phase != model.TurnStaged {
		return ErrBadPhase
	}
	c.word = c.dealWord()
	c.publish()
	return nil
}

// dealWord picks an unused word; the pool resets once exhausted.
func (c *turnCore) dealWord() string {
	if len(c.words) == 0 {
		return ""
	}
	if len(c.used) >= len(c.words) {
		c.used = make(map[string]bool)
	}
	for {
		w := c.words[c.rng.Intn(len(c.words))]
		if !c.used[w] {
			c.used[w] = true
			return w
		}
	}
}

// startTimer begins the countdown.
func (c *turnCore) startTimer() error {
	if c.phase != model.TurnStaged {
		return ErrBadPhase
	}
	c.remaining = c.seconds
	c.phase = model.TurnActive
	c.publish()
	return nil
}

func (c *turnCore) tick() {
	if c.phase != model.TurnActive {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.phase = model.TurnJudging
	}
	c.publish()
}

// judge resolves the turn. Guessing early ends the countdown.
func (c *turnCore) judge(guessed bool) error {
	if c.phase != model.TurnActive && c.phase != model.TurnJudging {
		return ErrBadPhase
	}
	result := model.TurnMissed
	if guessed {
		result = model.TurnGuessed
		c.deps.Scores.AddScore(c.CurrentTeam(), turnWinPoints)
	}
	c.result = &result
	c.phase = model.TurnComplete
	c.logger.Info("turn judged", "team", c.CurrentTeam(), "result", result)
	c.publish()
	return nil
}

// nextTurn advances round-robin; the round ends after the configured
// number of full passes.
func (c *turnCore) nextTurn() error {
	if c.phase != model.TurnComplete {
		return ErrBadPhase
	}
	c.word = ""
	c.performer = model.Player{}
	c.result = nil
	c.remaining = 0
	c.turn++
	if c.turn >= len(c.deps.Teams) {
		c.turn = 0
		c.pass++
		if c.pass > c.passes {
			c.phase = model.TurnAllDone
			c.publish()
			return nil
		}
	}
	c.phase = model.TurnPrep
	c.publish()
	return nil
}

// BlindDraw is the drawing round.
type BlindDraw struct {
	core turnCore
}

// NewBlindDraw creates the controller.
func NewBlindDraw(deps Deps, logger *log.Logger, words []string, seconds, passes int, rng *rand.Rand) *BlindDraw {
	b := &BlindDraw{core: newTurnCore(deps, logger.WithPrefix("blinddraw"), words, seconds, passes, rng)}
	b.core.publish = b.publish
	return b
}

func (b *BlindDraw) Type() model.RoundType { return model.RoundBlindDraw }
func (b *BlindDraw) Begin()                { b.publish() }
func (b *BlindDraw) Tick()                 { b.core.tick() }
func (b *BlindDraw) Finished() bool        { return b.core.finished() }

func (b *BlindDraw) CurrentTeam() string { return b.core.CurrentTeam() }
func (b *BlindDraw) DrawerID() string    { return b.core.PerformerID() }

func (b *BlindDraw) SelectDrawer(playerID string) error { return b.core.selectPerformer(playerID) }
func (b *BlindDraw) RerollWord() error                  { return b.core.rerollWord() }
func (b *BlindDraw) StartTimer() error                  { return b.core.startTimer() }
func (b *BlindDraw) Judge(guessed bool) error           { return b.core.judge(guessed) }
func (b *BlindDraw) NextTurn() error                    { return b.core.nextTurn() }

func (b *BlindDraw) publish() {
	c := &b.core
	d := &model.BlindDrawData{
		Phase:         c.phase,
		TimeRemaining: c.remaining,
		TotalTime:     c.seconds,
		Result:        c.result,
		PassNumber:    c.pass,
		TotalPasses:   c.passes,
	}
	if c.word != "" {
		d.Word = strptr(c.word)
	}
	if c.performer.ID != "" {
		d.DrawerTeamID = strptr(c.performer.TeamID)
		d.DrawerPlayerID = strptr(c.performer.ID)
	}
	var turn *string
	if id := c.CurrentTeam(); id != "" && c.phase != model.TurnAllDone {
		turn = strptr(id)
	}
	c.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentTurnTeamID: model.Some(turn),
		TimeRemaining:     model.Some(intptr(c.remaining)),
		RoundData:         &model.RoundDataPatch{BlindDraw: model.Some(d)},
	})
}

// Charades is the acting round, structurally blind-draw with its own word
// pool.
type Charades struct {
	core turnCore
}

// NewCharades creates the controller.
func NewCharades(deps Deps, logger *log.Logger, words []string, seconds, passes int, rng *rand.Rand) *Charades {
	c := &Charades{core: newTurnCore(deps, logger.WithPrefix("charades"), words, seconds, passes, rng)}
	c.core.publish = c.publish
	return c
}

func (c *Charades) Type() model.RoundType { return model.RoundDumpCharades }
func (c *Charades) Begin()                { c.publish() }
func (c *Charades) Tick()                 { c.core.tick() }
func (c *Charades) Finished() bool        { return c.core.finished() }

func (c *Charades) CurrentTeam() string { return c.core.CurrentTeam() }
func (c *Charades) ActorID() string     { return c.core.PerformerID() }

func (c *Charades) SelectActor(playerID string) error { return c.core.selectPerformer(playerID) }
func (c *Charades) RerollWord() error                 { return c.core.rerollWord() }
func (c *Charades) StartTimer() error                 { return c.core.startTimer() }
func (c *Charades) Judge(guessed bool) error          { return c.core.judge(guessed) }
func (c *Charades) NextTurn() error                   { return c.core.nextTurn() }

func (c *Charades) publish() {
	core := &c.core
	d := &model.CharadesData{
		Phase:         core.phase,
		TimeRemaining: core.remaining,
		TotalTime:     core.seconds,
		Result:        core.result,
		PassNumber:    core.pass,
		TotalPasses:   core.passes,
	}
	if core.word != "" {
		d.Word = strptr(core.word)
	}
	if core.performer.ID != "" {
		d.ActorTeamID = strptr(core.performer.TeamID)
		d.ActorPlayerID = strptr(core.performer.ID)
	}
	var turn *string
	if id := core.CurrentTeam(); id != "" && core.phase != model.TurnAllDone {
		turn = strptr(id)
	}
	core.deps.Doc.ApplyPatch(model.StatePatch{
		CurrentTurnTeamID: model.Some(turn),
		TimeRemaining:     model.Some(intptr(core.remaining)),
		RoundData:         &model.RoundDataPatch{DumpCharades: model.Some(d)},
	})
}
