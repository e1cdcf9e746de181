package rounds

import (
	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

const (
	quickBuildWinPoints   = 300
	quickBuildTiePoints   = 150
	quickBuildDefaultTime = 120
	quickBuildMinSeconds  = 30
	quickBuildMaxSeconds  = 300
)

// Criteria a quick-build challenge can be judged on. Labels only; the
// judgment itself is the host's.
var QuickBuildCriteria = []string{"tallest", "most-blocks", "stability"}

// QuickBuild is a physical-challenge round: a countdown and a manual host
// verdict.
type QuickBuild struct {
	deps   Deps
	logger *log.Logger

	phase     model.QuickBuildPhase
	challenge string
	remaining int
	total     int
	winner    string
	tie       bool
}

// NewQuickBuild creates the controller. seconds is clamped to the
// allowed window; zero means the default.
func NewQuickBuild(deps Deps, logger *log.Logger, seconds int) *QuickBuild {
	if seconds == 0 {
		seconds = quickBuildDefaultTime
	}
	if seconds < quickBuildMinSeconds {
		seconds = quickBuildMinSeconds
	}
	if seconds > quickBuildMaxSeconds {
		seconds = quickBuildMaxSeconds
	}
	return &QuickBuild{
		deps:   deps,
		logger: logger.WithPrefix("quickbuild"),
		phase:  model.QuickBuildSetup,
		total:  seconds,
	}
}

func (q *QuickBuild) Type() model.RoundType { return model.RoundQuickBuild }

func (q *QuickBuild) Begin() {
	q.publish()
}

func (q *QuickBuild) Finished() bool { return q.phase == model.QuickBuildComplete }

// StartBuild locks the challenge criterion and starts the countdown.
func (q *QuickBuild) StartBuild(criterion string) error {
	if q.phase != model.QuickBuildSetup {
		return ErrBadPhase
	}
	valid := false
	for _, c := range QuickBuildCriteria {
		if c == criterion {
			valid = true
			break
		}
	}
	if !valid {
		return ErrBadPhase
	}
	q.challenge = criterion
	q.remaining = q.total
	q.phase = model.QuickBuildBuilding
	q.logger.Info("build started", "criterion", criterion, "seconds", q.total)
	q.publish()
	return nil
}

// EndBuild cuts the countdown short and moves to judging.
func (q *QuickBuild) EndBuild() error {
	if q.phase != model.QuickBuildBuilding {
		return ErrBadPhase
	}
	q.remaining = 0
	q.phase = model.QuickBuildJudging
	q.publish()
	return nil
}

func (q *QuickBuild) Tick() {
	if q.phase != model.QuickBuildBuilding {
		return
	}
	q.remaining--
	if q.remaining <= 0 {
		q.remaining = 0
		q.phase = model.QuickBuildJudging
	}
	q.publish()
}

// DeclareWinner awards the round to one team.
func (q *QuickBuild) DeclareWinner(teamID string) error {
	if q.phase != model.QuickBuildJudging {
		return ErrBadPhase
	}
	if q.deps.teamIndex(teamID) < 0 {
		return ErrUnknownTeam
	}
	q.deps.Scores.AddScore(teamID, quickBuildWinPoints)
	q.winner = teamID
	q.phase = model.QuickBuildComplete
	q.logger.Info("winner declared", "team", teamID)
	q.publish()
	return nil
}

// DeclareTie awards every team the tie points.
func (q *QuickBuild) DeclareTie() error {
	if q.phase != model.QuickBuildJudging {
		return ErrBadPhase
	}
	for _, t := range q.deps.Teams {
		q.deps.Scores.AddScore(t.ID, quickBuildTiePoints)
	}
	q.tie = true
	q.phase = model.QuickBuildComplete
	q.publish()
	return nil
}

func (q *QuickBuild) publish() {
	d := &model.QuickBuildData{
		Phase:         q.phase,
		Challenge:     q.challenge,
		TimeRemaining: q.remaining,
		TotalTime:     q.total,
		Tie:           q.tie,
	}
	if q.winner != "" {
		d.WinnerTeamID = strptr(q.winner)
	}
	q.deps.Doc.ApplyPatch(model.StatePatch{
		TimeRemaining: model.Some(intptr(q.remaining)),
		RoundData:     &model.RoundDataPatch{QuickBuild: model.Some(d)},
	})
}
