package rounds

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
)

// fakeDoc applies patches to a local state document so tests can assert on
// what clients would see.
type fakeDoc struct {
	mu      sync.Mutex
	state   model.GameState
	patches int
}

func (f *fakeDoc) ApplyPatch(p model.StatePatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Apply(p)
	f.patches++
}

func (f *fakeDoc) snapshot() *model.GameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

// fakeLedger tracks score totals and every delta applied.
type fakeLedger struct {
	mu     sync.Mutex
	totals map[string]int
	deltas []int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{totals: make(map[string]int)}
}

func (f *fakeLedger) AddScore(teamID string, delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[teamID] += delta
	f.deltas = append(f.deltas, delta)
}

func (f *fakeLedger) Scores() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.totals))
	for k, v := range f.totals {
		out[k] = v
	}
	return out
}

func (f *fakeLedger) deltaSum() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, d := range f.deltas {
		sum += d
	}
	return sum
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func twoTeamDeps(doc DocSink, scores ScoreKeeper) Deps {
	return Deps{
		Doc:    doc,
		Scores: scores,
		Teams: []model.Team{
			{ID: "team-a", Name: "Alpha"},
			{ID: "team-b", Name: "Bravo"},
		},
		Players: []model.Player{
			{ID: "p1", TeamID: "team-a", Name: "Ana", Connected: true},
			{ID: "p2", TeamID: "team-a", Name: "Abe", Connected: true},
			{ID: "p3", TeamID: "team-b", Name: "Bea", Connected: true},
			{ID: "p4", TeamID: "team-b", Name: "Ben", Connected: false},
		},
	}
}

func triviaQuestions(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{ID: string(rune('a' + i)), Text: "2+2?", Answer: "4", Category: "Math"}
	}
	return out
}
