package server

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/rounds"
)

// MonitorStyles contains the styling for the operator console.
type MonitorStyles struct {
	Frame   lipgloss.Style
	Header  lipgloss.Style
	Team    lipgloss.Style
	Score   lipgloss.Style
	Winner  lipgloss.Style
	Detail  lipgloss.Style
	RowName lipgloss.Style
}

// DefaultMonitorStyles returns the standard console palette.
func DefaultMonitorStyles() *MonitorStyles {
	return &MonitorStyles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(1, 2),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Team: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		Score: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Detail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		RowName: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")),
	}
}

// Monitor renders the scoreboard to the operator console. It is display
// only; nothing it prints feeds back into game state.
type Monitor struct {
	w      io.Writer
	styles *MonitorStyles
}

// NewMonitor creates a monitor writing to w.
func NewMonitor(w io.Writer) *Monitor {
	return &Monitor{w: w, styles: DefaultMonitorStyles()}
}

// RenderStandings prints the current scoreboard.
func (m *Monitor) RenderStandings(teams []model.Team) {
	sorted := make([]model.Team, len(teams))
	copy(sorted, teams)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("SCOREBOARD"))
	b.WriteString("\n\n")
	for i, t := range sorted {
		b.WriteString(fmt.Sprintf("%d. %s  %s\n",
			i+1,
			m.styles.Team.Render(padRight(t.Name, 20)),
			m.styles.Score.Render(fmt.Sprintf("%5d", t.Score))))
	}
	fmt.Fprintln(m.w, m.styles.Frame.Render(strings.TrimRight(b.String(), "\n")))
}

// RenderSummary prints the end-of-game result: final standings, winners,
// and the per-round breakdown.
func (m *Monitor) RenderSummary(teams []model.Team, summary rounds.Summary) {
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("FINAL RESULTS"))
	b.WriteString("\n\n")
	for i, st := range summary.Standings {
		line := fmt.Sprintf("%d. %s  %s",
			i+1,
			padRight(st.Name, 20),
			fmt.Sprintf("%5d", st.Score))
		if isWinner(summary.Winners, st.TeamID) {
			b.WriteString(m.styles.Winner.Render(line + "  *"))
		} else {
			b.WriteString(m.styles.Team.Render(line))
		}
		b.WriteString("\n")
	}
	if summary.Tie {
		b.WriteString("\n")
		b.WriteString(m.styles.Detail.Render("Tied for the win"))
		b.WriteString("\n")
	}

	if len(summary.Breakdowns) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Header.Render("BY ROUND"))
		b.WriteString("\n\n")
		for _, breakdown := range summary.Breakdowns {
			b.WriteString(m.styles.RowName.Render(breakdown.Round.DisplayName()))
			b.WriteString("\n")
			ids := make([]string, 0, len(breakdown.Deltas))
			for id := range breakdown.Deltas {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return names[ids[i]] < names[ids[j]] })
			for _, id := range ids {
				b.WriteString(m.styles.Detail.Render(fmt.Sprintf("  %s %+d", padRight(names[id], 20), breakdown.Deltas[id])))
				b.WriteString("\n")
			}
		}
	}
	fmt.Fprintln(m.w, m.styles.Frame.Render(strings.TrimRight(b.String(), "\n")))
}

func isWinner(winners []string, teamID string) bool {
	for _, id := range winners {
		if id == teamID {
			return true
		}
	}
	return false
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
