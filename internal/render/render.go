// Package render turns the detection flag into the status indicator shown
// on the dashboard and in the terminal.
package render

import (
	"fmt"
	"strings"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const (
	LabelCheating = "Cheating detected"
	LabelClear    = "Not detected"

	ColorCheating = "red"
	ColorClear    = "green"
)

var (
	cheatingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	clearStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Status returns one of the two mutually exclusive indicator states.
func Status(cheating bool) dto.StatusBadge {
	if cheating {
		return dto.StatusBadge{Label: LabelCheating, Cheating: true, Color: ColorCheating, Bold: true}
	}
	return dto.StatusBadge{Label: LabelClear, Color: ColorClear}
}

// Terminal styles the badge for a console.
func Terminal(b dto.StatusBadge) string {
	if b.Cheating {
		return cheatingStyle.Render(b.Label)
	}
	return clearStyle.Render(b.Label)
}

// StatusLine is the one-line console summary printed by the agent.
func StatusLine(info dto.SessionInfo) string {
	state := "stopped"
	if info.Running {
		state = "capturing " + info.Device
	}
	link := "offline"
	if info.Connected {
		link = "online"
	}
	return fmt.Sprintf("%s %s", Terminal(info.Status), mutedStyle.Render("["+state+", "+link+"]"))
}

// History renders the alert history as a table, newest first.
func History(alerts []model.SnapshotAlert) string {
	if len(alerts) == 0 {
		return mutedStyle.Render("No cheating snapshots recorded.")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-24s %s", "TIME", "ID", "SNAPSHOT")))
	b.WriteByte('\n')
	for i := len(alerts) - 1; i >= 0; i-- {
		a := alerts[i]
		b.WriteString(fmt.Sprintf("%-20s %-24s %s\n", cheatingStyle.Render(a.DisplayTime), a.ID, mutedStyle.Render(a.URL)))
	}
	return strings.TrimRight(b.String(), "\n")
}
