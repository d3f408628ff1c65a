package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line with the
// actor's realm, qi, health and gold.
func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" %s | not joined", m.actor.Name)
	right := ""
	if m.joined {
		p := m.profile
		left = fmt.Sprintf(" %s | %s %d/%d", p.Name, p.Realm, p.Level, p.MaxLevel)
		right = fmt.Sprintf("Qi %d/%d | HP %d/%d | Gold %d ", p.Qi, p.RequiredQi, p.Health, p.MaxHealth, p.Gold)
		if p.Dying {
			right = "DYING | " + right
		}
		if p.AutoTrain {
			left += " | auto"
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + strings.Repeat(" ", gap) + right

	style := styleStatusBar
	if m.joined && m.profile.Dying {
		style = styleStatusDying
	}
	return style.Width(m.width).Render(bar)
}
