package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleStatusDying = styleStatusBar.
				Background(lipgloss.Color("52"))

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleListing = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	styleAnnounce = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleFailure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindText lineKind = iota
	kindHeading
	kindListing
	kindAnnounce
	kindSystem
	kindFailure
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "✗ "):
		return kindFailure
	case strings.HasPrefix(line, "» "):
		return kindAnnounce
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case isListing(line):
		return kindListing
	case strings.HasSuffix(line, ":"):
		return kindHeading
	default:
		return kindText
	}
}

// isListing reports lines of the form "12. ...".
func isListing(line string) bool {
	digits := 0
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits++
			continue
		}
		return r == '.' && digits > 0 && strings.HasPrefix(line[digits+1:], " ")
	}
	return false
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeading:
		return styleHeading.Render(line)
	case kindListing:
		return styleListing.Render(line)
	case kindAnnounce:
		return styleAnnounce.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindFailure:
		return styleFailure.Render(line)
	default:
		return styleText.Render(line)
	}
}
