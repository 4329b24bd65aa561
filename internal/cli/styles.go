package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// Shared palette for CLI output.
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorDanger    = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorBorder    = lipgloss.Color("#374151")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	dangerStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	sizeStyle    = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	dividerStyle = lipgloss.NewStyle().Foreground(colorBorder)
)

// divider renders a horizontal rule of the given width.
func divider(width int) string {
	return dividerStyle.Render(strings.Repeat("─", width))
}

// safetyDot colors a bullet by risk level.
func safetyDot(level types.SafetyLevel) string {
	switch level {
	case types.SafetyLevelSafe:
		return successStyle.Render("●")
	case types.SafetyLevelModerate:
		return warningStyle.Render("●")
	case types.SafetyLevelRisky:
		return dangerStyle.Render("●")
	default:
		return mutedStyle.Render("●")
	}
}

// statusGlyph marks an execution result as succeeded or failed.
func statusGlyph(success bool) string {
	if success {
		return successStyle.Render("✓")
	}
	return dangerStyle.Render("✗")
}
