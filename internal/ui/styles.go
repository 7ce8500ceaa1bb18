package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/replicatedhq/kots-sub006/internal/version"
)

// Application branding constants
const (
	AppName   = "CONFIG EDITOR"
	GitHubURL = "github.com/replicatedhq/kots-sub006"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	// Neutral colors
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = lipgloss.Color("#7D56F4") // Purple (same as primary)
	HighlightColor = lipgloss.Color("#43BF6D") // Green (same as secondary)
)

// Common styles
var (
	// Title style for group headings
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// Subtitle style for group descriptions and help_text
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Field label style (unfocused)
	FieldLabelStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(TextColor)

	// Field label style (focused)
	FocusedFieldStyle = lipgloss.NewStyle().
				PaddingLeft(0).
				Foreground(HighlightColor).
				Bold(true)

	// Required marker style
	RequiredStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// Recommended marker style
	RecommendedStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor)

	// Validation error style (inline, under the field)
	ValidationErrorStyle = lipgloss.NewStyle().
				PaddingLeft(4).
				Foreground(ErrorColor)

	// Unsupported-type fallback block style
	UnsupportedStyle = lipgloss.NewStyle().
				PaddingLeft(4).
				Foreground(WarningColor).
				Italic(true)

	// Save error banner style
	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ErrorColor).
				Padding(0, 1)

	// Save success banner style
	SuccessBannerStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(SecondaryColor).
				Padding(0, 1)

	// Help text style
	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Padding(1, 0)

	// Spinner style (validation in flight)
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// RenderGroupTitle renders a group heading with consistent styling
func RenderGroupTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderFieldLabel renders a field label with selection indicator
func RenderFieldLabel(text string, focused bool) string {
	if focused {
		return FocusedFieldStyle.Render("→ " + text)
	}
	return FieldLabelStyle.Render(text)
}

// BuildHeaderContent creates header content with app name and project URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// RenderApplicationContainer wraps a screen in the shared frame: header with
// the app name, the screen content, and a footer with context help. Every
// screen renders through this so the chrome stays consistent.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		AlignVertical(lipgloss.Top)

	if terminalHeight > 2 {
		borderStyle = borderStyle.Height(terminalHeight - 2)
	}

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(inner),
	)
}
