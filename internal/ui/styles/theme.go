// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects
// the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderStatus lipgloss.Style
	OnlineBadge  lipgloss.Style
	OfflineBadge lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	ListeningBadge lipgloss.Style

	// Sidebar
	Sidebar              lipgloss.Style
	SidebarTitle         lipgloss.Style
	SidebarEntry         lipgloss.Style
	SidebarEntrySelected lipgloss.Style
	SidebarPreview       lipgloss.Style

	// Suggestion chips
	Chip lipgloss.Style

	// Toasts
	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastStatus  lipgloss.Style

	// Auth / landing screens
	Banner     lipgloss.Style
	FormLabel  lipgloss.Style
	FormError  lipgloss.Style
	FormButton lipgloss.Style
	Hint       lipgloss.Style
}

// NewTheme builds a theme from the detected terminal capabilities.
// forceDark: "dark" or "light" overrides detection, "auto" keeps it.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// ApplyMode switches dark/light in place so shared theme pointers pick
// up a config reload without restarting. "auto" re-detects.
func (t *Theme) ApplyMode(mode string) {
	switch mode {
	case "dark":
		t.IsDark = true
	case "light":
		t.IsDark = false
	default:
		t.IsDark = termenv.HasDarkBackground()
	}
	t.initStyles()
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.HeaderStatus = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.OnlineBadge = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.OfflineBadge = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ListeningBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1).
		Bold(true)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)
	t.SidebarEntry = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SidebarEntrySelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true)
	t.SidebarPreview = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Chip = lipgloss.NewStyle().
		Foreground(Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)

	t.ToastError = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1).
		Bold(true)
	t.ToastWarning = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Amber).
		Padding(0, 1)
	t.ToastSuccess = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Padding(0, 1)
	t.ToastStatus = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Banner = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Padding(1, 2)
	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.FormError = lipgloss.NewStyle().
		Foreground(Rose)
	t.FormButton = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 2).
		Bold(true)
	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// CompactLayout reports whether the sidebar should be hidden.
func (t *Theme) CompactLayout() bool {
	return t.Width > 0 && t.Width < 90
}
