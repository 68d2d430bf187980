package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Layout constants - single source of truth for all viewport dimensions
const (
	MinViewportWidth = 100
	MaxViewportWidth = 160
	DefaultWidth     = 120 // Used when terminal size is unknown
	DefaultHeight    = 34
	MinTableHeight   = 5

	// title, tabs, divider, list header, filter line, status line, footer box
	chromeHeight = 14
)

// Layout holds computed dimensions for the current terminal size
type Layout struct {
	ViewportWidth int // clamped terminal width
	InnerWidth    int // exact width for content inside borders
	TableWidth    int // sum of column widths
	TableHeight   int // visible table rows including the header
}

// NewLayout creates a Layout from the terminal size, clamping the width to min/max
func NewLayout(terminalWidth, terminalHeight int) Layout {
	width := clamp(terminalWidth, MinViewportWidth, MaxViewportWidth)
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}
	return Layout{
		ViewportWidth: width,
		InnerWidth:    width - 2,
		TableWidth:    width - 4,
		TableHeight:   max(terminalHeight-chromeHeight, MinTableHeight),
	}
}

// DefaultLayout returns a layout using the default size
func DefaultLayout() Layout {
	return NewLayout(DefaultWidth, DefaultHeight)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Color palette - centralized color definitions
var (
	ColorBorder    = lipgloss.Color("196") // red
	ColorHighlight = lipgloss.Color("88")  // dark red background
	ColorText      = lipgloss.Color("15")  // bright white
	ColorAccent    = lipgloss.Color("226") // bright yellow
	ColorAccentDim = lipgloss.Color("220") // yellow (progress)
	ColorTextDim   = lipgloss.Color("241") // gray
	ColorError     = lipgloss.Color("203") // salmon
)

// Common styles
var (
	// STYLE GUIDE: borders always use .Width(ViewportWidth) with no padding,
	// content inside uses InnerWidth
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	FooterStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorText)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Bold(true).
			Padding(0, 2)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Padding(0, 2)
)

func RenderTitle(s string) string    { return TitleStyle.Render(s) }
func RenderNormal(s string) string   { return NormalStyle.Render(s) }
func RenderDim(s string) string      { return DimStyle.Render(s) }
func RenderAccent(s string) string   { return AccentStyle.Render(s) }
func RenderProgress(s string) string { return ProgressStyle.Render(s) }
func RenderError(s string) string    { return ErrorStyle.Render(s) }

// RenderTabs renders the tab strip with the active tab highlighted
func RenderTabs(names []string, active int) string {
	parts := make([]string, len(names))
	for i, name := range names {
		if i == active {
			parts[i] = TabActiveStyle.Render(name)
		} else {
			parts[i] = TabInactiveStyle.Render(name)
		}
	}
	return strings.Join(parts, " ")
}

// Divider returns a horizontal rule spanning width
func Divider(width int) string {
	return strings.Repeat("─", width)
}

// ApplyTableStyles gives a bubbles table the app's header and selection look
func ApplyTableStyles(t *table.Model) {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Foreground(ColorText).
		Bold(true)
	s.Cell = s.Cell.Foreground(ColorText)
	s.Selected = SelectedStyle
	t.SetStyles(s)
}

// BuildTwoBoxView renders the main box (red border) above a one-line help box
func BuildTwoBoxView(content, helpText string, layout Layout) string {
	main := BorderStyle.Width(layout.ViewportWidth).Render(content)
	footer := FooterStyle.Width(layout.ViewportWidth).Render(
		lipgloss.PlaceHorizontal(layout.InnerWidth, lipgloss.Center, helpText),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, footer)
}

// NewAppSpinner returns the white dot spinner used while pages load
func NewAppSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorText)),
	)
}

// NewAppTheme is the huh theme for filter, create and confirm forms: white text on the
// border red for the focused option and button, dim descriptions, errors in ErrorStyle.
func NewAppTheme() *huh.Theme {
	t := huh.ThemeBase()

	text := NormalStyle
	chip := text.Padding(0, 1)
	hot := chip.Background(ColorBorder).Bold(true)
	red := lipgloss.NewStyle().Foreground(ColorBorder)

	t.Focused.Base = text
	t.Focused.Title = TitleStyle
	t.Focused.Description = DimStyle
	t.Focused.SelectedOption = hot
	t.Focused.UnselectedOption = chip
	t.Focused.FocusedButton = hot
	t.Focused.BlurredButton = chip
	t.Focused.ErrorMessage = ErrorStyle
	t.Focused.ErrorIndicator = ErrorStyle
	t.Focused.TextInput.Cursor = red
	t.Focused.TextInput.Prompt = red
	t.Focused.TextInput.Placeholder = DimStyle

	t.Blurred.Base = t.Focused.Base
	t.Blurred.Title = t.Focused.Title
	t.Blurred.Description = t.Focused.Description
	return t
}

// PrintError prints an error message outside the console
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(ColorBorder).Bold(true).Render("Error: "+message))
}
