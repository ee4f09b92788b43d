package tui

import (
	"github.com/charmbracelet/lipgloss"

	"thatmon/internal/monitor"
)

// Theme 定义 TUI 主题色彩和样式
// Theme defines TUI colors and styles
type Theme struct {
	// 基础色 / Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Danger    lipgloss.Color
	Success   lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	TextDim   lipgloss.Color
	BgBar     lipgloss.Color
	Border    lipgloss.Color

	// 预构建样式 / Pre-built styles
	TitleStyle       lipgloss.Style
	ActiveTabStyle   lipgloss.Style
	InactiveTabStyle lipgloss.Style
	StatusBarStyle   lipgloss.Style
	PanelStyle       lipgloss.Style
	FocusPanelStyle  lipgloss.Style
	CursorStyle      lipgloss.Style
	SelectedStyle    lipgloss.Style
	InputStyle       lipgloss.Style
	ErrorStyle       lipgloss.Style
	SuccessStyle     lipgloss.Style
	MutedStyle       lipgloss.Style
	DangerStyle      lipgloss.Style
}

// ThemeByName 按名称返回主题，未知名称返回暗色主题
// ThemeByName returns the named theme, falling back to dark
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// DarkTheme 暗色主题（默认）
// DarkTheme is the default dark theme
func DarkTheme() Theme {
	return buildTheme(Theme{
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Accent:    lipgloss.Color("#F59E0B"),
		Danger:    lipgloss.Color("#EF4444"),
		Success:   lipgloss.Color("#10B981"),
		Muted:     lipgloss.Color("#6B7280"),
		Text:      lipgloss.Color("#E5E7EB"),
		TextDim:   lipgloss.Color("#9CA3AF"),
		BgBar:     lipgloss.Color("#111827"),
		Border:    lipgloss.Color("#374151"),
	})
}

// LightTheme 亮色主题
// LightTheme is a theme for light terminals
func LightTheme() Theme {
	return buildTheme(Theme{
		Primary:   lipgloss.Color("#6D28D9"),
		Secondary: lipgloss.Color("#0E7490"),
		Accent:    lipgloss.Color("#B45309"),
		Danger:    lipgloss.Color("#DC2626"),
		Success:   lipgloss.Color("#047857"),
		Muted:     lipgloss.Color("#9CA3AF"),
		Text:      lipgloss.Color("#111827"),
		TextDim:   lipgloss.Color("#4B5563"),
		BgBar:     lipgloss.Color("#E5E7EB"),
		Border:    lipgloss.Color("#D1D5DB"),
	})
}

func buildTheme(t Theme) Theme {
	t.TitleStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	t.ActiveTabStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Primary).
		Padding(0, 1).
		Bold(true)

	t.InactiveTabStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Padding(0, 1)

	t.StatusBarStyle = lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.BgBar)

	t.PanelStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border)

	t.FocusPanelStyle = t.PanelStyle.
		BorderForeground(t.Primary)

	t.CursorStyle = lipgloss.NewStyle().
		Foreground(t.Secondary).
		Bold(true)

	t.SelectedStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.InputStyle = lipgloss.NewStyle().
		Foreground(t.Text).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	t.MutedStyle = lipgloss.NewStyle().
		Foreground(t.Muted)

	t.DangerStyle = lipgloss.NewStyle().
		Foreground(t.Danger)

	return t
}

// StatusStyle 按状态徽章选择样式
// StatusStyle picks the style for a task or subtask status badge
func (t Theme) StatusStyle(status string) lipgloss.Style {
	switch monitor.Badge(status) {
	case "danger":
		return t.DangerStyle
	case "muted":
		return t.MutedStyle
	default:
		return lipgloss.NewStyle().Foreground(t.Text)
	}
}
