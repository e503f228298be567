package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
)

// HeaderStyle is used for the run summary title line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// SectionStyle marks a summary section heading.
var SectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// KeyStyle highlights tracker ticket keys.
var KeyStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// NewBadgeStyle marks tickets created during the run.
var NewBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// ExistingBadgeStyle marks tickets that were already open.
var ExistingBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// ErrorStyle marks failure lines.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// DimmedStyle renders secondary detail such as URLs and timestamps.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// SeverityStyle returns a color-coded style for a finding severity label.
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch severity {
	case "Critical":
		return base.Foreground(ColorRed)
	case "High":
		return base.Foreground(ColorOrange)
	case "Medium":
		return base.Foreground(ColorYellow)
	case "Low":
		return base.Foreground(ColorBlue)
	case "Info":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a tracker priority name.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case "Blocker", "Highest":
		return base.Foreground(ColorRed)
	case "Critical", "High":
		return base.Foreground(ColorOrange)
	case "Major", "Medium":
		return base.Foreground(ColorYellow)
	case "Minor", "Low":
		return base.Foreground(ColorBlue)
	case "Trivial", "Lowest":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorGray)
	}
}
