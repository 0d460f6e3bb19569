// Package ui renders StoryWing data for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/StoryWing/internal/story"
)

var (
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorText      = lipgloss.Color("252")
	ColorBlue      = lipgloss.Color("75")

	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)
)

var priorityColors = map[story.Priority]lipgloss.Color{
	story.PriorityCritical: ColorError,
	story.PriorityHigh:     ColorWarning,
	story.PriorityMedium:   ColorBlue,
	story.PriorityLow:      ColorSecondary,
}

var statusColors = map[story.Status]lipgloss.Color{
	story.StatusCompleted:  ColorSuccess,
	story.StatusInProgress: ColorWarning,
	story.StatusPending:    ColorSecondary,
}

// PriorityBadge renders a priority in its level color.
func PriorityBadge(p story.Priority) string {
	c, ok := priorityColors[p]
	if !ok {
		c = ColorText
	}
	return lipgloss.NewStyle().Foreground(c).Bold(p == story.PriorityCritical).Render(string(p))
}

// StatusBadge renders a status in its color.
func StatusBadge(s story.Status) string {
	c, ok := statusColors[s]
	if !ok {
		c = ColorText
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(s))
}
