package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/phrazzld/synth-study/internal/domain"
)

var (
	// Header style - bold bright cyan
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Dim style - for secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Question style - bright white
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	bandStyles = map[domain.ScoreBand]lipgloss.Style{
		domain.BandExcellent: lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		domain.BandGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		domain.BandFair:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		domain.BandPoor:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// bandText renders text in the colour of band.
func bandText(band domain.ScoreBand, text string) string {
	style, ok := bandStyles[band]
	if !ok {
		return text
	}
	return style.Render(text)
}

// scoreText renders a 0..1 score as a coloured percentage.
func scoreText(score float64) string {
	return bandText(domain.BandForScore(score), fmt.Sprintf("%d%%", domain.ScorePercent(score)))
}

// progressBar draws a fixed-width bar for a 0..100 percentage.
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
