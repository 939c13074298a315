package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/cluso-storymap/pkg/entitygraph"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	edgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	activeEdgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	// node colors by entity type
	typeStyles = map[string]lipgloss.Style{
		entitygraph.TypeCharacter:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
		entitygraph.TypeLocation:     lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		entitygraph.TypeOrganization: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Bold(true),
	}
	defaultNodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))

	typeGlyphs = map[string]rune{
		entitygraph.TypeCharacter:    '●',
		entitygraph.TypeLocation:     '■',
		entitygraph.TypeOrganization: '◆',
	}
)

const (
	defaultGlyph = '○'
	edgeGlyph    = '·'
)

func nodeStyle(kind string) lipgloss.Style {
	if s, ok := typeStyles[kind]; ok {
		return s
	}
	return defaultNodeStyle
}

func nodeGlyph(kind string) rune {
	if g, ok := typeGlyphs[kind]; ok {
		return g
	}
	return defaultGlyph
}
