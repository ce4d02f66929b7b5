package tui

import (
	"gearguard/internal/core/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder   = lipgloss.Color("240")
	colorActive   = lipgloss.Color("10")
	colorMuted    = lipgloss.Color("244")
	colorDanger   = lipgloss.Color("9")
	colorSelected = lipgloss.Color("57")
	colorCarry    = lipgloss.Color("214")
)

// stageColors tints the column titles
var stageColors = map[domain.Stage]lipgloss.Color{
	domain.StageNew:        lipgloss.Color("12"),
	domain.StageInProgress: lipgloss.Color("214"),
	domain.StageRepaired:   lipgloss.Color("10"),
	domain.StageScrap:      lipgloss.Color("9"),
}

type styles struct {
	header    lipgloss.Style
	column    lipgloss.Style
	columnHot lipgloss.Style
	dropZone  lipgloss.Style
	card      lipgloss.Style
	selected  lipgloss.Style
	carried   lipgloss.Style
	muted     lipgloss.Style
	overdue   lipgloss.Style
	info      lipgloss.Style
	error     lipgloss.Style
	prompt    lipgloss.Style
}

func newStyles() styles {
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		column:    box.BorderForeground(colorBorder),
		columnHot: box.BorderForeground(colorActive),
		dropZone:  box.BorderForeground(colorCarry).BorderStyle(lipgloss.DoubleBorder()),
		card:      lipgloss.NewStyle(),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(colorSelected),
		carried:   lipgloss.NewStyle().Italic(true).Foreground(colorCarry),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		overdue:   lipgloss.NewStyle().Bold(true).Foreground(colorDanger),
		info:      lipgloss.NewStyle().Foreground(colorActive),
		error:     lipgloss.NewStyle().Foreground(colorDanger),
		prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("88")).Padding(0, 1),
	}
}

func stageTitle(s domain.Stage) string {
	switch s {
	case domain.StageNew:
		return "New"
	case domain.StageInProgress:
		return "In Progress"
	case domain.StageRepaired:
		return "Repaired"
	case domain.StageScrap:
		return "Scrap"
	}
	return string(s)
}
