package main

import "github.com/charmbracelet/lipgloss"

var palette = struct {
	text      lipgloss.AdaptiveColor
	textMuted lipgloss.AdaptiveColor
	border    lipgloss.AdaptiveColor
	selection lipgloss.AdaptiveColor
	accent    lipgloss.AdaptiveColor
	danger    lipgloss.AdaptiveColor
}{
	text:      lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"},
	textMuted: lipgloss.AdaptiveColor{Light: "#6b6b6b", Dark: "#8a8a8a"},
	border:    lipgloss.AdaptiveColor{Light: "#c0c0c0", Dark: "#444444"},
	selection: lipgloss.AdaptiveColor{Light: "#d7e3fa", Dark: "#30445f"},
	accent:    lipgloss.AdaptiveColor{Light: "#2f6feb", Dark: "#6ca0f5"},
	danger:    lipgloss.AdaptiveColor{Light: "#b42318", Dark: "#e5534b"},
}

type styles struct {
	app, topBar, topStatus           lipgloss.Style
	columnTitle                      lipgloss.Style
	body                             lipgloss.Style
	panel, panelFocused              lipgloss.Style
	tabActive, tabInactive           lipgloss.Style
	tabsRow                          lipgloss.Style
	breadcrumbs                      lipgloss.Style
	statusBar, statusSeg, statusHint lipgloss.Style
	listItem, listSel                lipgloss.Style
	toast, toastError                lipgloss.Style
	filterPrompt, filterHint         lipgloss.Style
	detailLabel, detailValue         lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	panelBorder := lipgloss.NormalBorder()
	focusedBorder := lipgloss.DoubleBorder()

	return styles{
		app:          base,
		topBar:       base.Padding(0, 1),
		topStatus:    base.Copy().Foreground(palette.textMuted),
		columnTitle:  base.Copy().Bold(true).Padding(0, 1),
		body:         base,
		panel:        base.BorderStyle(panelBorder).BorderForeground(palette.border),
		panelFocused: base.BorderStyle(focusedBorder).BorderForeground(palette.accent),
		tabActive:    base.Copy().Bold(true).Padding(0, 1).Foreground(palette.accent),
		tabInactive:  base.Padding(0, 1).Foreground(palette.textMuted),
		tabsRow:      base.Padding(0, 1),
		breadcrumbs:  base.Padding(0, 1).Foreground(palette.textMuted),
		statusBar:    base.Padding(0, 1),
		statusSeg:    base.Padding(0, 1).MarginRight(1),
		statusHint:   base.Copy().Foreground(palette.textMuted),
		listItem:     base.Padding(0, 1),
		listSel:      base.Padding(0, 1).Bold(true),
		toast:        base.Padding(0, 1).Foreground(palette.accent),
		toastError:   base.Padding(0, 1).Foreground(palette.danger),
		filterPrompt: base.Copy().Bold(true),
		filterHint:   base.Copy().Faint(true),
		detailLabel:  base.Copy().Bold(true).Foreground(palette.textMuted),
		detailValue:  base,
	}
}
