package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit         key.Binding
	nextFocus    key.Binding
	prevFocus    key.Binding
	nextState    key.Binding
	prevState    key.Binding
	filter       key.Binding
	clearFilter  key.Binding
	settings     key.Binding
	toggleCol    key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	showAll      key.Binding
	hideAll      key.Binding
	resetCols    key.Binding
	toggleSelect key.Binding
	actions      key.Binding
	export       key.Binding
	openDetail   key.Binding
	closePane    key.Binding
	nextRecord   key.Binding
	prevRecord   key.Binding
	copyID       key.Binding
	copyRow      key.Binding
	togglePin    key.Binding
	toggleLogs   key.Binding
	toggleTheme  key.Binding
	refresh      key.Binding
	toggleHelp   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		nextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		prevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev panel"),
		),
		nextState: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next state tab"),
		),
		prevState: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev state tab"),
		),
		filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		clearFilter: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "clear filter"),
		),
		settings: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "column settings"),
		),
		toggleCol: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle column"),
		),
		moveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move column up"),
		),
		moveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move column down"),
		),
		showAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "show all columns"),
		),
		hideAll: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "hide all columns"),
		),
		resetCols: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset to form default"),
		),
		toggleSelect: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select record"),
		),
		actions: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "actions"),
		),
		export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		openDetail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open record"),
		),
		closePane: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		nextRecord: key.NewBinding(
			key.WithKeys("ctrl+n", "right"),
			key.WithHelp("ctrl+n", "next record"),
		),
		prevRecord: key.NewBinding(
			key.WithKeys("ctrl+p", "left"),
			key.WithHelp("ctrl+p", "prev record"),
		),
		copyID: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy record id"),
		),
		copyRow: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy row"),
		),
		togglePin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin form"),
		),
		toggleLogs: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "toggle logs"),
		),
		toggleTheme: key.NewBinding(
			key.WithKeys("f8"),
			key.WithHelp("F8", "cycle theme"),
		),
		refresh: key.NewBinding(
			key.WithKeys("f5", "ctrl+r"),
			key.WithHelp("F5", "refresh"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.nextFocus,
		k.nextState,
		k.prevState,
		k.filter,
		k.settings,
		k.actions,
		k.toggleHelp,
		k.quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextFocus, k.prevFocus, k.nextState, k.prevState},
		{k.filter, k.clearFilter, k.settings, k.resetCols},
		{k.toggleSelect, k.actions, k.export, k.togglePin},
		{k.openDetail, k.closePane, k.nextRecord, k.prevRecord},
		{k.copyID, k.copyRow, k.refresh, k.toggleLogs},
		{k.toggleTheme, k.toggleHelp, k.quit},
	}
}
