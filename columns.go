package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type column interface {
	SetSize(width, height int)
	Update(msg tea.Msg) (column, tea.Cmd)
	View(styles styles, focused bool) string
	Title() string
	FocusValue() string
}

func newTableStyles() table.Styles {
	tStyles := table.DefaultStyles()
	tStyles.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.textMuted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.border).
		Padding(0, 1)
	tStyles.Cell = lipgloss.NewStyle().Padding(0, 1)
	tStyles.Selected = lipgloss.NewStyle().
		Foreground(palette.text).
		Background(palette.selection).
		Padding(0, 1)
	return tStyles
}

type formEntry struct {
	title  string
	desc   string
	form   formInfo
	pinned bool
}

func (e formEntry) Title() string {
	if e.pinned {
		return "★ " + e.title
	}
	return e.title
}

func (e formEntry) Description() string { return e.desc }
func (e formEntry) FilterValue() string { return e.title }

// formsColumn lists the forms the operator can open, pinned forms first.
type formsColumn struct {
	title       string
	model       list.Model
	width       int
	height      int
	lang        string
	onSelect    func(formInfo) tea.Cmd
	onHighlight func(formInfo) tea.Cmd
}

func newFormsColumn(title, lang string, s styles) *formsColumn {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = s.listSel
	delegate.Styles.SelectedDesc = s.listSel
	delegate.Styles.NormalTitle = s.listItem
	delegate.Styles.NormalDesc = s.listItem.Foreground(palette.textMuted)

	m := list.New([]list.Item{}, delegate, 30, 20)
	m.Title = title
	m.SetShowStatusBar(false)
	m.SetFilteringEnabled(false)
	m.SetShowHelp(false)
	m.SetShowPagination(false)

	return &formsColumn{
		title: title,
		model: m,
		lang:  lang,
	}
}

func (c *formsColumn) SetCallbacks(onSelect, onHighlight func(formInfo) tea.Cmd) {
	c.onSelect = onSelect
	c.onHighlight = onHighlight
}

func (c *formsColumn) SetForms(forms []formInfo, cfg *uiConfig) {
	entries := make([]formEntry, 0, len(forms))
	for _, form := range forms {
		entries = append(entries, formEntry{
			title:  form.DisplayTitle(c.lang),
			desc:   form.Description,
			form:   form,
			pinned: cfg.IsPinned(form.Name),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].pinned != entries[j].pinned {
			return entries[i].pinned
		}
		return false
	})
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = entry
	}
	selected := c.selectedForm()
	c.model.SetItems(items)
	if len(items) == 0 {
		return
	}
	c.model.Select(0)
	for idx, item := range items {
		if entry, ok := item.(formEntry); ok && entry.form.Name == selected {
			c.model.Select(idx)
			return
		}
	}
}

func (c *formsColumn) SelectForm(name string) {
	for idx, item := range c.model.Items() {
		if entry, ok := item.(formEntry); ok && entry.form.Name == name {
			c.model.Select(idx)
			return
		}
	}
}

func (c *formsColumn) selectedForm() string {
	if entry, ok := c.model.SelectedItem().(formEntry); ok {
		return entry.form.Name
	}
	return ""
}

func (c *formsColumn) SelectedInfo() (formInfo, bool) {
	if entry, ok := c.model.SelectedItem().(formEntry); ok {
		return entry.form, true
	}
	return formInfo{}, false
}

func (c *formsColumn) SetSize(width, height int) {
	c.width = width
	if height < 3 {
		height = 3
	}
	c.height = height
	c.model.SetSize(width, height-2)
}

func (c *formsColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	prev := c.model.Index()
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" && c.onSelect != nil {
		if entry, ok := c.model.SelectedItem().(formEntry); ok {
			return c, c.onSelect(entry.form)
		}
	}
	var cmd tea.Cmd
	c.model, cmd = c.model.Update(msg)
	if c.model.Index() != prev && c.onHighlight != nil {
		if entry, ok := c.model.SelectedItem().(formEntry); ok {
			if run := c.onHighlight(entry.form); run != nil {
				if cmd != nil {
					return c, tea.Batch(cmd, run)
				}
				return c, run
			}
		}
	}
	return c, cmd
}

func (c *formsColumn) View(s styles, focused bool) string {
	body := lipgloss.JoinVertical(lipgloss.Left, s.columnTitle.Render(c.title), c.model.View())
	if focused {
		return s.panelFocused.Width(c.width).Render(body)
	}
	return s.panel.Width(c.width).Render(body)
}

func (c *formsColumn) Title() string {
	return c.title
}

func (c *formsColumn) FocusValue() string {
	return c.selectedForm()
}

// submissionsColumn renders the record table for one state tab. Column
// layout follows the effective columnDef list; a marker cell on the left
// shows multi-select state.
type submissionsColumn struct {
	title       string
	table       table.Model
	width       int
	height      int
	cols        []columnDef
	rows        []record
	selected    map[string]bool
	loading     bool
	onHighlight func(record) tea.Cmd
	onToggle    func(record) tea.Cmd
	onActivate  func(record) tea.Cmd
}

func newSubmissionsColumn(title string) *submissionsColumn {
	t := table.New(
		table.WithColumns([]table.Column{{Title: "", Width: 2}}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(newTableStyles())

	return &submissionsColumn{
		title:    title,
		table:    t,
		selected: map[string]bool{},
	}
}

func (c *submissionsColumn) SetCallbacks(onHighlight, onToggle, onActivate func(record) tea.Cmd) {
	c.onHighlight = onHighlight
	c.onToggle = onToggle
	c.onActivate = onActivate
}

func (c *submissionsColumn) SetLoading(loading bool) {
	c.loading = loading
}

// SetData swaps both column layout and rows. The cursor stays on the same
// record when it survives the swap.
func (c *submissionsColumn) SetData(cols []columnDef, rows []record, selected map[string]bool) {
	current, _ := c.SelectedRecord()
	c.cols = visibleColumns(cols)
	c.rows = rows
	if selected == nil {
		selected = map[string]bool{}
	}
	c.selected = selected
	c.rebuild()
	if len(rows) == 0 {
		return
	}
	c.table.SetCursor(0)
	for idx, rec := range rows {
		if rec.ID == current.ID {
			c.table.SetCursor(idx)
			return
		}
	}
}

func visibleColumns(cols []columnDef) []columnDef {
	var out []columnDef
	for _, col := range cols {
		if col.Visible {
			out = append(out, col)
		}
	}
	return out
}

func (c *submissionsColumn) rebuild() {
	tableRows := make([]table.Row, len(c.rows))
	for i, rec := range c.rows {
		row := make(table.Row, 0, len(c.cols)+1)
		marker := " "
		if c.selected[rec.ID] {
			marker = "•"
		}
		row = append(row, marker)
		for _, col := range c.cols {
			row = append(row, cellValue(rec, col))
		}
		tableRows[i] = row
	}
	// the table renders retained rows against whatever columns it holds;
	// rows shaped for the old column set must be gone before the swap
	c.table.SetRows(nil)
	c.applyColumnWidths()
	c.table.SetRows(tableRows)
}

func (c *submissionsColumn) applyColumnWidths() {
	if len(c.cols) == 0 {
		c.table.SetColumns([]table.Column{{Title: "", Width: 2}})
		return
	}
	usable := c.width - 4 - len(c.cols)*2
	if usable < len(c.cols)*8 {
		usable = len(c.cols) * 8
	}
	per := usable / len(c.cols)
	columns := make([]table.Column, 0, len(c.cols)+1)
	columns = append(columns, table.Column{Title: " ", Width: 2})
	for _, col := range c.cols {
		width := per
		if col.Field == fieldActions {
			width = maxInt(per/2, 8)
		}
		columns = append(columns, table.Column{Title: col.Title, Width: width})
	}
	c.table.SetColumns(columns)
}

func (c *submissionsColumn) SelectedRecord() (record, bool) {
	if len(c.rows) == 0 {
		return record{}, false
	}
	idx := c.table.Cursor()
	if idx < 0 || idx >= len(c.rows) {
		return record{}, false
	}
	return c.rows[idx], true
}

func (c *submissionsColumn) SelectID(id string) {
	for idx, rec := range c.rows {
		if rec.ID == id {
			c.table.SetCursor(idx)
			return
		}
	}
}

func (c *submissionsColumn) SetSize(width, height int) {
	if width < 40 {
		width = 40
	}
	if height < 6 {
		height = 6
	}
	c.width = width
	c.height = height
	c.applyColumnWidths()
	c.table.SetHeight(height - 3)
}

func (c *submissionsColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	prev := c.table.Cursor()
	var cmds []tea.Cmd

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case " ", "space":
			if rec, ok := c.SelectedRecord(); ok && c.onToggle != nil {
				cmds = append(cmds, c.onToggle(rec))
			}
		case "enter":
			if rec, ok := c.SelectedRecord(); ok && c.onActivate != nil {
				cmds = append(cmds, c.onActivate(rec))
			}
		}
	}

	if c.table.Cursor() != prev {
		if rec, ok := c.SelectedRecord(); ok && c.onHighlight != nil {
			cmds = append(cmds, c.onHighlight(rec))
		}
	}

	return c, tea.Batch(cmds...)
}

func (c *submissionsColumn) View(s styles, focused bool) string {
	title := s.columnTitle.Render(c.title)
	var body string
	switch {
	case c.loading:
		body = s.listItem.Foreground(palette.textMuted).Render("Loading submissions…")
	case len(c.rows) == 0:
		body = s.listItem.Foreground(palette.textMuted).Render("No submissions")
	default:
		body = c.table.View()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *submissionsColumn) Title() string {
	return c.title
}

func (c *submissionsColumn) FocusValue() string {
	if rec, ok := c.SelectedRecord(); ok {
		return rec.ID
	}
	return ""
}

type settingsEntry struct {
	col columnDef
}

func (e settingsEntry) Title() string {
	marker := "[ ]"
	if e.col.Visible {
		marker = "[x]"
	}
	if e.col.Frozen {
		marker = " * "
	}
	return fmt.Sprintf("%s %s", marker, e.col.Title)
}

func (e settingsEntry) Description() string {
	if e.col.Frozen {
		return "always shown"
	}
	return e.col.Field
}

func (e settingsEntry) FilterValue() string { return e.col.Title }

// settingsColumn is the column visibility and ordering editor. All edits go
// through the callbacks; the owning model decides when they land.
type settingsColumn struct {
	title     string
	model     list.Model
	width     int
	height    int
	canReset  bool
	onToggle  func(field string) tea.Cmd
	onMove    func(field string, delta int) tea.Cmd
	onSetAll  func(visible bool) tea.Cmd
	onReset   func() tea.Cmd
	onConfirm func() tea.Cmd
}

func newSettingsColumn(s styles) *settingsColumn {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = s.listSel
	delegate.Styles.SelectedDesc = s.listSel
	delegate.Styles.NormalTitle = s.listItem
	delegate.Styles.NormalDesc = s.listItem.Foreground(palette.textMuted)

	m := list.New([]list.Item{}, delegate, 34, 20)
	m.Title = "Columns"
	m.SetShowStatusBar(false)
	m.SetFilteringEnabled(false)
	m.SetShowHelp(false)
	m.SetShowPagination(false)

	return &settingsColumn{
		title: "Column settings",
		model: m,
	}
}

func (c *settingsColumn) SetCallbacks(
	onToggle func(string) tea.Cmd,
	onMove func(string, int) tea.Cmd,
	onSetAll func(bool) tea.Cmd,
	onReset func() tea.Cmd,
	onConfirm func() tea.Cmd,
) {
	c.onToggle = onToggle
	c.onMove = onMove
	c.onSetAll = onSetAll
	c.onReset = onReset
	c.onConfirm = onConfirm
}

func (c *settingsColumn) SetColumns(cols []columnDef, canReset bool) {
	c.canReset = canReset
	items := make([]list.Item, len(cols))
	for i, col := range cols {
		items[i] = settingsEntry{col: col}
	}
	prev := c.model.Index()
	c.model.SetItems(items)
	if prev >= 0 && prev < len(items) {
		c.model.Select(prev)
	} else if len(items) > 0 {
		c.model.Select(0)
	}
}

func (c *settingsColumn) selectedField() (string, bool) {
	if entry, ok := c.model.SelectedItem().(settingsEntry); ok {
		return entry.col.Field, true
	}
	return "", false
}

func (c *settingsColumn) SetSize(width, height int) {
	c.width = maxInt(width, 28)
	if height < 3 {
		height = 3
	}
	c.height = height
	c.model.SetSize(c.width, height-3)
}

func (c *settingsColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case " ", "space":
			if field, ok := c.selectedField(); ok && c.onToggle != nil {
				cmds = append(cmds, c.onToggle(field))
			}
			return c, tea.Batch(cmds...)
		case "K", "shift+up":
			if field, ok := c.selectedField(); ok && c.onMove != nil {
				if c.model.Index() > 0 {
					c.model.Select(c.model.Index() - 1)
				}
				cmds = append(cmds, c.onMove(field, -1))
			}
			return c, tea.Batch(cmds...)
		case "J", "shift+down":
			if field, ok := c.selectedField(); ok && c.onMove != nil {
				if c.model.Index() < len(c.model.Items())-1 {
					c.model.Select(c.model.Index() + 1)
				}
				cmds = append(cmds, c.onMove(field, 1))
			}
			return c, tea.Batch(cmds...)
		case "a":
			if c.onSetAll != nil {
				cmds = append(cmds, c.onSetAll(true))
			}
			return c, tea.Batch(cmds...)
		case "n":
			if c.onSetAll != nil {
				cmds = append(cmds, c.onSetAll(false))
			}
			return c, tea.Batch(cmds...)
		case "r":
			if c.canReset && c.onReset != nil {
				cmds = append(cmds, c.onReset())
			}
			return c, tea.Batch(cmds...)
		case "enter":
			if c.onConfirm != nil {
				cmds = append(cmds, c.onConfirm())
			}
			return c, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	c.model, cmd = c.model.Update(msg)
	return c, cmd
}

func (c *settingsColumn) View(s styles, focused bool) string {
	title := s.columnTitle.Render(c.title)
	hints := []string{"space toggle", "K/J move", "a all", "n none", "enter apply"}
	if c.canReset {
		hints = append(hints, "r reset")
	}
	hint := s.filterHint.Render(strings.Join(hints, "  "))
	body := lipgloss.JoinVertical(lipgloss.Left, title, c.model.View(), hint)
	if focused {
		return s.panelFocused.Width(c.width).Render(body)
	}
	return s.panel.Width(c.width).Render(body)
}

func (c *settingsColumn) Title() string {
	return c.title
}

func (c *settingsColumn) FocusValue() string {
	if field, ok := c.selectedField(); ok {
		return field
	}
	return ""
}

// actionsColumn presents the permission-gated bulk actions for the current
// selection. Disabled rows stay visible with the reason in the details cell.
type actionsColumn struct {
	title      string
	table      table.Model
	width      int
	height     int
	items      []bulkActionItem
	onActivate func(bulkActionItem) tea.Cmd
}

func newActionsColumn() *actionsColumn {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Action", Width: 18},
			{Title: "Details", Width: 42},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(newTableStyles())

	return &actionsColumn{
		title: "Actions",
		table: t,
	}
}

func (c *actionsColumn) SetActivateFunc(fn func(bulkActionItem) tea.Cmd) {
	c.onActivate = fn
}

func (c *actionsColumn) SetItems(items []bulkActionItem) {
	c.items = items
	rows := make([]table.Row, len(items))
	for i, item := range items {
		label := item.Title
		desc := item.Desc
		if item.Disabled {
			label = "! " + label
			if strings.TrimSpace(item.DisabledReason) != "" {
				desc = item.DisabledReason
			}
		}
		rows[i] = table.Row{label, desc}
	}
	c.table.SetRows(rows)
	if len(rows) > 0 {
		c.table.SetCursor(0)
	}
}

func (c *actionsColumn) SelectedItem() (bulkActionItem, bool) {
	if len(c.items) == 0 {
		return bulkActionItem{}, false
	}
	cursor := c.table.Cursor()
	if cursor < 0 || cursor >= len(c.items) {
		return bulkActionItem{}, false
	}
	return c.items[cursor], true
}

func (c *actionsColumn) SetSize(width, height int) {
	if width < 24 {
		width = 24
	}
	if height < 5 {
		height = 5
	}
	c.width = width
	c.height = height

	actionWidth := maxInt(18, width/3)
	detailsWidth := maxInt(width-actionWidth-4, 24)
	c.table.SetColumns([]table.Column{
		{Title: "Action", Width: actionWidth},
		{Title: "Details", Width: detailsWidth},
	})
	c.table.SetHeight(height - 3)
}

func (c *actionsColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	c.table, cmd = c.table.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		if item, ok := c.SelectedItem(); ok && !item.Disabled && c.onActivate != nil {
			cmds = append(cmds, c.onActivate(item))
		}
	}

	return c, tea.Batch(cmds...)
}

func (c *actionsColumn) View(s styles, focused bool) string {
	title := s.columnTitle.Render(c.title)
	var body string
	if len(c.items) == 0 {
		body = s.listItem.Foreground(palette.textMuted).Render("No actions available")
	} else {
		body = c.table.View()
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *actionsColumn) Title() string {
	return c.title
}

func (c *actionsColumn) FocusValue() string {
	if item, ok := c.SelectedItem(); ok {
		return item.Title
	}
	return ""
}

// detailColumn shows one record in full, with the cursor position in the
// header so the operator knows where the record sits in the filtered view.
type detailColumn struct {
	title   string
	width   int
	height  int
	view    viewport.Model
	rec     record
	hasRec  bool
	heading string
}

func newDetailColumn() *detailColumn {
	vp := viewport.New(48, 20)
	return &detailColumn{
		title: "Record",
		view:  vp,
	}
}

func (c *detailColumn) SetRecord(rec record, cols []columnDef, cursor detailCursor, s styles) {
	c.rec = rec
	c.hasRec = true
	c.heading = fmt.Sprintf("Record %d of %d", cursor.position, cursor.total)

	var b strings.Builder
	for _, col := range cols {
		if col.Field == fieldActions {
			continue
		}
		b.WriteString(s.detailLabel.Render(col.Title))
		b.WriteString("\n")
		value := cellValue(rec, col)
		if value == "" {
			value = "-"
		}
		if strings.Contains(value, "\n") || len(value) > 120 {
			value = strings.TrimRight(renderMarkdown(value), "\n")
		}
		b.WriteString(s.detailValue.Render(value))
		b.WriteString("\n\n")
	}
	if len(rec.Grants) > 0 {
		b.WriteString(s.detailLabel.Render("Access"))
		b.WriteString("\n")
		b.WriteString(s.detailValue.Render(strings.Join(rec.Grants, ", ")))
		b.WriteString("\n")
	}
	c.view.SetContent(b.String())
	c.view.GotoTop()
}

func (c *detailColumn) Clear() {
	c.hasRec = false
	c.heading = ""
	c.view.SetContent("")
}

func (c *detailColumn) SetSize(width, height int) {
	c.width = maxInt(width, 32)
	if height < 4 {
		height = 4
	}
	c.height = height
	c.view.Width = c.width - 2
	c.view.Height = height - 3
	setMarkdownWordWrap(c.view.Width)
}

func (c *detailColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmd tea.Cmd
	c.view, cmd = c.view.Update(msg)
	return c, cmd
}

func (c *detailColumn) View(s styles, focused bool) string {
	header := s.columnTitle.Render(c.title)
	if c.heading != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, s.statusHint.Render(" "+c.heading))
	}
	var body string
	if !c.hasRec {
		body = s.listItem.Foreground(palette.textMuted).Render("No record open")
	} else {
		body = c.view.View()
	}
	content := header + "\n" + body
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *detailColumn) Title() string {
	return c.title
}

func (c *detailColumn) FocusValue() string {
	if c.hasRec {
		return c.rec.ID
	}
	return ""
}

// logsColumn tails formsctl output for the active and recent jobs.
type logsColumn struct {
	title  string
	width  int
	height int
	lines  []string
	view   viewport.Model
}

func newLogsColumn() *logsColumn {
	vp := viewport.New(60, 8)
	return &logsColumn{
		title: "Logs",
		view:  vp,
	}
}

func (c *logsColumn) Append(line string) {
	c.lines = append(c.lines, line)
	if len(c.lines) > 500 {
		c.lines = c.lines[len(c.lines)-500:]
	}
	c.view.SetContent(strings.Join(c.lines, "\n"))
	c.view.GotoBottom()
}

func (c *logsColumn) SetSize(width, height int) {
	c.width = maxInt(width, 32)
	if height < 4 {
		height = 4
	}
	c.height = height
	c.view.Width = c.width - 2
	c.view.Height = height - 3
}

func (c *logsColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmd tea.Cmd
	c.view, cmd = c.view.Update(msg)
	return c, cmd
}

func (c *logsColumn) View(s styles, focused bool) string {
	header := s.columnTitle.Render(c.title)
	var body string
	if len(c.lines) == 0 {
		body = s.listItem.Foreground(palette.textMuted).Render("No job output yet")
	} else {
		body = c.view.View()
	}
	content := header + "\n" + body
	if focused {
		return s.panelFocused.Width(c.width).Render(content)
	}
	return s.panel.Width(c.width).Render(content)
}

func (c *logsColumn) Title() string {
	return c.title
}

func (c *logsColumn) FocusValue() string {
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
