package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formsLoadedMsg struct {
	forms []formInfo
	err   error
}

type formSelectedMsg struct {
	form formInfo
}

type recordToggledMsg struct {
	rec record
}

type recordActivatedMsg struct {
	rec record
}

type bulkActionChosenMsg struct {
	item bulkActionItem
}

type settingsToggleMsg struct{ field string }
type settingsMoveMsg struct {
	field string
	delta int
}
type settingsSetAllMsg struct{ visible bool }
type settingsResetMsg struct{}
type settingsApplyMsg struct{}

// stateContext carries everything one (form, record state) tab owns: the
// loaded rows, the filtered view, the multi-select set, and the effective
// column layout. Contexts are independent; switching tabs never leaks
// filter or selection state across.
type stateContext struct {
	form      formInfo
	state     recordState
	schema    *formSchema
	rows      []record
	view      []record
	filter    filterQuery
	filterRaw string
	selection map[string]bool
	effective []columnDef
	loaded    bool
	loading   bool
	// generation tags the in-flight fetch; stale completions are dropped
	generation int
}

func (ctx *stateContext) selectedRecords() []record {
	var out []record
	for _, rec := range ctx.view {
		if ctx.selection[rec.ID] {
			out = append(out, rec)
		}
	}
	return out
}

func (ctx *stateContext) refreshView() {
	ctx.view = applyFilter(ctx.rows, ctx.effective, ctx.filter)
	for id := range ctx.selection {
		if _, ok := recordPosition(ctx.view, id); !ok {
			delete(ctx.selection, id)
		}
	}
}

type model struct {
	width  int
	height int

	styles styles
	keys   keyMap
	help   help.Model

	markdownTheme markdownTheme

	store     *dataStore
	users     *userCache
	cfg       *uiConfig
	cfgPath   string
	telemetry *telemetryLogger
	prefs     *columnPrefStore
	jobs      *jobManager
	lang      string

	forms              []formInfo
	currentForm        *formInfo
	currentState       recordState
	contexts           map[string]*stateContext
	pendingInitialForm string

	formsCol    *formsColumn
	subsCol     *submissionsColumn
	settingsCol *settingsColumn
	actionsCol  *actionsColumn
	detailCol   *detailColumn
	logsCol     *logsColumn
	columns     []column
	focus       int

	showSettings bool
	showActions  bool
	showDetail   bool
	showLogs     bool
	logsHeight   int

	settingsDraft *columnSettings

	filterActive bool
	filterInput  textinput.Model

	cursor  detailCursor
	address addressPath

	exportFormatIdx int

	toastMessage string
	toastError   bool
	toastExpires time.Time
}

type modelOptions struct {
	dataPath    string
	theme       string
	userID      string
	initialForm string
}

func newModel(opts modelOptions) (*model, error) {
	store, err := openDataStore(opts.dataPath)
	if err != nil {
		return nil, err
	}

	cfg, cfgPath := loadUIConfig()
	theme := opts.theme
	if strings.TrimSpace(theme) == "" {
		theme = cfg.Theme
	}
	setMarkdownTheme(markdownThemeFromString(theme))

	userID := resolveTelemetryUserID(firstNonEmpty(opts.userID, cfg.UserID))
	sessionID := newTelemetrySessionID()
	telemetry := newTelemetryLogger(filepath.Join(resolveConfigDir(), "events.ndjson"), sessionID, userID)

	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = "en"
	}

	s := newStyles()
	m := &model{
		styles:        s,
		keys:          newKeyMap(),
		help:          help.New(),
		markdownTheme: markdownThemeFromString(theme),
		store:         store,
		cfg:           cfg,
		cfgPath:       cfgPath,
		telemetry:     telemetry,
		jobs:          newJobManager(),
		lang:          lang,
		contexts:      map[string]*stateContext{},
		showLogs:      false,
		logsHeight:    8,
	}
	m.users = newUserCache(store.UserName)
	m.prefs = newColumnPrefStore(store, userID, telemetry)

	m.help.ShortSeparator = " │ "
	m.help.Styles.ShortKey = s.statusHint.Copy()
	m.help.Styles.ShortDesc = s.statusHint.Copy()
	m.help.Styles.ShortSeparator = s.statusSeg.Copy()
	m.help.Styles.FullKey = s.statusHint.Copy()
	m.help.Styles.FullDesc = s.statusHint.Copy()
	m.help.Styles.FullSeparator = s.statusSeg.Copy()

	m.filterInput = textinput.New()
	m.filterInput.Prompt = "/ "
	m.filterInput.CharLimit = 256

	m.formsCol = newFormsColumn("Forms", lang, s)
	m.formsCol.SetCallbacks(
		func(form formInfo) tea.Cmd {
			return func() tea.Msg { return formSelectedMsg{form: form} }
		},
		nil,
	)
	m.subsCol = newSubmissionsColumn("Submissions")
	m.subsCol.SetCallbacks(
		nil,
		func(rec record) tea.Cmd {
			return func() tea.Msg { return recordToggledMsg{rec: rec} }
		},
		func(rec record) tea.Cmd {
			return func() tea.Msg { return recordActivatedMsg{rec: rec} }
		},
	)
	m.settingsCol = newSettingsColumn(s)
	m.settingsCol.SetCallbacks(
		func(field string) tea.Cmd {
			return func() tea.Msg { return settingsToggleMsg{field: field} }
		},
		func(field string, delta int) tea.Cmd {
			return func() tea.Msg { return settingsMoveMsg{field: field, delta: delta} }
		},
		func(visible bool) tea.Cmd {
			return func() tea.Msg { return settingsSetAllMsg{visible: visible} }
		},
		func() tea.Cmd {
			return func() tea.Msg { return settingsResetMsg{} }
		},
		func() tea.Cmd {
			return func() tea.Msg { return settingsApplyMsg{} }
		},
	)
	m.actionsCol = newActionsColumn()
	m.actionsCol.SetActivateFunc(func(item bulkActionItem) tea.Cmd {
		return func() tea.Msg { return bulkActionChosenMsg{item: item} }
	})
	m.detailCol = newDetailColumn()
	m.logsCol = newLogsColumn()

	m.columns = []column{m.formsCol, m.subsCol}
	m.focus = 0
	m.address.SetBase("forms")

	if strings.TrimSpace(opts.initialForm) == "" {
		opts.initialForm = cfg.DefaultForm
	}
	m.pendingInitialForm = strings.TrimSpace(opts.initialForm)

	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (m *model) Init() tea.Cmd {
	return m.loadFormsCmd()
}

func (m *model) loadFormsCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		forms, err := store.Forms()
		return formsLoadedMsg{forms: forms, err: err}
	}
}

func ctxKey(form string, state recordState) string {
	return form + "\x00" + string(state)
}

func (m *model) ctx() *stateContext {
	if m.currentForm == nil {
		return nil
	}
	return m.contexts[ctxKey(m.currentForm.Name, m.currentState)]
}

func (m *model) ensureContext(form formInfo, state recordState) *stateContext {
	key := ctxKey(form.Name, state)
	if ctx, ok := m.contexts[key]; ok {
		return ctx
	}
	ctx := &stateContext{
		form:      form,
		state:     state,
		schema:    form.Schema(),
		selection: map[string]bool{},
	}
	m.contexts[key] = ctx
	return ctx
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.filterActive {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.filterActive = false
				m.filterInput.Blur()
				return m, nil
			case "enter":
				raw := m.filterInput.Value()
				m.filterActive = false
				m.filterInput.Blur()
				if cmd := m.applyFilterInput(raw); cmd != nil {
					cmds = append(cmds, cmd)
				}
				return m, tea.Batch(cmds...)
			}
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = message.Width, message.Height
		m.applyLayout()
		return m, nil
	case tea.KeyMsg:
		if handled, cmd := m.handleGlobalKey(message); handled {
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	if m.focus >= 0 && m.focus < len(m.columns) {
		col := m.columns[m.focus]
		var cmd tea.Cmd
		m.columns[m.focus], cmd = col.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch message := msg.(type) {
	case formsLoadedMsg:
		if cmd := m.handleFormsLoaded(message); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case formSelectedMsg:
		if cmd := m.openForm(message.form); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case submissionsLoadedMsg:
		m.handleSubmissionsLoaded(message)
	case recordToggledMsg:
		m.handleRecordToggled(message.rec)
	case recordActivatedMsg:
		m.openDetail(message.rec)
	case settingsToggleMsg:
		if m.settingsDraft != nil {
			m.settingsDraft.ToggleVisibility(message.field)
			m.refreshSettingsColumn()
		}
	case settingsMoveMsg:
		if m.settingsDraft != nil {
			m.settingsDraft.Move(message.field, message.delta)
			m.refreshSettingsColumn()
		}
	case settingsSetAllMsg:
		if m.settingsDraft != nil {
			m.settingsDraft.SetAllVisibility(message.visible)
			m.refreshSettingsColumn()
		}
	case settingsResetMsg:
		if cmd := m.handleSettingsReset(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case settingsApplyMsg:
		m.applySettings()
	case bulkActionChosenMsg:
		if cmd := m.runBulkAction(message.item); cmd != nil {
			cmds = append(cmds, cmd)
		}
	case exportDoneMsg:
		m.handleExportDone(message)
	case jobMsg:
		if logMsg, ok := message.(jobLogMsg); ok {
			m.logsCol.Append(logMsg.Line)
		}
		if cmd := m.jobs.Handle(message); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	m.applyLayout()
	return m, tea.Batch(cmds...)
}

func (m *model) handleFormsLoaded(msg formsLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.setToast("Failed to load forms: "+msg.err.Error(), true, 6*time.Second)
		return nil
	}
	m.forms = msg.forms
	m.formsCol.SetForms(m.forms, m.cfg)
	if m.pendingInitialForm != "" {
		name := m.pendingInitialForm
		m.pendingInitialForm = ""
		for _, form := range m.forms {
			if form.Name == name {
				m.formsCol.SelectForm(name)
				return m.openForm(form)
			}
		}
	}
	return nil
}

func (m *model) openForm(form formInfo) tea.Cmd {
	m.currentForm = &form
	states := form.States
	if len(states) == 0 {
		states = recordStates
	}
	m.currentState = states[0]
	m.closePanes()
	m.address.SetBase("forms", form.Name, string(m.currentState))
	m.focus = m.columnIndex(m.subsCol)
	m.telemetry.Emit(telemetryEvent{Event: "form_opened", Form: form.Name, State: string(m.currentState)})
	return m.loadCurrentState()
}

func (m *model) switchState(delta int) tea.Cmd {
	if m.currentForm == nil {
		return nil
	}
	states := m.currentForm.States
	if len(states) < 2 {
		return nil
	}
	idx := 0
	for i, state := range states {
		if state == m.currentState {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(states)) % len(states)
	m.currentState = states[idx]
	m.closePanes()
	m.address.SetBase("forms", m.currentForm.Name, string(m.currentState))
	m.telemetry.Emit(telemetryEvent{Event: "state_switched", Form: m.currentForm.Name, State: string(m.currentState)})
	return m.loadCurrentState()
}

func (m *model) loadCurrentState() tea.Cmd {
	if m.currentForm == nil {
		return nil
	}
	ctx := m.ensureContext(*m.currentForm, m.currentState)
	ctx.generation++
	ctx.loading = true
	m.subsCol.SetLoading(true)
	m.syncTable(ctx)
	return loadSubmissionsCmd(m.store, m.users, ctx.form.Name, ctx.state, ctx.generation)
}

func (m *model) handleSubmissionsLoaded(msg submissionsLoadedMsg) {
	ctx, ok := m.contexts[ctxKey(msg.form, msg.state)]
	if !ok || msg.generation != ctx.generation {
		return
	}
	ctx.loading = false
	if msg.err != nil {
		m.setToast("Load failed: "+msg.err.Error(), true, 6*time.Second)
		if ctx == m.ctx() {
			m.subsCol.SetLoading(false)
		}
		return
	}
	ctx.rows = msg.records
	ctx.loaded = true
	m.deriveEffectiveColumns(ctx)
	ctx.refreshView()
	if ctx == m.ctx() {
		m.subsCol.SetLoading(false)
		m.syncTable(ctx)
		m.resyncDetail(ctx)
		if m.showActions {
			m.refreshActions(ctx)
		}
	}
}

// deriveEffectiveColumns rebuilds the live column layout for a context and
// merges any stored preference onto it.
func (m *model) deriveEffectiveColumns(ctx *stateContext) {
	live := deriveColumns(ctx.schema, sampleRecord(ctx.rows), m.lang)
	if merged, ok := m.prefs.Load(ctx.form.Name, ctx.state, live); ok {
		ctx.effective = merged
		return
	}
	ctx.effective = live
}

func sampleRecord(rows []record) *record {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

func (m *model) syncTable(ctx *stateContext) {
	if ctx == nil {
		return
	}
	m.subsCol.SetData(ctx.effective, ctx.view, ctx.selection)
}

func (m *model) handleRecordToggled(rec record) {
	ctx := m.ctx()
	if ctx == nil {
		return
	}
	if ctx.selection[rec.ID] {
		delete(ctx.selection, rec.ID)
	} else {
		ctx.selection[rec.ID] = true
	}
	m.syncTable(ctx)
	m.subsCol.SelectID(rec.ID)
	if m.showActions {
		m.refreshActions(ctx)
	}
}

func (m *model) applyFilterInput(raw string) tea.Cmd {
	ctx := m.ctx()
	if ctx == nil {
		return nil
	}
	ctx.filterRaw = raw
	ctx.filter = parseFilterInput(raw)
	ctx.refreshView()
	m.syncTable(ctx)
	m.resyncDetail(ctx)
	if m.showActions {
		m.refreshActions(ctx)
	}
	m.telemetry.Emit(telemetryEvent{
		Event: "filter_applied",
		Form:  ctx.form.Name,
		State: string(ctx.state),
		Extra: map[string]string{"query": ctx.filter.Describe()},
	})
	return nil
}

func (m *model) clearFilter() {
	ctx := m.ctx()
	if ctx == nil || !ctx.filter.Active() {
		return
	}
	ctx.filter = filterQuery{}
	ctx.filterRaw = ""
	ctx.refreshView()
	m.syncTable(ctx)
	m.resyncDetail(ctx)
	m.setToast("Filter cleared", false, 3*time.Second)
}

// openSettings snapshots the effective columns into an uncommitted draft.
// Nothing lands until the operator confirms.
func (m *model) openSettings() {
	ctx := m.ctx()
	if ctx == nil || !ctx.loaded {
		return
	}
	hasDefaults := ctx.schema.HasVisibilityDefaults()
	derive := func() []columnDef {
		return deriveColumns(ctx.schema, sampleRecord(ctx.rows), m.lang)
	}
	m.settingsDraft = newColumnSettings(ctx.effective, derive, hasDefaults)
	m.showSettings = true
	m.showActions = false
	m.refreshSettingsColumn()
	m.rebuildColumns()
	m.focus = m.columnIndex(m.settingsCol)
}

func (m *model) refreshSettingsColumn() {
	if m.settingsDraft == nil {
		return
	}
	m.settingsCol.SetColumns(m.settingsDraft.Columns(), m.settingsDraft.CanReset())
}

func (m *model) handleSettingsReset() tea.Cmd {
	ctx := m.ctx()
	if ctx == nil || m.settingsDraft == nil {
		return nil
	}
	if !m.settingsDraft.ResetToSchemaDefault() {
		return nil
	}
	m.refreshSettingsColumn()
	if err := m.prefs.Clear(ctx.form.Name, ctx.state); err != nil {
		m.setToast("Could not clear stored preference: "+err.Error(), true, 5*time.Second)
		return nil
	}
	m.telemetry.Emit(telemetryEvent{Event: "columns_reset", Form: ctx.form.Name, State: string(ctx.state)})
	m.setToast("Columns reset to form defaults", false, 3*time.Second)
	return nil
}

func (m *model) applySettings() {
	ctx := m.ctx()
	if ctx == nil || m.settingsDraft == nil {
		return
	}
	ctx.effective = m.settingsDraft.Columns()
	if err := m.prefs.Save(ctx.form.Name, ctx.state, ctx.effective); err != nil {
		m.setToast("Could not save columns: "+err.Error(), true, 5*time.Second)
	} else {
		m.telemetry.Emit(telemetryEvent{Event: "columns_saved", Form: ctx.form.Name, State: string(ctx.state)})
		m.setToast("Column layout saved", false, 3*time.Second)
	}
	ctx.refreshView()
	m.closeSettings()
	m.syncTable(ctx)
}

func (m *model) closeSettings() {
	m.showSettings = false
	m.settingsDraft = nil
	m.rebuildColumns()
	m.focus = m.columnIndex(m.subsCol)
}

func (m *model) openActions() {
	ctx := m.ctx()
	if ctx == nil || !ctx.loaded {
		return
	}
	m.showActions = true
	m.showSettings = false
	m.settingsDraft = nil
	m.refreshActions(ctx)
	m.rebuildColumns()
	m.focus = m.columnIndex(m.actionsCol)
}

func (m *model) refreshActions(ctx *stateContext) {
	items := evaluateBulkActions(ctx.selectedRecords(), ctx.view)
	if !anyActionEnabled(items) {
		items = nil
	}
	m.actionsCol.SetItems(items)
}

func (m *model) runBulkAction(item bulkActionItem) tea.Cmd {
	ctx := m.ctx()
	if ctx == nil || item.Disabled {
		return nil
	}
	m.showActions = false
	m.rebuildColumns()
	m.focus = m.columnIndex(m.subsCol)

	m.telemetry.Emit(telemetryEvent{
		Event: "bulk_action",
		Form:  ctx.form.Name,
		State: string(ctx.state),
		Extra: map[string]string{"action": string(item.Action)},
	})

	switch item.Action {
	case actionDeleteSelected:
		return m.enqueueDelete(ctx, recordIDs(ctx.selectedRecords()))
	case actionDeleteAll:
		return m.enqueueDelete(ctx, recordIDs(ctx.view))
	case actionEdit:
		selected := ctx.selectedRecords()
		if len(selected) != 1 {
			return nil
		}
		return m.enqueueFormsctl(ctx, "Edit "+selected[0].ID,
			[]string{"submissions", "edit", "--form", ctx.form.Name, selected[0].ID}, nil)
	case actionEditGrants:
		selected := ctx.selectedRecords()
		if len(selected) != 1 {
			return nil
		}
		return m.enqueueFormsctl(ctx, "Edit permissions "+selected[0].ID,
			[]string{"submissions", "grants", "--form", ctx.form.Name, selected[0].ID}, nil)
	}
	return nil
}

func recordIDs(records []record) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}

// enqueueDelete runs one formsctl delete over the target ids. Per-id results
// come back on the job's output protocol: succeeded ids leave the local
// cache, failed ids stay selected so the operator can retry.
func (m *model) enqueueDelete(ctx *stateContext, ids []string) tea.Cmd {
	if len(ids) == 0 {
		return nil
	}
	args := append([]string{"submissions", "delete", "--form", ctx.form.Name, "--state", string(ctx.state)}, ids...)
	title := fmt.Sprintf("Delete %d record(s)", len(ids))
	return m.enqueueFormsctl(ctx, title, args, func(result jobResult) tea.Cmd {
		for _, id := range result.Succeeded {
			_ = m.store.DeleteSubmission(id)
			delete(ctx.selection, id)
		}
		ctx.selection = map[string]bool{}
		for id, reason := range result.Failed {
			ctx.selection[id] = true
			m.logsCol.Append(fmt.Sprintf("failed %s: %s", id, reason))
		}
		switch {
		case result.Err != nil && len(result.Succeeded) == 0:
			m.setToast("Delete failed: "+result.Err.Error(), true, 6*time.Second)
		case len(result.Failed) > 0:
			m.setToast(fmt.Sprintf("Deleted %d, %d failed (kept selected)", len(result.Succeeded), len(result.Failed)), true, 6*time.Second)
		default:
			m.setToast(fmt.Sprintf("Deleted %d record(s)", len(result.Succeeded)), false, 4*time.Second)
		}
		if ctx == m.ctx() {
			return m.loadCurrentState()
		}
		return nil
	})
}

func (m *model) enqueueFormsctl(ctx *stateContext, title string, args []string, onFinish func(jobResult) tea.Cmd) tea.Cmd {
	if onFinish == nil {
		onFinish = func(result jobResult) tea.Cmd {
			if result.Err != nil {
				m.setToast(title+" failed: "+result.Err.Error(), true, 6*time.Second)
				return nil
			}
			m.setToast(title+" done", false, 4*time.Second)
			if ctx == m.ctx() {
				return m.loadCurrentState()
			}
			return nil
		}
	}
	m.logsCol.Append("$ " + m.cfg.ResolvedFormsctl() + " " + strings.Join(args, " "))
	return m.jobs.Enqueue(jobRequest{
		title:    title,
		command:  m.cfg.ResolvedFormsctl(),
		args:     args,
		onFinish: onFinish,
	})
}

func (m *model) openDetail(rec record) {
	ctx := m.ctx()
	if ctx == nil {
		return
	}
	position, ok := recordPosition(ctx.view, rec.ID)
	if !ok {
		return
	}
	if !m.cursor.Open(ctx.state, position, len(ctx.view)) {
		return
	}
	m.address.OpenDetail(rec.ID)
	m.detailCol.SetRecord(rec, ctx.effective, m.cursor, m.styles)
	m.showDetail = true
	m.rebuildColumns()
	m.focus = m.columnIndex(m.detailCol)
	m.telemetry.Emit(telemetryEvent{
		Event: "detail_opened",
		Form:  ctx.form.Name,
		State: string(ctx.state),
		Extra: map[string]string{"record": rec.ID},
	})
}

func (m *model) navigateDetail(delta int) {
	ctx := m.ctx()
	if ctx == nil || !m.cursor.IsOpen() {
		return
	}
	moved := false
	if delta > 0 {
		moved = m.cursor.Next()
	} else {
		moved = m.cursor.Previous()
	}
	if !moved {
		return
	}
	rec := ctx.view[m.cursor.position-1]
	m.address.OpenDetail(rec.ID)
	m.detailCol.SetRecord(rec, ctx.effective, m.cursor, m.styles)
	m.subsCol.SelectID(rec.ID)
}

func (m *model) closeDetail() {
	m.cursor.Close()
	m.address.CloseDetail()
	m.detailCol.Clear()
	m.showDetail = false
	m.rebuildColumns()
	m.focus = m.columnIndex(m.subsCol)
}

// resyncDetail keeps an open detail pane honest after the view changed
// underneath it: the cursor clamps to the new bounds or closes when the
// view emptied.
func (m *model) resyncDetail(ctx *stateContext) {
	if !m.cursor.IsOpen() {
		return
	}
	m.cursor.Resync(len(ctx.view))
	if !m.cursor.IsOpen() {
		m.closeDetail()
		return
	}
	rec := ctx.view[m.cursor.position-1]
	m.address.OpenDetail(rec.ID)
	m.detailCol.SetRecord(rec, ctx.effective, m.cursor, m.styles)
}

func (m *model) closePanes() {
	m.showSettings = false
	m.settingsDraft = nil
	m.showActions = false
	if m.showDetail {
		m.closeDetail()
	}
	m.rebuildColumns()
}

func (m *model) rebuildColumns() {
	cols := []column{m.formsCol, m.subsCol}
	switch {
	case m.showSettings:
		cols = append(cols, m.settingsCol)
	case m.showActions:
		cols = append(cols, m.actionsCol)
	case m.showDetail:
		cols = append(cols, m.detailCol)
	}
	m.columns = cols
	if m.focus >= len(m.columns) {
		m.focus = len(m.columns) - 1
	}
	m.applyLayout()
}

func (m *model) columnIndex(target column) int {
	for i, col := range m.columns {
		if col == target {
			return i
		}
	}
	return 0
}

func (m *model) exportCurrent() tea.Cmd {
	ctx := m.ctx()
	if ctx == nil || !ctx.loaded {
		return nil
	}
	format := exportFormats[m.exportFormatIdx%len(exportFormats)]
	m.telemetry.Emit(telemetryEvent{
		Event: "export",
		Form:  ctx.form.Name,
		State: string(ctx.state),
		Extra: map[string]string{"format": string(format), "rows": fmt.Sprintf("%d", len(ctx.view))},
	})
	m.setToast(fmt.Sprintf("Exporting %d record(s) as %s…", len(ctx.view), format), false, 4*time.Second)
	return exportCmd(m.cfg.ResolvedExportDir(), format, ctx.form.Name, ctx.state, ctx.effective, ctx.view)
}

func (m *model) handleExportDone(msg exportDoneMsg) {
	if msg.err != nil {
		m.setToast("Export failed: "+msg.err.Error(), true, 6*time.Second)
		return
	}
	m.setToast(fmt.Sprintf("Exported %d record(s) to %s", msg.count, msg.path), false, 6*time.Second)
}

func (m *model) copyToClipboard(value, what string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if err := clipboard.WriteAll(value); err != nil {
		m.setToast("Copy failed: "+err.Error(), true, 4*time.Second)
		return
	}
	m.setToast("Copied "+what, false, 3*time.Second)
}

func (m *model) togglePinnedForm() {
	form, ok := m.formsCol.SelectedInfo()
	if !ok {
		return
	}
	m.cfg.TogglePinned(form.Name)
	if err := saveUIConfig(m.cfg, m.cfgPath); err != nil {
		m.setToast("Could not save config: "+err.Error(), true, 4*time.Second)
	}
	m.formsCol.SetForms(m.forms, m.cfg)
	m.formsCol.SelectForm(form.Name)
}

func (m *model) cycleTheme() {
	m.markdownTheme = nextMarkdownTheme(m.markdownTheme)
	setMarkdownTheme(m.markdownTheme)
	m.cfg.Theme = m.markdownTheme.String()
	_ = saveUIConfig(m.cfg, m.cfgPath)
	m.setToast("Theme: "+m.markdownTheme.String(), false, 3*time.Second)
	if m.showDetail {
		if ctx := m.ctx(); ctx != nil && m.cursor.IsOpen() {
			m.detailCol.SetRecord(ctx.view[m.cursor.position-1], ctx.effective, m.cursor, m.styles)
		}
	}
}

func (m *model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	focused := m.focusedColumn()
	tableFocus := focused == m.subsCol || focused == m.formsCol

	switch {
	case key.Matches(msg, m.keys.closePane):
		switch {
		case m.showDetail:
			m.closeDetail()
			return true, nil
		case m.showSettings:
			m.closeSettings()
			return true, nil
		case m.showActions:
			m.showActions = false
			m.rebuildColumns()
			m.focus = m.columnIndex(m.subsCol)
			return true, nil
		}
		return false, nil
	case key.Matches(msg, m.keys.quit) && tableFocus:
		return true, tea.Quit
	case key.Matches(msg, m.keys.nextFocus):
		m.focus = (m.focus + 1) % len(m.columns)
		return true, nil
	case key.Matches(msg, m.keys.prevFocus):
		m.focus = (m.focus - 1 + len(m.columns)) % len(m.columns)
		return true, nil
	case key.Matches(msg, m.keys.nextState):
		return true, m.switchState(1)
	case key.Matches(msg, m.keys.prevState):
		return true, m.switchState(-1)
	case key.Matches(msg, m.keys.filter) && tableFocus:
		if ctx := m.ctx(); ctx != nil {
			m.filterActive = true
			m.filterInput.SetValue(ctx.filterRaw)
			m.filterInput.Focus()
		}
		return true, nil
	case key.Matches(msg, m.keys.clearFilter):
		m.clearFilter()
		return true, nil
	case key.Matches(msg, m.keys.settings) && tableFocus:
		m.openSettings()
		return true, nil
	case key.Matches(msg, m.keys.actions) && tableFocus:
		m.openActions()
		return true, nil
	case key.Matches(msg, m.keys.export) && tableFocus:
		return true, m.exportCurrent()
	case msg.String() == "E" && tableFocus:
		m.exportFormatIdx = (m.exportFormatIdx + 1) % len(exportFormats)
		m.setToast("Export format: "+string(exportFormats[m.exportFormatIdx]), false, 3*time.Second)
		return true, nil
	case key.Matches(msg, m.keys.copyID) && focused == m.subsCol:
		if rec, ok := m.subsCol.SelectedRecord(); ok {
			m.copyToClipboard(rec.ID, "record id")
		}
		return true, nil
	case key.Matches(msg, m.keys.copyRow) && focused == m.subsCol:
		if rec, ok := m.subsCol.SelectedRecord(); ok {
			if ctx := m.ctx(); ctx != nil {
				var cells []string
				for _, col := range visibleColumns(ctx.effective) {
					cells = append(cells, cellValue(rec, col))
				}
				m.copyToClipboard(strings.Join(cells, "\t"), "row")
			}
		}
		return true, nil
	case key.Matches(msg, m.keys.togglePin) && focused == m.formsCol:
		m.togglePinnedForm()
		return true, nil
	case key.Matches(msg, m.keys.nextRecord) && m.showDetail:
		m.navigateDetail(1)
		return true, nil
	case key.Matches(msg, m.keys.prevRecord) && m.showDetail:
		m.navigateDetail(-1)
		return true, nil
	case key.Matches(msg, m.keys.refresh):
		return true, m.loadCurrentState()
	case key.Matches(msg, m.keys.toggleLogs):
		m.showLogs = !m.showLogs
		m.applyLayout()
		return true, nil
	case key.Matches(msg, m.keys.toggleTheme):
		m.cycleTheme()
		return true, nil
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.applyLayout()
		return true, nil
	}
	return false, nil
}

func (m *model) focusedColumn() column {
	if m.focus < 0 || m.focus >= len(m.columns) {
		return nil
	}
	return m.columns[m.focus]
}

func (m *model) applyLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	topChrome := 2 // title bar + state tabs
	bottomChrome := 2
	helpWidth := m.width - 4
	if helpWidth < 0 {
		helpWidth = 0
	}
	m.help.Width = helpWidth
	if helpView := m.help.View(m.keys); helpView != "" {
		bottomChrome += lipgloss.Height(helpView)
	}

	bodyHeight := m.height - topChrome - bottomChrome
	if m.showLogs {
		bodyHeight -= m.logsHeight
	}
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	formsWidth := 30
	if m.width < 90 {
		formsWidth = 24
	}
	remaining := m.width - formsWidth - 2
	widths := []int{formsWidth}
	if len(m.columns) > 2 {
		right := remaining * 2 / 5
		if right < 32 {
			right = 32
		}
		widths = append(widths, maxInt(remaining-right, 40), right)
	} else {
		widths = append(widths, maxInt(remaining, 40))
	}

	for i, col := range m.columns {
		w := widths[len(widths)-1]
		if i < len(widths) {
			w = widths[i]
		}
		col.SetSize(w, bodyHeight)
		m.columns[i] = col
	}
	if m.showLogs {
		m.logsCol.SetSize(m.width-2, m.logsHeight)
	}
}

func (m *model) View() string {
	var builder strings.Builder

	title := "formdeck"
	if m.currentForm != nil {
		title += " • " + m.currentForm.DisplayTitle(m.lang)
	}
	title += " • " + m.address.String()
	builder.WriteString(m.styles.topBar.Width(m.width).Render(title))
	builder.WriteRune('\n')

	builder.WriteString(m.renderStateTabs())
	builder.WriteRune('\n')

	var colViews []string
	for i, col := range m.columns {
		colViews = append(colViews, col.View(m.styles, i == m.focus))
	}
	builder.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, colViews...))
	builder.WriteRune('\n')

	if m.showLogs {
		builder.WriteString(m.logsCol.View(m.styles, false))
		builder.WriteRune('\n')
	}

	if m.filterActive {
		prompt := m.styles.filterPrompt.Render("Filter") + " " + m.filterInput.View() + "\n" +
			m.styles.filterHint.Render("value | op:value | field:op:value (enter apply, esc cancel)")
		builder.WriteString(prompt)
		builder.WriteRune('\n')
	}

	if helpView := m.help.View(m.keys); helpView != "" {
		builder.WriteString(helpView)
		if !strings.HasSuffix(helpView, "\n") {
			builder.WriteRune('\n')
		}
	}

	builder.WriteString(m.renderStatus())
	return m.styles.app.Render(builder.String())
}

func (m *model) renderStateTabs() string {
	if m.currentForm == nil {
		return m.styles.tabsRow.Width(m.width).Render(m.styles.statusHint.Render("Select a form to begin"))
	}
	states := m.currentForm.States
	if len(states) == 0 {
		states = recordStates
	}
	var tabs []string
	for _, state := range states {
		label := state.Label()
		if ctx, ok := m.contexts[ctxKey(m.currentForm.Name, state)]; ok && ctx.loaded {
			label = fmt.Sprintf("%s (%d)", label, len(ctx.view))
		}
		if state == m.currentState {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tabInactive.Render(label))
		}
	}
	return m.styles.tabsRow.Width(m.width).Render(strings.Join(tabs, " "))
}

func (m *model) renderStatus() string {
	focused := m.focusedColumn()
	segments := []string{}
	if focused != nil {
		value := strings.TrimSpace(focused.FocusValue())
		if value == "" {
			value = "-"
		}
		segments = append(segments, m.styles.statusSeg.Render(fmt.Sprintf("%s: %s", focused.Title(), value)))
	}
	if ctx := m.ctx(); ctx != nil {
		if ctx.filter.Active() {
			segments = append(segments, m.styles.statusSeg.Render("Filter: "+ctx.filter.Describe()))
		}
		if n := len(ctx.selection); n > 0 {
			segments = append(segments, m.styles.statusSeg.Render(fmt.Sprintf("Selected: %d", n)))
		}
	}
	if m.jobs.Busy() {
		segments = append(segments, m.styles.statusSeg.Render("Job running"))
	}
	segments = append(segments, m.styles.statusSeg.Render("Export: "+string(exportFormats[m.exportFormatIdx%len(exportFormats)])))
	if m.toastMessage != "" {
		if time.Now().After(m.toastExpires) {
			m.toastMessage = ""
		} else if m.toastError {
			segments = append(segments, m.styles.toastError.Render(m.toastMessage))
		} else {
			segments = append(segments, m.styles.toast.Render(m.toastMessage))
		}
	}
	return m.styles.statusBar.Width(m.width).Render(strings.Join(segments, "│"))
}

func (m *model) setToast(msg string, isError bool, duration time.Duration) {
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		m.toastMessage = ""
		m.toastExpires = time.Time{}
		return
	}
	if duration <= 0 {
		duration = 5 * time.Second
	}
	m.toastMessage = trimmed
	m.toastError = isError
	m.toastExpires = time.Now().Add(duration)
}
