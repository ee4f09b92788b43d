package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"thatmon/internal/api"
	"thatmon/internal/i18n"
	"thatmon/internal/models"
	"thatmon/internal/monitor"
	"thatmon/internal/storage"
	"thatmon/internal/stream"
	"thatmon/internal/tokenizer"
)

// PanelID 面板标识
// PanelID identifies a panel
type PanelID int

const (
	PanelProjects PanelID = iota
	PanelTasks
	PanelSubtasks
	PanelLogs
	panelCount
)

// --- Tea Messages ---

// MonitorMsg 把 monitor 消息带入 Bubble Tea 循环
// MonitorMsg carries a monitor message into the Bubble Tea loop
type MonitorMsg struct{ Msg monitor.Msg }

// TokensMsg 日志缓冲的 token 计数
// TokensMsg carries the token count of a log buffer revision
type TokensMsg struct {
	Revision uint64
	Size     int
	Tokens   int
}

// ModelsMsg 模型目录加载结果
// ModelsMsg carries the model catalog
type ModelsMsg struct {
	Models []models.Model
	Err    error
}

// ArchivedMsg 日志归档结果
// ArchivedMsg reports a log archive write
type ArchivedMsg struct {
	Entry storage.Entry
	Err   error
}

// Options TUI 可选依赖，均可为空
// Options holds optional TUI dependencies; all may be nil
type Options struct {
	Archive storage.Archive
	Catalog *models.Catalog
	Counter *tokenizer.Counter
	Theme   string
	Server  string
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	// 布局 / Layout
	width  int
	height int

	// 面板 / Panels
	activePanel PanelID
	cursors     [panelCount]int
	logsView    viewport.Model

	// 输入 / Manual prompt
	input      textarea.Model
	prompting  bool
	promptMode string

	// 配置面板 / Config pane
	configOpen bool
	models     []models.Model
	draftModel string

	// 状态 / State
	ctx    context.Context
	mon    *monitor.Monitor
	view   monitor.View
	tokens int
	flash  string

	archive storage.Archive
	catalog *models.Catalog
	counter *tokenizer.Counter
	server  string

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application around mon
func NewApp(ctx context.Context, mon *monitor.Monitor, opts Options) App {
	ta := textarea.New()
	ta.CharLimit = 8192
	ta.ShowLineNumbers = false
	ta.SetHeight(3)

	a := App{
		activePanel: PanelProjects,
		logsView:    viewport.New(80, 10),
		input:       ta,
		ctx:         ctx,
		mon:         mon,
		archive:     opts.Archive,
		catalog:     opts.Catalog,
		counter:     opts.Counter,
		server:      opts.Server,
		theme:       ThemeByName(opts.Theme),
		keys:        DefaultKeyMap(),
		locale:      i18n.Global(),
	}
	a.sync()
	return a
}

func (a App) Init() tea.Cmd {
	return lift(a.ctx, a.mon.Refresh(false))
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case MonitorMsg:
		cmd := lift(a.ctx, a.mon.Update(msg.Msg))
		refresh := a.sync()
		return a, tea.Batch(cmd, refresh)

	case TokensMsg:
		// 只接受当前缓冲的计数 / Only the current buffer's count is kept
		if msg.Revision == a.view.LogRevision && msg.Size == len(a.view.Logs) {
			a.tokens = msg.Tokens
		}
		return a, nil

	case ModelsMsg:
		if msg.Err != nil {
			a.flash = msg.Err.Error()
			return a, nil
		}
		a.models = msg.Models
		return a, nil

	case ArchivedMsg:
		if msg.Err != nil {
			a.flash = msg.Err.Error()
		} else {
			a.flash = a.locale.T("logs.archived", msg.Entry.ID)
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			return a, tea.Quit
		case a.prompting:
			return a.updatePrompt(msg)
		case a.configOpen:
			return a.updateConfig(msg)
		}
		return a.updateKeys(msg)
	}

	if a.prompting {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := a.keys
	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	case key.Matches(msg, k.SwitchPanel):
		a.activePanel = (a.activePanel + 1) % panelCount
		return a, nil
	case key.Matches(msg, k.Cancel):
		a.flash = ""
		a.mon.ClearError()
		a.view = a.mon.View()
		return a, nil
	case a.activePanel != PanelLogs && key.Matches(msg, k.Up):
		a.move(-1)
		return a, nil
	case a.activePanel != PanelLogs && key.Matches(msg, k.Down):
		a.move(1)
		return a, nil
	case key.Matches(msg, k.Select):
		return a.selectCurrent()
	case key.Matches(msg, k.Refresh):
		return a, lift(a.ctx, a.mon.Refresh(true))
	case key.Matches(msg, k.Stop):
		return a.act(a.mon.Stop)
	case key.Matches(msg, k.Restart):
		return a.act(a.mon.Restart)
	case key.Matches(msg, k.Delete):
		return a.act(a.mon.Delete)
	case key.Matches(msg, k.Toggle):
		return a.act(a.mon.ToggleEnabled)
	case key.Matches(msg, k.Reconnect):
		a.mon.ReconnectLogs()
		refresh := a.sync()
		return a, refresh
	case key.Matches(msg, k.Archive):
		return a.archiveLogs()
	case key.Matches(msg, k.Manual):
		return a.openPrompt()
	case key.Matches(msg, k.Config):
		return a.openConfig()
	}

	if a.activePanel == PanelLogs {
		var cmd tea.Cmd
		a.logsView, cmd = a.logsView.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.closePrompt()
		return a, nil
	case key.Matches(msg, a.keys.SwitchMode):
		if a.promptMode == api.ModeNewTask && a.view.Selection.TaskID != 0 {
			a.promptMode = api.ModeExistingTask
		} else {
			a.promptMode = api.ModeNewTask
		}
		return a, nil
	case key.Matches(msg, a.keys.Submit):
		p, _ := a.view.Project()
		cmd, err := a.mon.CreateManualSubtask(a.promptMode, 0, a.input.Value(), p.DefaultModel)
		if err != nil {
			a.flash = a.describe(err)
			return a, nil
		}
		a.closePrompt()
		a.flash = a.locale.T("input.scheduling")
		return a, lift(a.ctx, cmd)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) updateConfig(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.configOpen = false
		return a, nil
	case key.Matches(msg, a.keys.NextModel):
		if next, ok := models.Next(a.models, a.draftModel); ok {
			a.draftModel = next
		}
		return a, nil
	case key.Matches(msg, a.keys.Toggle):
		return a.act(a.mon.ToggleEnabled)
	case key.Matches(msg, a.keys.Submit):
		a.configOpen = false
		p, ok := a.view.Project()
		if !ok || a.draftModel == p.DefaultModel {
			return a, nil
		}
		model := a.draftModel
		return a.act(func() (monitor.Cmd, error) {
			return a.mon.UpdateProject(api.UpdateProjectRequest{DefaultModel: &model})
		})
	}
	return a, nil
}

// --- 内部方法 / Internal methods ---

// lift 把 monitor 命令包装成 tea.Cmd，结果回到同一循环
// lift wraps a monitor command so its result comes back through the loop
func lift(ctx context.Context, cmd monitor.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd(ctx)
		if msg == nil {
			return nil
		}
		return MonitorMsg{Msg: msg}
	}
}

// sync 刷新快照；日志变化时重新计算 token
// sync refreshes the snapshot and recounts tokens when the log buffer changed
func (a *App) sync() tea.Cmd {
	prev := a.view
	a.view = a.mon.View()
	a.cursors[PanelProjects] = clampCursor(a.cursors[PanelProjects], len(a.view.Projects))
	a.cursors[PanelTasks] = clampCursor(a.cursors[PanelTasks], len(a.view.Tasks))
	a.cursors[PanelSubtasks] = clampCursor(a.cursors[PanelSubtasks], len(a.view.VisibleSubtasks()))

	if prev.Logs == a.view.Logs && prev.LogRevision == a.view.LogRevision {
		return nil
	}
	follow := a.logsView.AtBottom() || prev.LogRevision != a.view.LogRevision
	a.logsView.SetContent(a.view.Logs)
	if follow {
		a.logsView.GotoBottom()
	}
	return a.countTokens()
}

func (a App) countTokens() tea.Cmd {
	counter, logs, rev := a.counter, a.view.Logs, a.view.LogRevision
	return func() tea.Msg {
		return TokensMsg{Revision: rev, Size: len(logs), Tokens: counter.CountText(logs)}
	}
}

func (a *App) move(delta int) {
	n := 0
	switch a.activePanel {
	case PanelProjects:
		n = len(a.view.Projects)
	case PanelTasks:
		n = len(a.view.Tasks)
	case PanelSubtasks:
		n = len(a.view.VisibleSubtasks())
	}
	a.cursors[a.activePanel] = clampCursor(a.cursors[a.activePanel]+delta, n)
}

func (a App) selectCurrent() (tea.Model, tea.Cmd) {
	cursor := a.cursors[a.activePanel]
	switch a.activePanel {
	case PanelProjects:
		if cursor >= len(a.view.Projects) {
			return a, nil
		}
		cmd, err := a.mon.SelectProject(a.view.Projects[cursor].ID)
		if err != nil {
			a.flash = a.describe(err)
		}
		a.cursors[PanelTasks], a.cursors[PanelSubtasks] = 0, 0
		refresh := a.sync()
		return a, tea.Batch(lift(a.ctx, cmd), refresh)
	case PanelTasks:
		if cursor >= len(a.view.Tasks) {
			return a, nil
		}
		a.mon.SelectTask(a.view.Tasks[cursor].ID)
		a.cursors[PanelSubtasks] = 0
		refresh := a.sync()
		return a, refresh
	case PanelSubtasks:
		subs := a.view.VisibleSubtasks()
		if cursor >= len(subs) {
			return a, nil
		}
		if err := a.mon.SelectSubtask(subs[cursor].ID); err != nil {
			a.flash = a.describe(err)
		}
		refresh := a.sync()
		return a, refresh
	}
	return a, nil
}

func (a App) act(fn func() (monitor.Cmd, error)) (tea.Model, tea.Cmd) {
	cmd, err := fn()
	if err != nil {
		a.flash = a.describe(err)
		return a, nil
	}
	a.flash = ""
	return a, lift(a.ctx, cmd)
}

func (a App) describe(err error) string {
	switch {
	case errors.Is(err, monitor.ErrEmptyPrompt):
		return a.locale.T("error.empty_prompt")
	case errors.Is(err, monitor.ErrNoSelection):
		return a.locale.T("error.no_task")
	case errors.Is(err, monitor.ErrActionNotAllowed):
		if t, ok := a.view.Task(); ok {
			return a.locale.T("error.not_allowed", actionName(err), t.Status)
		}
	}
	return err.Error()
}

// actionName 取出错误信息中的动作名（"stop task 10 ..." -> "stop"）
// actionName extracts the action from a wrapped action error
func actionName(err error) string {
	name, _, _ := strings.Cut(err.Error(), " ")
	return name
}

func (a App) archiveLogs() (tea.Model, tea.Cmd) {
	target := a.view.Target
	if target == nil {
		a.flash = a.locale.T("error.no_task")
		return a, nil
	}
	if a.archive == nil {
		a.flash = "archive unavailable"
		return a, nil
	}
	entry := storage.Entry{
		ProjectID: a.view.Selection.ProjectID,
		TaskID:    target.TaskID,
		SubtaskID: target.Subtask.ID,
		Mode:      string(target.Mode),
		Content:   a.view.Logs,
		Tokens:    a.tokens,
	}
	archive := a.archive
	return a, func() tea.Msg {
		saved, err := archive.Save(entry)
		return ArchivedMsg{Entry: saved, Err: err}
	}
}

func (a App) openPrompt() (tea.Model, tea.Cmd) {
	p, ok := a.view.Project()
	if !ok {
		a.flash = a.locale.T("input.no_project")
		return a, nil
	}
	a.prompting = true
	a.promptMode = api.ModeNewTask
	if a.view.Selection.TaskID != 0 {
		a.promptMode = api.ModeExistingTask
	}
	a.input.Reset()
	a.input.Placeholder = a.locale.T("input.placeholder", p.ProjectName)
	focus := a.input.Focus()
	return a, focus
}

func (a *App) closePrompt() {
	a.prompting = false
	a.input.Blur()
	a.input.Reset()
}

func (a App) openConfig() (tea.Model, tea.Cmd) {
	p, ok := a.view.Project()
	if !ok {
		a.flash = a.locale.T("empty.project")
		return a, nil
	}
	a.configOpen = true
	a.draftModel = p.DefaultModel
	if a.catalog == nil || len(a.models) > 0 {
		return a, nil
	}
	catalog, ctx := a.catalog, a.ctx
	return a, func() tea.Msg {
		list, err := catalog.List(ctx)
		return ModelsMsg{Models: list, Err: err}
	}
}

// layout 计算左右两栏宽度与主体高度
// layout computes the column widths and the body height
func (a App) layout() (leftWidth, rightWidth, bodyHeight int) {
	inputHeight := 0
	if a.prompting {
		inputHeight = 6
	}
	bodyHeight = a.height - 2 - inputHeight
	if bodyHeight < 9 {
		bodyHeight = 9
	}

	leftWidth = a.width * 35 / 100
	if leftWidth < 24 {
		leftWidth = 24
	}
	if leftWidth > 50 {
		leftWidth = 50
	}
	if a.width < 60 {
		leftWidth = a.width / 2
	}
	rightWidth = a.width - leftWidth
	return leftWidth, rightWidth, bodyHeight
}

func (a *App) relayout() {
	_, rightWidth, bodyHeight := a.layout()
	a.logsView.Width = max(rightWidth-2, 1)
	a.logsView.Height = max(bodyHeight-3, 1)
	a.logsView.SetContent(a.view.Logs)
	a.logsView.GotoBottom()
	a.input.SetWidth(max(a.width-4, 10))
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth, bodyHeight := a.layout()

	left := a.renderLists(leftWidth, bodyHeight)
	var right string
	if a.configOpen {
		right = a.renderConfig(rightWidth, bodyHeight)
	} else {
		right = a.renderLogs(rightWidth, bodyHeight)
	}

	parts := []string{
		a.renderHeader(a.width),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
	}
	if a.prompting {
		parts = append(parts, a.renderInput(a.width))
	}
	parts = append(parts, a.renderStatusBar(a.width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// --- 渲染方法 / Render methods ---

type listRow struct {
	label    string
	style    lipgloss.Style
	selected bool
}

func (a App) renderHeader(width int) string {
	title := a.theme.TitleStyle.Render(" thatmon")
	parts := []string{title}
	if a.server != "" {
		parts = append(parts, a.theme.MutedStyle.Render(a.server))
	}
	if p, ok := a.view.Project(); ok {
		status := a.locale.T("status.enabled")
		if !p.Enabled {
			status = a.locale.T("status.disabled")
		}
		parts = append(parts, fmt.Sprintf("%s (%s) · %s", p.ProjectName, p.Slug(), status))
	}
	parts = append(parts, a.stateLabel(a.view.RosterState))
	return Truncate(strings.Join(parts, "  "), width)
}

func (a App) renderLists(width, height int) string {
	h := height / 3
	last := height - 2*h

	var projects []listRow
	for _, p := range a.view.Projects {
		row := listRow{label: fmt.Sprintf("#%d %s", p.ID, p.ProjectName), selected: p.ID == a.view.Selection.ProjectID}
		row.style = lipgloss.NewStyle().Foreground(a.theme.Text)
		if !p.Enabled {
			row.label += " · " + a.locale.T("status.disabled")
			row.style = a.theme.MutedStyle
		}
		projects = append(projects, row)
	}

	var tasks []listRow
	for _, t := range a.view.Tasks {
		tasks = append(tasks, listRow{
			label:    strings.TrimSpace(fmt.Sprintf("#%d %s %s", t.ID, t.Status, t.Type)),
			style:    a.theme.StatusStyle(t.Status),
			selected: t.ID == a.view.Selection.TaskID,
		})
	}

	var subtasks []listRow
	for _, st := range a.view.VisibleSubtasks() {
		subtasks = append(subtasks, listRow{
			label:    fmt.Sprintf("#%d task #%d %s", st.ID, st.TaskID, st.Status),
			style:    a.theme.StatusStyle(st.Status),
			selected: st.ID == a.view.Selection.SubtaskID,
		})
	}

	emptyTasks := a.locale.T("empty.tasks")
	if a.view.Selection.ProjectID == 0 {
		emptyTasks = a.locale.T("empty.project")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderList(PanelProjects, a.locale.T("panel.projects"), projects, a.locale.T("empty.projects"), width, h),
		a.renderList(PanelTasks, a.locale.T("panel.tasks"), tasks, emptyTasks, width, h),
		a.renderList(PanelSubtasks, a.locale.T("panel.subtasks"), subtasks, a.locale.T("empty.subtasks"), width, last),
	)
}

func (a App) renderList(id PanelID, title string, rows []listRow, empty string, width, height int) string {
	style := a.theme.PanelStyle
	focused := id == a.activePanel
	if focused {
		style = a.theme.FocusPanelStyle
	}
	innerWidth := max(width-2, 4)
	innerHeight := max(height-2, 1)

	lines := []string{a.theme.TitleStyle.Render(Truncate(title, innerWidth))}
	if len(rows) == 0 {
		lines = append(lines, a.theme.MutedStyle.Render(Truncate(empty, innerWidth)))
	}

	visible := innerHeight - 1
	cursor := a.cursors[id]
	start := window(cursor, len(rows), visible)
	for i := start; i < len(rows) && i < start+visible; i++ {
		r := rows[i]
		prefix, st := "  ", r.style
		if r.selected {
			prefix, st = "● ", a.theme.SelectedStyle
		}
		if focused && i == cursor {
			prefix, st = "› ", a.theme.CursorStyle
		}
		lines = append(lines, st.Render(Truncate(prefix+r.label, innerWidth)))
	}

	return style.Width(innerWidth).Height(innerHeight).Render(strings.Join(lines, "\n"))
}

func (a App) renderLogs(width, height int) string {
	style := a.theme.PanelStyle
	if a.activePanel == PanelLogs {
		style = a.theme.FocusPanelStyle
	}
	innerWidth := max(width-2, 4)
	innerHeight := max(height-2, 1)

	title := a.locale.T("panel.logs")
	if t := a.view.Target; t != nil {
		if t.Subtask.ID != 0 {
			title += fmt.Sprintf(" · subtask #%d (task #%d)", t.Subtask.ID, t.TaskID)
		} else {
			title += fmt.Sprintf(" · task #%d", t.TaskID)
		}
		title += " · " + a.stateLabel(a.view.LogState)
	}
	if a.tokens > 0 {
		title += " · " + a.locale.T("status.tokens", a.tokens)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		a.theme.TitleStyle.Render(Truncate(title, innerWidth)),
		a.logsView.View(),
	)
	return style.Width(innerWidth).Height(innerHeight).Render(content)
}

func (a App) renderConfig(width, height int) string {
	style := a.theme.FocusPanelStyle
	innerWidth := max(width-2, 4)
	innerHeight := max(height-2, 1)

	p, _ := a.view.Project()
	lines := []string{
		a.theme.TitleStyle.Render(Truncate(a.locale.T("panel.config")+" · "+p.Slug(), innerWidth)),
		fmt.Sprintf("%s: %s", a.locale.T("config.default_model"), a.draftModel),
		fmt.Sprintf("%s: %s", a.locale.T("config.branch"), p.DefaultBaseBranch),
	}
	if a.catalog == nil {
		lines = append(lines, a.theme.MutedStyle.Render(a.locale.T("config.no_models")))
	}
	lines = append(lines, a.theme.MutedStyle.Render(a.locale.T("keys.model")+" · "+a.locale.T("keys.toggle")+" · "+a.locale.T("config.apply")))
	if spec := RenderMarkdown(p.Specification(), innerWidth); spec != "" {
		lines = append(lines, "", spec)
	}

	body := strings.Split(strings.Join(lines, "\n"), "\n")
	if len(body) > innerHeight {
		body = body[:innerHeight]
	}
	return style.Width(innerWidth).Height(innerHeight).Render(strings.Join(body, "\n"))
}

func (a App) renderInput(width int) string {
	label := a.locale.T("input.mode_new")
	if a.promptMode == api.ModeExistingTask {
		label = a.locale.T("input.mode_existing", a.view.Selection.TaskID)
	}
	head := a.theme.TitleStyle.Render(label) + "  " + a.theme.MutedStyle.Render(a.locale.T("keys.prompt"))
	return a.theme.InputStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, head, a.input.View()))
}

func (a App) renderStatusBar(width int) string {
	var left string
	switch {
	case a.flash != "":
		left = a.theme.ErrorStyle.Render(" " + a.flash)
	case a.view.Err != "":
		left = a.theme.ErrorStyle.Render(" " + a.view.Err)
	case a.view.Notice != "":
		left = a.theme.SuccessStyle.Render(" " + a.view.Notice)
	default:
		left = " " + a.locale.T("status.ready")
	}

	hints := []string{"keys.tab", "keys.enter", "keys.refresh", "keys.stop", "keys.restart", "keys.delete", "keys.archive", "keys.manual", "keys.toggle", "keys.config", "keys.reconnect", "keys.quit"}
	for i, h := range hints {
		hints[i] = a.locale.T(h)
	}
	right := Truncate(strings.Join(hints, " · "), max(width-lipgloss.Width(left)-2, 0)) + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

func (a App) stateLabel(s stream.State) string {
	switch s {
	case stream.Connected:
		return a.theme.SuccessStyle.Render(a.locale.T("status.connected"))
	case stream.Erroring:
		return a.theme.ErrorStyle.Render(a.locale.T("status.erroring"))
	default:
		return a.theme.MutedStyle.Render(a.locale.T("status.disconnected"))
	}
}

// Run 启动 Bubble Tea TUI；返回时关闭所有流
// Run starts the Bubble Tea TUI and closes every stream on return
func Run(ctx context.Context, mopts monitor.Options, opts Options) error {
	s := &sender{}
	mopts.Post = s.send
	mon := monitor.New(mopts)
	defer mon.Teardown()

	app := NewApp(ctx, mon, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	s.attach(p)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// sender 把流事件投递到 tea 程序
// sender posts stream events into the tea program
type sender struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *sender) attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *sender) send(msg monitor.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(MonitorMsg{Msg: msg})
	}
}
