// Package monitor is the state container of the dashboard. It owns the
// selection and drives the roster synchronizer and the log tail controller.
// All methods must be called from a single loop; stream events and command
// results come back to that loop as messages.
//
// monitor 包是仪表盘的状态容器：持有选择状态，驱动任务名册同步器与日志跟踪控制器。
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"thatmon/internal/api"
	"thatmon/internal/i18n"
	"thatmon/internal/logtail"
	"thatmon/internal/roster"
	"thatmon/internal/stream"
)

var (
	ErrNoSelection        = errors.New("nothing selected")
	ErrActionNotAllowed   = errors.New("action not allowed")
	ErrProjectUnavailable = errors.New("project unavailable")
	ErrEmptyPrompt        = errors.New("prompt is empty")
)

// Backend is the REST surface of the orchestration service.
type Backend interface {
	ListProjects(ctx context.Context, page api.Pagination) ([]api.Project, error)
	ListProjectTasks(ctx context.Context, projectID int64, page api.Pagination) ([]api.Task, error)
	ListProjectSubtasks(ctx context.Context, projectID int64, page api.Pagination) ([]api.Subtask, error)
	CreateManualSubtask(ctx context.Context, req api.CreateManualSubtaskRequest) (api.CreateManualSubtaskResponse, error)
	UpdateProject(ctx context.Context, req api.UpdateProjectRequest) error
	StopTask(ctx context.Context, taskID int64) error
	RestartTask(ctx context.Context, taskID int64) error
	DeleteTask(ctx context.Context, taskID int64) error
	ProjectEventsURL(projectID int64) string
	TaskLogsURL(taskID, subtaskID int64) string
}

type Options struct {
	Backend Backend
	Dialer  stream.Dialer
	// Post hands a message to the loop that owns the monitor. It is called
	// from stream goroutines.
	Post       func(Msg)
	Logger     *slog.Logger
	Messages   logtail.Messages
	Policy     logtail.Policy
	Pagination api.Pagination
}

type Monitor struct {
	backend Backend
	roster  *roster.Synchronizer
	logs    *logtail.Controller
	post    func(Msg)
	logger  *slog.Logger
	page    api.Pagination

	projects []api.Project
	sel      Selection
	lastErr  string
	notice   string

	rosterSink stream.Sink
	logSink    stream.Sink
}

func New(opts Options) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	post := opts.Post
	if post == nil {
		post = func(Msg) {}
	}
	b := opts.Backend
	m := &Monitor{
		backend: b,
		post:    post,
		logger:  logger,
		page:    opts.Pagination,
	}
	m.roster = roster.New(opts.Dialer, b.ProjectEventsURL, logger)
	m.logs = logtail.New(opts.Dialer, func(t logtail.Target) string {
		return b.TaskLogsURL(t.TaskID, t.Subtask.ID)
	}, logtail.Options{Messages: opts.Messages, Policy: opts.Policy, Logger: logger})
	m.rosterSink = func(ev stream.Event) { m.post(RosterEventMsg{Event: ev}) }
	m.logSink = func(ev stream.Event) { m.post(LogEventMsg{Event: ev}) }
	return m
}

// Update applies a message and returns the follow-up command, if any.
func (m *Monitor) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case RosterEventMsg:
		if change := m.roster.Handle(msg.Event); change != 0 {
			m.reconcile()
		}
	case LogEventMsg:
		m.logs.Handle(msg.Event)
	case ProjectsLoadedMsg:
		return m.applyProjects(msg)
	case RosterLoadedMsg:
		m.applyRoster(msg)
	case TaskActionMsg:
		m.applyTaskAction(msg)
	case SubtaskCreatedMsg:
		return m.applySubtaskCreated(msg)
	case ProjectUpdatedMsg:
		if msg.Err != nil {
			m.fail("update project", msg.Err)
			return nil
		}
		return m.Refresh(true)
	}
	return nil
}

// reconcile runs after every roster mutation: a selected subtask that left the
// collection is deselected (the task selection stays) and the log target is
// derived again.
func (m *Monitor) reconcile() {
	if m.sel.SubtaskID != 0 && !m.roster.HasSubtask(m.sel.SubtaskID) {
		m.logger.Debug("selected subtask vanished", "subtask", m.sel.SubtaskID)
		m.sel.SubtaskID = 0
	}
	m.rebind()
}

func (m *Monitor) rebind() {
	target := DeriveTarget(m.sel, m.roster.Subtasks())
	m.logs.Bind(target, m.projectAvailable(), m.logSink)
}

func (m *Monitor) projectAvailable() bool {
	p, ok := m.project(m.sel.ProjectID)
	return ok && p.Enabled
}

func (m *Monitor) project(id int64) (api.Project, bool) {
	if id == 0 {
		return api.Project{}, false
	}
	for _, p := range m.projects {
		if p.ID == id {
			return p, true
		}
	}
	return api.Project{}, false
}

func (m *Monitor) fail(op string, err error) {
	m.logger.Warn(op+" failed", "error", err)
	m.lastErr = err.Error()
}

// clearAll drops every selection, empties the roster and closes both streams.
func (m *Monitor) clearAll() {
	m.roster.Close()
	m.roster.Clear()
	m.logs.Reset()
	m.sel = Selection{}
}

// Refresh reloads the project list. With keep the selected project survives
// if it is still listed; a flipped enabled flag re-initializes it. Without
// keep everything is cleared.
func (m *Monitor) Refresh(keep bool) Cmd {
	b, page := m.backend, m.page
	return func(ctx context.Context) Msg {
		projects, err := b.ListProjects(ctx, page)
		return ProjectsLoadedMsg{Projects: projects, Keep: keep, Err: err}
	}
}

func (m *Monitor) applyProjects(msg ProjectsLoadedMsg) Cmd {
	if msg.Err != nil {
		m.logger.Warn("list projects failed", "error", msg.Err)
		m.lastErr = i18n.T("error.projects")
		return nil
	}
	prev, hadPrev := m.project(m.sel.ProjectID)
	m.projects = msg.Projects

	if !msg.Keep {
		m.clearAll()
		return nil
	}
	if m.sel.ProjectID == 0 {
		return nil
	}
	cur, ok := m.project(m.sel.ProjectID)
	if !ok {
		m.logger.Info("selected project no longer listed", "project", m.sel.ProjectID)
		m.clearAll()
		return nil
	}
	if hadPrev && prev.Enabled != cur.Enabled {
		cmd, _ := m.SelectProject(cur.ID)
		return cmd
	}
	m.rebind()
	return nil
}

// SelectProject switches the roster to project id. The previous roster stream
// is closed before anything else happens. Zero deselects.
func (m *Monitor) SelectProject(id int64) (Cmd, error) {
	m.roster.Close()
	m.roster.Clear()
	m.logs.Reset()
	m.sel = Selection{}
	m.lastErr = ""
	if id == 0 {
		return nil, nil
	}

	p, ok := m.project(id)
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, ErrProjectUnavailable)
	}
	m.sel.ProjectID = id
	if !p.Enabled {
		m.logger.Info("project disabled; roster stream not opened", "project", id)
		return nil, nil
	}
	m.roster.Open(id, m.rosterSink)
	return m.loadRoster(id), nil
}

// ReloadRoster reloads the selected project's tasks and subtasks over REST.
func (m *Monitor) ReloadRoster() Cmd {
	if !m.projectAvailable() {
		return nil
	}
	return m.loadRoster(m.sel.ProjectID)
}

func (m *Monitor) loadRoster(projectID int64) Cmd {
	b, page := m.backend, m.page
	return func(ctx context.Context) Msg {
		tasks, err := b.ListProjectTasks(ctx, projectID, page)
		if err != nil {
			return RosterLoadedMsg{ProjectID: projectID, Err: err}
		}
		subtasks, err := b.ListProjectSubtasks(ctx, projectID, page)
		if err != nil {
			return RosterLoadedMsg{ProjectID: projectID, Err: err}
		}
		return RosterLoadedMsg{ProjectID: projectID, Tasks: tasks, Subtasks: subtasks}
	}
}

func (m *Monitor) applyRoster(msg RosterLoadedMsg) {
	if msg.ProjectID != m.sel.ProjectID || !m.projectAvailable() {
		m.logger.Debug("stale roster load dropped", "project", msg.ProjectID)
		return
	}
	if msg.Err != nil {
		m.fail("load roster", msg.Err)
		return
	}
	m.roster.Replace(msg.Tasks, msg.Subtasks)
	m.reconcile()
}

// SelectTask selects a task and clears the subtask selection. Zero deselects.
func (m *Monitor) SelectTask(id int64) {
	m.sel.TaskID = id
	m.sel.SubtaskID = 0
	m.rebind()
}

// SelectSubtask selects a subtask from the current collection. The subtask's
// owning task becomes the selected task, completing an empty task selection
// and replacing a different one. Zero deselects the subtask only.
func (m *Monitor) SelectSubtask(id int64) error {
	if id == 0 {
		m.sel.SubtaskID = 0
		m.rebind()
		return nil
	}
	st, ok := m.roster.Subtask(id)
	if !ok {
		return fmt.Errorf("subtask %d: %w", id, ErrNoSelection)
	}
	m.sel.SubtaskID = id
	if st.TaskID != 0 && st.TaskID != m.sel.TaskID {
		m.sel.TaskID = st.TaskID
	}
	m.rebind()
	return nil
}

// ReconnectLogs reopens the log stream of the current target.
func (m *Monitor) ReconnectLogs() bool {
	return m.logs.Reopen(m.logSink)
}

func (m *Monitor) Stop() (Cmd, error) { return m.taskAction(ActionStop) }
func (m *Monitor) Restart() (Cmd, error) { return m.taskAction(ActionRestart) }
func (m *Monitor) Delete() (Cmd, error) { return m.taskAction(ActionDelete) }

func (m *Monitor) taskAction(a Action) (Cmd, error) {
	t, ok := m.roster.Task(m.sel.TaskID)
	if !ok {
		return nil, fmt.Errorf("%s task: %w", a, ErrNoSelection)
	}
	if !a.Allowed(t.Status) {
		return nil, fmt.Errorf("%s task %d (%s): %w", a, t.ID, t.Status, ErrActionNotAllowed)
	}
	b, projectID := m.backend, m.sel.ProjectID
	return func(ctx context.Context) Msg {
		var err error
		switch a {
		case ActionStop:
			err = b.StopTask(ctx, t.ID)
		case ActionRestart:
			err = b.RestartTask(ctx, t.ID)
		case ActionDelete:
			err = b.DeleteTask(ctx, t.ID)
		}
		return TaskActionMsg{Action: a, ProjectID: projectID, TaskID: t.ID, Err: err}
	}, nil
}

func (m *Monitor) applyTaskAction(msg TaskActionMsg) {
	if msg.Err != nil {
		m.fail(string(msg.Action)+" task", msg.Err)
		return
	}
	m.notice = fmt.Sprintf("%s task #%d", msg.Action, msg.TaskID)
	if msg.Action != ActionDelete || msg.ProjectID != m.sel.ProjectID {
		return
	}
	if m.sel.TaskID == msg.TaskID {
		m.sel.TaskID = 0
		m.sel.SubtaskID = 0
	}
	m.roster.RemoveTask(msg.TaskID)
	m.reconcile()
}

// CreateManualSubtask schedules a prompt either as a new task in the selected
// project (api.ModeNewTask) or as a follow-up of taskID (api.ModeExistingTask,
// defaulting to the selected task). The roster is reloaded on success.
func (m *Monitor) CreateManualSubtask(mode string, taskID int64, prompt, model string) (Cmd, error) {
	if m.sel.ProjectID == 0 {
		return nil, fmt.Errorf("create manual subtask: %w", ErrNoSelection)
	}
	if !m.projectAvailable() {
		return nil, fmt.Errorf("create manual subtask: %w", ErrProjectUnavailable)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	req := api.CreateManualSubtaskRequest{Mode: mode, Prompt: prompt, ModelName: strings.TrimSpace(model)}
	switch mode {
	case api.ModeNewTask:
		req.ProjectID = m.sel.ProjectID
	case api.ModeExistingTask:
		if taskID == 0 {
			taskID = m.sel.TaskID
		}
		if taskID == 0 {
			return nil, fmt.Errorf("create manual subtask: %w", ErrNoSelection)
		}
		req.TaskID = taskID
	default:
		return nil, fmt.Errorf("create manual subtask: unknown mode %q", mode)
	}

	b, projectID := m.backend, m.sel.ProjectID
	return func(ctx context.Context) Msg {
		resp, err := b.CreateManualSubtask(ctx, req)
		return SubtaskCreatedMsg{ProjectID: projectID, Response: resp, Err: err}
	}, nil
}

func (m *Monitor) applySubtaskCreated(msg SubtaskCreatedMsg) Cmd {
	if msg.Err != nil {
		m.fail("create manual subtask", msg.Err)
		return nil
	}
	if msg.Response.Subtask != nil {
		m.notice = fmt.Sprintf("subtask #%d scheduled", msg.Response.Subtask.ID)
	}
	if msg.ProjectID != m.sel.ProjectID {
		return nil
	}
	return m.ReloadRoster()
}

// UpdateProject sends a configuration change for the selected project and
// refreshes the project list on success. Owner and repo default to the
// selected project's.
func (m *Monitor) UpdateProject(req api.UpdateProjectRequest) (Cmd, error) {
	p, ok := m.project(m.sel.ProjectID)
	if !ok {
		return nil, fmt.Errorf("update project: %w", ErrNoSelection)
	}
	if req.Owner == "" {
		req.Owner = p.Owner
	}
	if req.Repo == "" {
		req.Repo = p.Repo
	}
	b := m.backend
	return func(ctx context.Context) Msg {
		return ProjectUpdatedMsg{ProjectID: p.ID, Err: b.UpdateProject(ctx, req)}
	}, nil
}

// ToggleEnabled flips the selected project's enabled flag.
func (m *Monitor) ToggleEnabled() (Cmd, error) {
	p, ok := m.project(m.sel.ProjectID)
	if !ok {
		return nil, fmt.Errorf("toggle project: %w", ErrNoSelection)
	}
	enabled := !p.Enabled
	return m.UpdateProject(api.UpdateProjectRequest{Enabled: &enabled})
}

// Teardown closes both streams.
func (m *Monitor) Teardown() {
	m.roster.Close()
	m.logs.Close()
}

// ClearError drops the last error and notice.
func (m *Monitor) ClearError() {
	m.lastErr = ""
	m.notice = ""
}
