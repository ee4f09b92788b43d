package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"thatmon/internal/api"
	"thatmon/internal/logtail"
	"thatmon/internal/stream"
)

type fakeBackend struct {
	mu        sync.Mutex
	projects  []api.Project
	tasks     map[int64][]api.Task
	subtasks  map[int64][]api.Subtask
	calls     []string
	listErr   error
	actionErr error
	created   []api.CreateManualSubtaskRequest
	updated   []api.UpdateProjectRequest
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) ListProjects(ctx context.Context, page api.Pagination) ([]api.Project, error) {
	b.record("projects")
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]api.Project(nil), b.projects...), nil
}

func (b *fakeBackend) ListProjectTasks(ctx context.Context, projectID int64, page api.Pagination) ([]api.Task, error) {
	b.record(fmt.Sprintf("tasks/%d", projectID))
	return append([]api.Task(nil), b.tasks[projectID]...), nil
}

func (b *fakeBackend) ListProjectSubtasks(ctx context.Context, projectID int64, page api.Pagination) ([]api.Subtask, error) {
	b.record(fmt.Sprintf("subtasks/%d", projectID))
	return append([]api.Subtask(nil), b.subtasks[projectID]...), nil
}

func (b *fakeBackend) CreateManualSubtask(ctx context.Context, req api.CreateManualSubtaskRequest) (api.CreateManualSubtaskResponse, error) {
	b.record("create")
	b.created = append(b.created, req)
	return api.CreateManualSubtaskResponse{Subtask: &api.Subtask{ID: 99, TaskID: req.TaskID}}, b.actionErr
}

func (b *fakeBackend) UpdateProject(ctx context.Context, req api.UpdateProjectRequest) error {
	b.record("update")
	b.updated = append(b.updated, req)
	if b.actionErr == nil && req.Enabled != nil {
		for i := range b.projects {
			if b.projects[i].Owner == req.Owner && b.projects[i].Repo == req.Repo {
				b.projects[i].Enabled = *req.Enabled
			}
		}
	}
	return b.actionErr
}

func (b *fakeBackend) StopTask(ctx context.Context, id int64) error {
	b.record(fmt.Sprintf("stop/%d", id))
	return b.actionErr
}

func (b *fakeBackend) RestartTask(ctx context.Context, id int64) error {
	b.record(fmt.Sprintf("restart/%d", id))
	return b.actionErr
}

func (b *fakeBackend) DeleteTask(ctx context.Context, id int64) error {
	b.record(fmt.Sprintf("delete/%d", id))
	return b.actionErr
}

func (b *fakeBackend) ProjectEventsURL(id int64) string {
	return fmt.Sprintf("events/%d", id)
}

func (b *fakeBackend) TaskLogsURL(taskID, subtaskID int64) string {
	return fmt.Sprintf("logs/%d/%d", taskID, subtaskID)
}

const placeholder = "placeholder"

type harness struct {
	t *testing.T
	m *Monitor
	d *stream.FakeDialer
	b *fakeBackend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := &fakeBackend{
		projects: []api.Project{
			{ID: 1, ProjectName: "one", Owner: "o", Repo: "one", Enabled: true},
			{ID: 2, ProjectName: "two", Owner: "o", Repo: "two", Enabled: true},
			{ID: 3, ProjectName: "off", Owner: "o", Repo: "off", Enabled: false},
		},
		tasks: map[int64][]api.Task{
			1: {{ID: 10, Status: "running", Type: "issue"}, {ID: 11, Status: "complete", Type: "manual"}},
			2: {{ID: 20, Status: "pending", Type: "issue"}},
		},
		subtasks: map[int64][]api.Subtask{
			1: {{ID: 100, TaskID: 10, Status: "running"}, {ID: 101, TaskID: 11, Status: "complete"}},
			2: {{ID: 200, TaskID: 20, Status: "pending"}},
		},
	}
	d := &stream.FakeDialer{}
	m := New(Options{
		Backend:  b,
		Dialer:   d,
		Messages: logtail.Messages{Placeholder: placeholder, Ended: "ended", Disabled: "disabled"},
	})
	h := &harness{t: t, m: m, d: d, b: b}
	h.run(m.Refresh(false))
	return h
}

// run executes cmd and every follow-up command synchronously.
func (h *harness) run(cmd Cmd) {
	h.t.Helper()
	for cmd != nil {
		cmd = h.m.Update(cmd(context.Background()))
	}
}

func (h *harness) selectProject(id int64) {
	h.t.Helper()
	cmd, err := h.m.SelectProject(id)
	if err != nil {
		h.t.Fatalf("SelectProject(%d): %v", id, err)
	}
	h.run(cmd)
}

func (h *harness) conns(kind string) []*stream.FakeConn {
	var out []*stream.FakeConn
	for _, c := range h.d.Conns() {
		if c.Request.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (h *harness) open(kind string) []*stream.FakeConn {
	var out []*stream.FakeConn
	for _, c := range h.conns(kind) {
		if !c.Closed() {
			out = append(out, c)
		}
	}
	return out
}

func (h *harness) last(kind string) *stream.FakeConn {
	h.t.Helper()
	all := h.conns(kind)
	if len(all) == 0 {
		h.t.Fatalf("no %s stream dialed", kind)
	}
	return all[len(all)-1]
}

func (h *harness) roster(event, data string) {
	h.m.Update(RosterEventMsg{Event: h.last("roster").Frame(event, data)})
}

func (h *harness) log(data string) {
	h.m.Update(LogEventMsg{Event: h.last("logs").Frame("", data)})
}

func TestSelectProjectLoadsRosterAndOpensStream(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)

	v := h.m.View()
	if v.Selection != (Selection{ProjectID: 1}) {
		t.Fatalf("selection = %#v", v.Selection)
	}
	if len(v.Tasks) != 2 || len(v.Subtasks) != 2 {
		t.Fatalf("roster not loaded: %#v %#v", v.Tasks, v.Subtasks)
	}
	if open := h.open("roster"); len(open) != 1 || open[0].Request.URL != "events/1" {
		t.Fatalf("roster streams = %#v", open)
	}
	if v.RosterState != stream.Connected {
		t.Fatalf("roster state = %s", v.RosterState)
	}
	if len(h.conns("logs")) != 0 || v.Logs != placeholder {
		t.Fatalf("log stream opened without target, logs = %q", v.Logs)
	}
}

func TestProjectSwitchClosesPreviousStream(t *testing.T) {
	h := newHarness(t)
	cmdA, _ := h.m.SelectProject(1)
	connA := h.last("roster")
	h.run(cmdA)
	h.m.SelectTask(10)
	logA := h.last("logs")

	cmdB, err := h.m.SelectProject(2)
	if err != nil {
		t.Fatal(err)
	}
	if !connA.Closed() || !logA.Closed() {
		t.Fatalf("project switch left streams open: roster=%v logs=%v", connA.Closed(), logA.Closed())
	}
	if len(h.open("roster")) != 1 {
		t.Fatalf("open roster streams = %d", len(h.open("roster")))
	}
	h.run(cmdB)

	// Late event from A and a late REST load for A change nothing.
	h.m.Update(RosterEventMsg{Event: connA.Frame("task", `{"id":999,"status":"running","type":"x"}`)})
	h.m.Update(RosterLoadedMsg{ProjectID: 1, Tasks: []api.Task{{ID: 998}}})
	h.run(cmdA)

	v := h.m.View()
	if len(v.Tasks) != 1 || v.Tasks[0].ID != 20 {
		t.Fatalf("state of A leaked into B: %#v", v.Tasks)
	}
	if v.Selection != (Selection{ProjectID: 2}) || v.Logs != placeholder {
		t.Fatalf("selection=%#v logs=%q", v.Selection, v.Logs)
	}
}

func TestSelectionChangeClosesLogStream(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	first := h.last("logs")
	if first.Request.URL != "logs/10/0" {
		t.Fatalf("task mode url = %q", first.Request.URL)
	}
	h.log(`{"chunk":"ten"}`)

	h.m.SelectTask(11)
	if !first.Closed() {
		t.Fatal("selection change left log stream open")
	}
	if open := h.open("logs"); len(open) != 1 || open[0].Request.URL != "logs/11/0" {
		t.Fatalf("open log streams = %#v", open)
	}
	if h.m.Logs() != "" {
		t.Fatalf("buffer not emptied: %q", h.m.Logs())
	}

	h.m.Update(LogEventMsg{Event: first.Frame("", `{"chunk":"stale"}`)})
	h.log(`{"chunk":"eleven"}`)
	if h.m.Logs() != "eleven" {
		t.Fatalf("buffer = %q", h.m.Logs())
	}

	h.m.SelectTask(0)
	if len(h.open("logs")) != 0 || h.m.Logs() != placeholder {
		t.Fatalf("deselect: open=%d logs=%q", len(h.open("logs")), h.m.Logs())
	}
}

func TestTargetChangeFromRosterClosesLogStream(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	if err := h.m.SelectSubtask(100); err != nil {
		t.Fatal(err)
	}
	sub := h.last("logs")
	if sub.Request.URL != "logs/10/100" {
		t.Fatalf("subtask url = %q", sub.Request.URL)
	}
	h.log(`{"chunk":"sub"}`)

	// Subtask 100 moves to task 11: same subtask, different target.
	h.roster("subtask", `{"id":100,"taskId":11,"status":"running"}`)
	if !sub.Closed() {
		t.Fatal("target change left log stream open")
	}
	moved := h.last("logs")
	if moved.Request.URL != "logs/11/100" || h.m.Logs() != "" {
		t.Fatalf("url=%q logs=%q", moved.Request.URL, h.m.Logs())
	}

	// A status update is not a target change.
	h.roster("subtask", `{"id":100,"taskId":11,"status":"complete"}`)
	if moved.Closed() || len(h.conns("logs")) != 3 {
		t.Fatal("status update rebuilt the log stream")
	}
}

func TestVanishedSubtaskClearsOnlySubtask(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	_ = h.m.SelectSubtask(100)
	sub := h.last("logs")

	h.roster("snapshot", `{"tasks":[{"id":10,"status":"running","type":"issue"}],"subtasks":[{"id":101,"taskId":11,"status":"complete"}]}`)

	sel := h.m.Selection()
	if sel.SubtaskID != 0 || sel.TaskID != 10 || sel.ProjectID != 1 {
		t.Fatalf("selection = %#v", sel)
	}
	if !sub.Closed() {
		t.Fatal("subtask log stream left open")
	}
	if got := h.last("logs").Request.URL; got != "logs/10/0" {
		t.Fatalf("fallback target url = %q", got)
	}
}

func TestTeardownClosesBothStreams(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	if len(h.open("roster")) != 1 || len(h.open("logs")) != 1 {
		t.Fatal("streams not opened")
	}
	h.m.Teardown()
	if len(h.open("roster")) != 0 || len(h.open("logs")) != 0 {
		t.Fatalf("teardown left streams open: roster=%d logs=%d", len(h.open("roster")), len(h.open("logs")))
	}
}

func TestSelectSubtaskCompletesTask(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	if err := h.m.SelectSubtask(101); err != nil {
		t.Fatal(err)
	}
	if sel := h.m.Selection(); sel.TaskID != 11 || sel.SubtaskID != 101 {
		t.Fatalf("selection = %#v", sel)
	}
	if err := h.m.SelectSubtask(555); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("unknown subtask err = %v", err)
	}
	if sel := h.m.Selection(); sel.SubtaskID != 101 {
		t.Fatalf("failed select changed selection: %#v", sel)
	}
}

func TestSelectSubtaskFollowsOwningTask(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	if err := h.m.SelectSubtask(101); err != nil {
		t.Fatal(err)
	}
	v := h.m.View()
	if v.Selection.TaskID != 11 || v.Selection.SubtaskID != 101 {
		t.Fatalf("selection = %#v", v.Selection)
	}
	if v.Target == nil || v.Target.TaskID != v.Selection.TaskID {
		t.Fatalf("target %+v disagrees with selection %#v", v.Target, v.Selection)
	}
	if url := h.last("logs").Request.URL; url != "logs/11/101" {
		t.Fatalf("log stream url = %q", url)
	}
}

func TestDeleteSelectedTask(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(11)
	_ = h.m.SelectSubtask(101)
	h.log(`{"chunk":"partial"}`)
	logs := h.last("logs")

	cmd, err := h.m.Delete()
	if err != nil {
		t.Fatal(err)
	}
	h.run(cmd)

	v := h.m.View()
	if v.Selection != (Selection{ProjectID: 1}) {
		t.Fatalf("selection = %#v", v.Selection)
	}
	if v.Logs != placeholder || !logs.Closed() {
		t.Fatalf("logs=%q closed=%v", v.Logs, logs.Closed())
	}
	for _, task := range v.Tasks {
		if task.ID == 11 {
			t.Fatal("deleted task still listed")
		}
	}
	for _, st := range v.Subtasks {
		if st.TaskID == 11 {
			t.Fatal("subtask of deleted task still listed")
		}
	}
}

func TestTaskActionRules(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)

	if _, err := h.m.Stop(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("stop without selection: %v", err)
	}

	h.m.SelectTask(10) // running
	if _, err := h.m.Restart(); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("restart running: %v", err)
	}
	if _, err := h.m.Delete(); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("delete running: %v", err)
	}
	cmd, err := h.m.Stop()
	if err != nil {
		t.Fatal(err)
	}
	h.run(cmd)

	h.m.SelectTask(11) // complete
	if _, err := h.m.Stop(); !errors.Is(err, ErrActionNotAllowed) {
		t.Fatalf("stop complete: %v", err)
	}
	cmd, err = h.m.Restart()
	if err != nil {
		t.Fatal(err)
	}
	h.run(cmd)

	want := map[string]bool{"stop/10": true, "restart/11": true}
	for _, c := range h.b.calls {
		delete(want, c)
	}
	if len(want) != 0 {
		t.Fatalf("missing calls %v in %v", want, h.b.calls)
	}
}

func TestActionAllowed(t *testing.T) {
	cases := []struct {
		action Action
		status string
		want   bool
	}{
		{ActionStop, "running", true},
		{ActionStop, "pending", false},
		{ActionRestart, "running", false},
		{ActionRestart, "pending", false},
		{ActionRestart, "error", true},
		{ActionRestart, "queued", true},
		{ActionDelete, "running", false},
		{ActionDelete, "pending", true},
		{Action("other"), "error", false},
	}
	for _, c := range cases {
		if got := c.action.Allowed(c.status); got != c.want {
			t.Fatalf("%s on %s = %v", c.action, c.status, got)
		}
	}
}

func TestActionFailureSurfaces(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(11)
	h.b.actionErr = errors.New("API 500: boom")
	cmd, _ := h.m.Delete()
	h.run(cmd)

	v := h.m.View()
	if v.Err != "API 500: boom" {
		t.Fatalf("err = %q", v.Err)
	}
	if v.Selection.TaskID != 11 {
		t.Fatal("failed delete cleared the selection")
	}
}

func TestDisabledProjectOpensNoStream(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.selectProject(3)

	v := h.m.View()
	if v.Selection.ProjectID != 3 || len(v.Tasks) != 0 || len(v.Subtasks) != 0 {
		t.Fatalf("view = %#v", v)
	}
	if len(h.open("roster")) != 0 {
		t.Fatal("disabled project opened a roster stream")
	}
	if cmd := h.m.ReloadRoster(); cmd != nil {
		t.Fatal("reload offered for disabled project")
	}
	if _, err := h.m.CreateManualSubtask(api.ModeNewTask, 0, "x", ""); !errors.Is(err, ErrProjectUnavailable) {
		t.Fatalf("create on disabled project: %v", err)
	}
}

func TestUnknownProject(t *testing.T) {
	h := newHarness(t)
	if _, err := h.m.SelectProject(42); !errors.Is(err, ErrProjectUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if h.m.Selection().ProjectID != 0 {
		t.Fatal("unknown project selected")
	}
}

func TestRefreshWithoutKeepClearsEverything(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)

	h.run(h.m.Refresh(false))
	v := h.m.View()
	if v.Selection != (Selection{}) || len(v.Tasks) != 0 || v.Logs != placeholder {
		t.Fatalf("view = %#v", v)
	}
	if len(h.open("roster")) != 0 || len(h.open("logs")) != 0 {
		t.Fatal("refresh left streams open")
	}
	if len(v.Projects) != 3 {
		t.Fatalf("projects = %d", len(v.Projects))
	}
}

func TestRefreshKeepSelection(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	logs := h.last("logs")

	h.run(h.m.Refresh(true))
	if sel := h.m.Selection(); sel.ProjectID != 1 || sel.TaskID != 10 {
		t.Fatalf("selection lost: %#v", sel)
	}
	if logs.Closed() {
		t.Fatal("keep refresh closed the log stream")
	}

	// Project 1 disappears.
	h.b.projects = h.b.projects[1:]
	h.run(h.m.Refresh(true))
	if sel := h.m.Selection(); sel != (Selection{}) {
		t.Fatalf("selection kept for vanished project: %#v", sel)
	}
	if len(h.open("roster")) != 0 || !logs.Closed() {
		t.Fatal("streams left open for vanished project")
	}
}

func TestToggleEnabledReinitializesProject(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	rosterConn := h.last("roster")

	cmd, err := h.m.ToggleEnabled()
	if err != nil {
		t.Fatal(err)
	}
	h.run(cmd)

	if len(h.b.updated) != 1 || h.b.updated[0].Owner != "o" || h.b.updated[0].Repo != "one" || *h.b.updated[0].Enabled {
		t.Fatalf("update request = %#v", h.b.updated)
	}
	v := h.m.View()
	if v.Selection != (Selection{ProjectID: 1}) || len(v.Tasks) != 0 {
		t.Fatalf("disabled project not reset: %#v", v)
	}
	if !rosterConn.Closed() || len(h.open("roster")) != 0 {
		t.Fatal("roster stream open for disabled project")
	}

	cmd, _ = h.m.ToggleEnabled()
	h.run(cmd)
	if len(h.open("roster")) != 1 || len(h.m.View().Tasks) != 2 {
		t.Fatal("re-enabled project not re-initialized")
	}
}

func TestCreateManualSubtask(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)

	if _, err := h.m.CreateManualSubtask(api.ModeNewTask, 0, "   ", ""); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("empty prompt: %v", err)
	}
	if _, err := h.m.CreateManualSubtask(api.ModeExistingTask, 0, "more", ""); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("existing without task: %v", err)
	}

	h.m.SelectTask(10)
	h.b.calls = nil
	cmd, err := h.m.CreateManualSubtask(api.ModeExistingTask, 0, " more ", "gpt-x")
	if err != nil {
		t.Fatal(err)
	}
	h.b.subtasks[1] = append(h.b.subtasks[1], api.Subtask{ID: 102, TaskID: 10, Status: "pending"})
	h.run(cmd)

	req := h.b.created[0]
	if req.Mode != api.ModeExistingTask || req.TaskID != 10 || req.Prompt != "more" || req.ModelName != "gpt-x" {
		t.Fatalf("request = %#v", req)
	}
	if fmt.Sprint(h.b.calls) != "[create tasks/1 subtasks/1]" {
		t.Fatalf("calls = %v", h.b.calls)
	}
	if len(h.m.View().Subtasks) != 3 {
		t.Fatal("roster not reloaded after create")
	}

	cmd, err = h.m.CreateManualSubtask(api.ModeNewTask, 0, "new", "")
	if err != nil {
		t.Fatal(err)
	}
	h.run(cmd)
	if got := h.b.created[1]; got.ProjectID != 1 || got.TaskID != 0 {
		t.Fatalf("new task request = %#v", got)
	}
}

func TestProjectsLoadFailure(t *testing.T) {
	h := newHarness(t)
	h.b.listErr = errors.New("401")
	h.run(h.m.Refresh(false))
	if h.m.View().Err == "" {
		t.Fatal("project load failure not surfaced")
	}
}

func TestLogStreamErrorShowsEnded(t *testing.T) {
	h := newHarness(t)
	h.selectProject(1)
	h.m.SelectTask(10)
	conn := h.last("logs")
	h.m.Update(LogEventMsg{Event: conn.Failure(errors.New("eof"))})
	if h.m.Logs() != "ended" || !conn.Closed() {
		t.Fatalf("logs=%q closed=%v", h.m.Logs(), conn.Closed())
	}
	if !h.m.ReconnectLogs() || len(h.open("logs")) != 1 {
		t.Fatal("reconnect did not open a stream")
	}
}

func TestDeriveTarget(t *testing.T) {
	subs := []api.Subtask{{ID: 5, TaskID: 2, Status: "running"}, {ID: 6, TaskID: 0}}
	cases := []struct {
		name string
		sel  Selection
		want *logtail.Target
	}{
		{"none", Selection{ProjectID: 1}, nil},
		{"task", Selection{TaskID: 3}, &logtail.Target{Mode: logtail.ModeTask, TaskID: 3}},
		{"subtask owner", Selection{TaskID: 3, SubtaskID: 5}, &logtail.Target{Mode: logtail.ModeSubtask, TaskID: 2, Subtask: subs[0]}},
		{"subtask without owner", Selection{TaskID: 3, SubtaskID: 6}, &logtail.Target{Mode: logtail.ModeSubtask, TaskID: 3, Subtask: subs[1]}},
		{"orphan subtask", Selection{SubtaskID: 6}, nil},
		{"missing subtask", Selection{TaskID: 4, SubtaskID: 9}, &logtail.Target{Mode: logtail.ModeTask, TaskID: 4}},
	}
	for _, c := range cases {
		got := DeriveTarget(c.sel, subs)
		if !logtail.Same(got, c.want) {
			t.Fatalf("%s: got %#v want %#v", c.name, got, c.want)
		}
	}
}
