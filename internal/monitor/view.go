package monitor

import (
	"thatmon/internal/api"
	"thatmon/internal/logtail"
	"thatmon/internal/stream"
)

// View is a read-only snapshot of the monitor for presentation.
type View struct {
	Projects  []api.Project
	Tasks     []api.Task
	Subtasks  []api.Subtask
	Selection Selection

	Target      *logtail.Target
	Logs        string
	LogRevision uint64

	RosterState stream.State
	LogState    stream.State

	Err    string
	Notice string
}

// View returns a snapshot. Slices are copies.
func (m *Monitor) View() View {
	return View{
		Projects:    append([]api.Project(nil), m.projects...),
		Tasks:       m.roster.Tasks(),
		Subtasks:    m.roster.Subtasks(),
		Selection:   m.sel,
		Target:      m.logs.Target(),
		Logs:        m.logs.Buffer(),
		LogRevision: m.logs.Revision(),
		RosterState: m.roster.State(),
		LogState:    m.logs.State(),
		Err:         m.lastErr,
		Notice:      m.notice,
	}
}

// Selection returns the current selection.
func (m *Monitor) Selection() Selection { return m.sel }

// Logs returns the log buffer.
func (m *Monitor) Logs() string { return m.logs.Buffer() }

func (v View) Project() (api.Project, bool) {
	for _, p := range v.Projects {
		if p.ID == v.Selection.ProjectID && p.ID != 0 {
			return p, true
		}
	}
	return api.Project{}, false
}

func (v View) Task() (api.Task, bool) {
	for _, t := range v.Tasks {
		if t.ID == v.Selection.TaskID && t.ID != 0 {
			return t, true
		}
	}
	return api.Task{}, false
}

// VisibleSubtasks returns the subtasks of the selected task, or all of them
// when no task is selected.
func (v View) VisibleSubtasks() []api.Subtask {
	if v.Selection.TaskID == 0 {
		return v.Subtasks
	}
	out := make([]api.Subtask, 0, len(v.Subtasks))
	for _, st := range v.Subtasks {
		if st.TaskID == v.Selection.TaskID {
			out = append(out, st)
		}
	}
	return out
}

// Badge classifies a status for display: "danger", "muted" or "".
func Badge(status string) string {
	switch status {
	case api.StatusError:
		return "danger"
	case api.StatusComplete:
		return "muted"
	default:
		return ""
	}
}
