// Package roster keeps the task and subtask collections of one project in
// step with the project's event stream.
//
// roster 包根据项目事件流维护任务与子任务集合。
package roster

import (
	"encoding/json"
	"log/slog"

	"thatmon/internal/api"
	"thatmon/internal/stream"
)

// Stream event names.
const (
	EventTask     = "task"
	EventSubtask  = "subtask"
	EventSnapshot = "snapshot"
)

// Change reports which collections an event touched.
type Change uint8

const (
	TasksChanged Change = 1 << iota
	SubtasksChanged
)

func (c Change) Tasks() bool { return c&TasksChanged != 0 }
func (c Change) Subtasks() bool { return c&SubtasksChanged != 0 }

// Synchronizer owns the Task and Subtask collections of the selected project.
// It is not safe for concurrent use; events reach it through the owning loop.
type Synchronizer struct {
	dialer   stream.Dialer
	endpoint func(projectID int64) string
	logger   *slog.Logger

	projectID int64
	conn      stream.Conn
	state     stream.State
	lastErr   error

	tasks    []api.Task
	subtasks []api.Subtask
}

// New builds a synchronizer. endpoint maps a project to its event stream URL.
func New(dialer stream.Dialer, endpoint func(projectID int64) string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{dialer: dialer, endpoint: endpoint, logger: logger}
}

// Open closes any current stream and opens one scoped to projectID.
func (s *Synchronizer) Open(projectID int64, sink stream.Sink) {
	s.Close()
	s.projectID = projectID
	s.lastErr = nil
	s.conn = s.dialer.Dial(stream.Request{Kind: "roster", URL: s.endpoint(projectID)}, sink)
	s.state = stream.Connected
	s.logger.Debug("roster stream opened", "project", projectID, "conn", s.conn.ID())
}

// Close closes the stream if one is open. Collections are kept.
func (s *Synchronizer) Close() {
	if s.conn == nil {
		return
	}
	s.logger.Debug("roster stream closed", "project", s.projectID, "conn", s.conn.ID())
	s.conn.Close()
	s.conn = nil
	s.state = stream.Disconnected
}

// Handle applies an event from the stream. Events from any connection other
// than the current one are ignored.
func (s *Synchronizer) Handle(ev stream.Event) Change {
	if s.conn == nil || ev.Conn != s.conn.ID() {
		return 0
	}
	if ev.Err != nil {
		s.logger.Warn("roster stream failed", "project", s.projectID, "error", ev.Err)
		s.conn.Close()
		s.conn = nil
		s.state = stream.Erroring
		s.lastErr = ev.Err
		return 0
	}

	switch ev.Event {
	case EventTask:
		var p taskPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil || p.ID == nil {
			s.drop(ev, err)
			return 0
		}
		s.upsertTask(api.Task{ID: *p.ID, Status: p.Status, Type: p.Type})
		return TasksChanged
	case EventSubtask:
		var p subtaskPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil || p.ID == nil {
			s.drop(ev, err)
			return 0
		}
		s.upsertSubtask(api.Subtask{ID: *p.ID, TaskID: p.TaskID, Status: p.Status})
		return SubtasksChanged
	case EventSnapshot:
		var p snapshotPayload
		if err := json.Unmarshal([]byte(ev.Data), &p); err != nil {
			s.drop(ev, err)
			return 0
		}
		s.Replace(p.Tasks, p.Subtasks)
		return TasksChanged | SubtasksChanged
	default:
		s.drop(ev, nil)
		return 0
	}
}

func (s *Synchronizer) drop(ev stream.Event, err error) {
	s.logger.Debug("roster frame dropped", "event", ev.Event, "error", err)
}

type taskPayload struct {
	ID     *int64 `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

type subtaskPayload struct {
	ID     *int64 `json:"id"`
	TaskID int64  `json:"taskId"`
	Status string `json:"status"`
}

type snapshotPayload struct {
	Tasks    []api.Task    `json:"tasks"`
	Subtasks []api.Subtask `json:"subtasks"`
}

// Replace swaps both collections for the given ones. Nothing from the previous
// contents survives. Entries without an id (zero, or null in a snapshot) are
// skipped since zero means "nothing selected".
func (s *Synchronizer) Replace(tasks []api.Task, subtasks []api.Subtask) {
	s.tasks = make([]api.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == 0 {
			continue
		}
		s.upsertTask(t)
	}
	s.subtasks = make([]api.Subtask, 0, len(subtasks))
	for _, st := range subtasks {
		if st.ID == 0 {
			continue
		}
		s.upsertSubtask(st)
	}
}

// Clear empties both collections.
func (s *Synchronizer) Clear() {
	s.tasks = nil
	s.subtasks = nil
}

// RemoveTask drops a task and its subtasks after the service acknowledged a
// delete. The stream never reports deletions.
func (s *Synchronizer) RemoveTask(taskID int64) Change {
	var change Change
	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID == taskID {
			change |= TasksChanged
			continue
		}
		tasks = append(tasks, t)
	}
	s.tasks = tasks

	subtasks := s.subtasks[:0]
	for _, st := range s.subtasks {
		if st.TaskID == taskID {
			change |= SubtasksChanged
			continue
		}
		subtasks = append(subtasks, st)
	}
	s.subtasks = subtasks
	return change
}

func (s *Synchronizer) upsertTask(t api.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i].Status = t.Status
			s.tasks[i].Type = t.Type
			return
		}
	}
	s.tasks = append(s.tasks, t)
}

func (s *Synchronizer) upsertSubtask(st api.Subtask) {
	for i := range s.subtasks {
		if s.subtasks[i].ID == st.ID {
			s.subtasks[i].Status = st.Status
			s.subtasks[i].TaskID = st.TaskID
			return
		}
	}
	s.subtasks = append(s.subtasks, st)
}

// Tasks returns a copy of the task collection in stream order.
func (s *Synchronizer) Tasks() []api.Task {
	return append([]api.Task(nil), s.tasks...)
}

// Subtasks returns a copy of the subtask collection in stream order.
func (s *Synchronizer) Subtasks() []api.Subtask {
	return append([]api.Subtask(nil), s.subtasks...)
}

func (s *Synchronizer) Task(id int64) (api.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return api.Task{}, false
}

func (s *Synchronizer) Subtask(id int64) (api.Subtask, bool) {
	for _, st := range s.subtasks {
		if st.ID == id {
			return st, true
		}
	}
	return api.Subtask{}, false
}

func (s *Synchronizer) HasSubtask(id int64) bool {
	_, ok := s.Subtask(id)
	return ok
}

func (s *Synchronizer) ProjectID() int64 { return s.projectID }
func (s *Synchronizer) State() stream.State { return s.state }
func (s *Synchronizer) Err() error { return s.lastErr }

// ConnID returns the current connection id, or 0 when no stream is open.
func (s *Synchronizer) ConnID() uint64 {
	if s.conn == nil {
		return 0
	}
	return s.conn.ID()
}
