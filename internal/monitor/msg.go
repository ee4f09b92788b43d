package monitor

import (
	"context"

	"thatmon/internal/api"
	"thatmon/internal/stream"
)

// Msg is anything delivered to Monitor.Update.
type Msg any

// Cmd is a side effect run off the loop. Its result is fed back to Update.
type Cmd func(ctx context.Context) Msg

// RosterEventMsg carries an event from the roster stream.
type RosterEventMsg struct{ Event stream.Event }

// LogEventMsg carries an event from the log stream.
type LogEventMsg struct{ Event stream.Event }

type ProjectsLoadedMsg struct {
	Projects []api.Project
	Keep     bool
	Err      error
}

// RosterLoadedMsg is the REST load of a project's tasks and subtasks.
type RosterLoadedMsg struct {
	ProjectID int64
	Tasks     []api.Task
	Subtasks  []api.Subtask
	Err       error
}

type TaskActionMsg struct {
	Action    Action
	ProjectID int64
	TaskID    int64
	Err       error
}

type SubtaskCreatedMsg struct {
	ProjectID int64
	Response  api.CreateManualSubtaskResponse
	Err       error
}

type ProjectUpdatedMsg struct {
	ProjectID int64
	Err       error
}
