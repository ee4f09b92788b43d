package monitor

import (
	"thatmon/internal/api"
	"thatmon/internal/logtail"
)

// Selection holds the selected identifiers. Zero means nothing is selected.
type Selection struct {
	ProjectID int64
	TaskID    int64
	SubtaskID int64
}

// DeriveTarget computes the log target from the selection and the current
// subtask collection. A selected subtask wins; its owning task comes from
// the subtask itself and falls back to the selected task.
func DeriveTarget(sel Selection, subtasks []api.Subtask) *logtail.Target {
	if sel.SubtaskID != 0 {
		for _, st := range subtasks {
			if st.ID != sel.SubtaskID {
				continue
			}
			taskID := st.TaskID
			if taskID == 0 {
				taskID = sel.TaskID
			}
			if taskID == 0 {
				return nil
			}
			return &logtail.Target{Mode: logtail.ModeSubtask, TaskID: taskID, Subtask: st}
		}
	}
	if sel.TaskID != 0 {
		return &logtail.Target{Mode: logtail.ModeTask, TaskID: sel.TaskID}
	}
	return nil
}

// Action is a task lifecycle operation.
type Action string

const (
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionDelete  Action = "delete"
)

// Allowed reports whether the action may be requested for a task in status.
func (a Action) Allowed(status string) bool {
	switch a {
	case ActionStop:
		return status == api.StatusRunning
	case ActionRestart:
		return status != api.StatusRunning && status != api.StatusPending
	case ActionDelete:
		return status != api.StatusRunning
	default:
		return false
	}
}
