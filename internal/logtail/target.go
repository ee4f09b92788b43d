package logtail

import (
	"slices"
	"strings"

	"thatmon/internal/api"
)

type Mode string

const (
	// ModeTask follows whichever subtask the service considers current.
	ModeTask Mode = "task"
	// ModeSubtask is pinned to one subtask.
	ModeSubtask Mode = "subtask"
)

// Target is the entity whose logs are tailed. Subtask is the zero value in
// task mode.
type Target struct {
	Mode    Mode
	TaskID  int64
	Subtask api.Subtask
}

// Key identifies a target for change detection. Status is not part of it:
// a status update on the tailed subtask does not restart its stream.
type Key struct {
	Mode      Mode
	TaskID    int64
	SubtaskID int64
}

func (t Target) Key() Key {
	return Key{Mode: t.Mode, TaskID: t.TaskID, SubtaskID: t.Subtask.ID}
}

// Same reports whether two optional targets address the same logs.
func Same(a, b *Target) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Policy decides which subtask statuses may be tailed. An empty policy
// allows every status. Task-mode targets are always allowed.
type Policy struct {
	Statuses []string
}

func (p Policy) Allows(t Target) bool {
	if t.Mode != ModeSubtask || len(p.Statuses) == 0 {
		return true
	}
	return slices.Contains(p.Statuses, strings.ToLower(t.Subtask.Status))
}

// Describe renders the allowed statuses as "a/b".
func (p Policy) Describe() string {
	return strings.Join(p.Statuses, "/")
}
