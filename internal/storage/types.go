package storage

import (
	"errors"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound 归档条目不存在
// ErrNotFound is returned when an archive entry does not exist
var ErrNotFound = errors.New("archive entry not found")

// Entry 日志归档条目
// Entry is one archived copy of a log buffer
type Entry struct {
	ID        string `json:"id" yaml:"id"`
	ProjectID int64  `json:"project_id" yaml:"project_id"`
	TaskID    int64  `json:"task_id" yaml:"task_id"`
	SubtaskID int64  `json:"subtask_id,omitempty" yaml:"subtask_id,omitempty"`
	Mode      string `json:"mode" yaml:"mode"`
	Content   string `json:"content,omitempty" yaml:"content,omitempty"`
	Size      int    `json:"size" yaml:"size"`
	Tokens    int    `json:"tokens" yaml:"tokens"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// Filter 列表过滤条件，零值字段不参与过滤
// Filter narrows List results; zero fields match everything
type Filter struct {
	ProjectID int64
	TaskID    int64
	SubtaskID int64
	Limit     int
}

// Archive 日志归档接口
// Archive stores explicit user-triggered snapshots of the log buffer
type Archive interface {
	Save(entry Entry) (Entry, error)
	List(filter Filter) ([]Entry, error)
	Load(id string) (Entry, error)
	Prune(projectID, taskID, subtaskID int64, keep int) (int, error)
	Close() error
}

// NewEntryID 生成归档条目 ID / Generates an archive entry ID
func NewEntryID() string {
	return "log_" + uuid.NewString()
}

// DBPath 返回归档数据库路径 / Returns the archive database path
func DBPath(baseDir string) string {
	return filepath.Join(baseDir, "thatmon.db")
}
