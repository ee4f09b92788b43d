package api

// Known task / subtask statuses. The service may report others; Status
// fields are plain strings and unknown values are carried through unchanged.
const (
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Project is a repository the orchestration service works on.
type Project struct {
	ID                      int64   `json:"id" yaml:"id"`
	ProjectName             string  `json:"projectName" yaml:"projectName"`
	Owner                   string  `json:"owner" yaml:"owner"`
	Repo                    string  `json:"repo" yaml:"repo"`
	Enabled                 bool    `json:"enabled" yaml:"enabled"`
	DefaultModel            string  `json:"defaultModel" yaml:"defaultModel"`
	DefaultBaseBranch       string  `json:"defaultBaseBranch" yaml:"defaultBaseBranch"`
	ProjectSpecification    *string `json:"projectSpecification,omitempty" yaml:"projectSpecification,omitempty"`
	ShouldHaveMemories      bool    `json:"shouldHaveMemories" yaml:"shouldHaveMemories"`
	ShouldOverwriteMemories bool    `json:"shouldOverwriteMemories" yaml:"shouldOverwriteMemories"`
	MaxLLMRetries           int     `json:"maxLLMRetries" yaml:"maxLLMRetries"`
	MaxChainedPRs           int     `json:"maxChainedPRs" yaml:"maxChainedPRs"`
}

// Specification returns the project specification or "" when unset.
func (p Project) Specification() string {
	if p.ProjectSpecification == nil {
		return ""
	}
	return *p.ProjectSpecification
}

// Slug returns "owner/repo".
func (p Project) Slug() string {
	return p.Owner + "/" + p.Repo
}

type Task struct {
	ID     int64  `json:"id" yaml:"id"`
	Status string `json:"status" yaml:"status"`
	Type   string `json:"type" yaml:"type"`
}

type Subtask struct {
	ID     int64  `json:"id" yaml:"id"`
	TaskID int64  `json:"taskId" yaml:"taskId"`
	Status string `json:"status" yaml:"status"`
}

// Pagination limits list results. Zero values are omitted from the query.
type Pagination struct {
	Limit  int
	Offset int
}

// Manual subtask modes.
const (
	ModeNewTask      = "new_task"
	ModeExistingTask = "existing_task"
)

// CreateManualSubtaskRequest either starts a new task in a project
// (ModeNewTask, ProjectID) or appends a subtask to a task (ModeExistingTask, TaskID).
type CreateManualSubtaskRequest struct {
	Mode      string `json:"mode"`
	ProjectID int64  `json:"projectId,omitempty"`
	TaskID    int64  `json:"taskId,omitempty"`
	Prompt    string `json:"prompt"`
	ModelName string `json:"modelName,omitempty"`
}

// UpdateProjectRequest identifies the project by owner/repo; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Owner                   string  `json:"owner"`
	Repo                    string  `json:"repo"`
	ProjectName             *string `json:"projectName,omitempty"`
	DefaultBaseBranch       *string `json:"defaultBaseBranch,omitempty"`
	DefaultModel            *string `json:"defaultModel,omitempty"`
	ProjectSpecification    *string `json:"projectSpecification,omitempty"`
	Enabled                 *bool   `json:"enabled,omitempty"`
	ShouldHaveMemories      *bool   `json:"shouldHaveMemories,omitempty"`
	ShouldOverwriteMemories *bool   `json:"shouldOverwriteMemories,omitempty"`
	MaxLLMRetries           *int    `json:"maxLLMRetries,omitempty"`
	MaxChainedPRs           *int    `json:"maxChainedPRs,omitempty"`
}

// CreateManualSubtaskResponse carries the created entities as returned by the service.
type CreateManualSubtaskResponse struct {
	Task    *Task    `json:"task"`
	Subtask *Subtask `json:"subtask"`
}
