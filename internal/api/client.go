package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"thatmon/internal/config"
)

// Client speaks the orchestration service's REST contract. The bearer
// credential is opaque: it is attached to every request and never inspected.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	// streamClient has no overall timeout; long-lived streams end by cancellation.
	streamClient *http.Client
}

func NewClient(cfg config.ServerConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	transport := bearerTransport(cfg.Token)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

func bearerTransport(token string) http.RoundTripper {
	if strings.TrimSpace(token) == "" {
		return http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   http.DefaultTransport,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// StreamHTTPClient returns the client used for server-pushed streams.
func (c *Client) StreamHTTPClient() *http.Client { return c.streamClient }

// ProjectEventsURL is the roster stream for a project.
func (c *Client) ProjectEventsURL(projectID int64) string {
	q := url.Values{}
	q.Set("projectId", strconv.FormatInt(projectID, 10))
	if c.token != "" {
		q.Set("token", c.token)
	}
	return c.baseURL + "/task/events/stream?" + q.Encode()
}

// TaskLogsURL is the log stream for a task. A zero subtaskID selects task
// mode, where the server follows the task's current subtask.
func (c *Client) TaskLogsURL(taskID, subtaskID int64) string {
	q := url.Values{}
	if subtaskID != 0 {
		q.Set("subtaskId", strconv.FormatInt(subtaskID, 10))
	}
	if c.token != "" {
		q.Set("token", c.token)
	}
	u := c.baseURL + "/task/" + strconv.FormatInt(taskID, 10) + "/logs/stream"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) ListProjects(ctx context.Context, page Pagination) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/task/projects"+page.query(), nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out.Projects, nil
}

func (c *Client) ListProjectTasks(ctx context.Context, projectID int64, page Pagination) ([]Task, error) {
	var out struct {
		Tasks []struct {
			Task Task `json:"task"`
		} `json:"tasks"`
	}
	path := "/task/projects/" + strconv.FormatInt(projectID, 10) + "/tasks" + page.query()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list tasks of project %d: %w", projectID, err)
	}
	tasks := make([]Task, 0, len(out.Tasks))
	for _, t := range out.Tasks {
		tasks = append(tasks, t.Task)
	}
	return tasks, nil
}

func (c *Client) ListProjectSubtasks(ctx context.Context, projectID int64, page Pagination) ([]Subtask, error) {
	var out struct {
		Subtasks []struct {
			Subtask Subtask `json:"subtask"`
		} `json:"subtasks"`
	}
	path := "/task/projects/" + strconv.FormatInt(projectID, 10) + "/subtasks" + page.query()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list subtasks of project %d: %w", projectID, err)
	}
	subtasks := make([]Subtask, 0, len(out.Subtasks))
	for _, s := range out.Subtasks {
		subtasks = append(subtasks, s.Subtask)
	}
	return subtasks, nil
}

func (c *Client) CreateManualSubtask(ctx context.Context, req CreateManualSubtaskRequest) (CreateManualSubtaskResponse, error) {
	switch req.Mode {
	case ModeNewTask:
		if req.ProjectID == 0 {
			return CreateManualSubtaskResponse{}, fmt.Errorf("create manual subtask: project id is required")
		}
	case ModeExistingTask:
		if req.TaskID == 0 {
			return CreateManualSubtaskResponse{}, fmt.Errorf("create manual subtask: task id is required")
		}
	default:
		return CreateManualSubtaskResponse{}, fmt.Errorf("create manual subtask: unknown mode %q", req.Mode)
	}
	var out CreateManualSubtaskResponse
	if err := c.do(ctx, http.MethodPost, "/manual/subtask", req, &out); err != nil {
		return CreateManualSubtaskResponse{}, fmt.Errorf("create manual subtask: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateProject(ctx context.Context, req UpdateProjectRequest) error {
	if err := c.do(ctx, http.MethodPost, "/task/update-project", req, nil); err != nil {
		return fmt.Errorf("update project %s/%s: %w", req.Owner, req.Repo, err)
	}
	return nil
}

func (c *Client) StopTask(ctx context.Context, taskID int64) error {
	return c.taskAction(ctx, "stop", taskID)
}

func (c *Client) RestartTask(ctx context.Context, taskID int64) error {
	return c.taskAction(ctx, "restart", taskID)
}

func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	return c.taskAction(ctx, "delete", taskID)
}

func (c *Client) taskAction(ctx context.Context, action string, taskID int64) error {
	body := map[string]int64{"taskId": taskID}
	if err := c.do(ctx, http.MethodPost, "/task/"+action, body, nil); err != nil {
		return fmt.Errorf("%s task %d: %w", action, taskID, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if readErr != nil {
			return &Error{Status: resp.StatusCode, Body: fmt.Sprintf("(read error: %v)", readErr)}
		}
		return &Error{Status: resp.StatusCode, Body: errorBodyText(data, resp.Header.Get("Content-Type"))}
	}
	if readErr != nil {
		return fmt.Errorf("read response: %w", readErr)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var envelope struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Success != nil && !*envelope.Success {
		msg := strings.TrimSpace(envelope.Error)
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Body: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (p Pagination) query() string {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
