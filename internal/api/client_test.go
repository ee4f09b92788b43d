package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"thatmon/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ServerConfig{BaseURL: srv.URL + "/", Token: "tok-1", TimeoutMS: 2000})
}

func TestListProjectsSendsBearerAndPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization=%q", got)
		}
		if r.URL.Path != "/task/projects" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "10" || r.URL.Query().Get("offset") != "20" {
			t.Errorf("query=%q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"success":true,"projects":[{"id":1,"projectName":"p","owner":"o","repo":"r","enabled":true}]}`)
	})

	projects, err := c.ListProjects(context.Background(), Pagination{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != 1 || !projects[0].Enabled || projects[0].Slug() != "o/r" {
		t.Fatalf("unexpected projects: %#v", projects)
	}
}

func TestListProjectTasksUnwrapsEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/task/projects/7/tasks":
			_, _ = io.WriteString(w, `{"tasks":[{"task":{"id":1,"status":"running","type":"manual"}},{"task":{"id":2,"status":"queued","type":"issue"}}]}`)
		case "/task/projects/7/subtasks":
			_, _ = io.WriteString(w, `{"subtasks":[{"subtask":{"id":10,"taskId":1,"status":"pending"}}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	tasks, err := c.ListProjectTasks(context.Background(), 7, Pagination{})
	if err != nil {
		t.Fatalf("ListProjectTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Status != "queued" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	subtasks, err := c.ListProjectSubtasks(context.Background(), 7, Pagination{})
	if err != nil {
		t.Fatalf("ListProjectSubtasks: %v", err)
	}
	if len(subtasks) != 1 || subtasks[0].TaskID != 1 {
		t.Fatalf("unexpected subtasks: %#v", subtasks)
	}
}

func TestTaskActionsPostTaskID(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		var body map[string]int64
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["taskId"] != 42 {
			t.Errorf("taskId=%d", body["taskId"])
		}
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	ctx := context.Background()
	if err := c.StopTask(ctx, 42); err != nil {
		t.Fatal(err)
	}
	if err := c.RestartTask(ctx, 42); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteTask(ctx, 42); err != nil {
		t.Fatal(err)
	}
	want := []string{"/task/stop", "/task/restart", "/task/delete"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths=%v", paths)
	}
}

func TestNonSuccessStatusIsDescriptive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html><head><style>p{}</style></head><body><h1>Bad Gateway</h1><p>upstream down</p></body></html>`)
	})

	err := c.StopTask(context.Background(), 1)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status=%d", apiErr.Status)
	}
	if apiErr.Body != "Bad Gateway upstream down" {
		t.Fatalf("body=%q", apiErr.Body)
	}
	if !strings.Contains(err.Error(), "API 502: Bad Gateway upstream down") {
		t.Fatalf("error=%q", err.Error())
	}
}

func TestSuccessFalseIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"project not found"}`)
	})
	err := c.UpdateProject(context.Background(), UpdateProjectRequest{Owner: "o", Repo: "r"})
	if err == nil || !strings.Contains(err.Error(), "project not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateManualSubtaskValidatesMode(t *testing.T) {
	var got CreateManualSubtaskRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"task":{"id":3,"status":"pending","type":"manual"},"subtask":{"id":9,"taskId":3,"status":"pending"}}`)
	})
	ctx := context.Background()

	if _, err := c.CreateManualSubtask(ctx, CreateManualSubtaskRequest{Mode: ModeExistingTask, Prompt: "x"}); err == nil {
		t.Fatal("expected error without task id")
	}
	if _, err := c.CreateManualSubtask(ctx, CreateManualSubtaskRequest{Mode: "other"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}

	resp, err := c.CreateManualSubtask(ctx, CreateManualSubtaskRequest{Mode: ModeNewTask, ProjectID: 5, Prompt: "fix it"})
	if err != nil {
		t.Fatalf("CreateManualSubtask: %v", err)
	}
	if got.Mode != ModeNewTask || got.ProjectID != 5 || got.Prompt != "fix it" || got.TaskID != 0 {
		t.Fatalf("unexpected request: %#v", got)
	}
	if resp.Subtask == nil || resp.Subtask.TaskID != 3 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestStreamURLs(t *testing.T) {
	c := NewClient(config.ServerConfig{BaseURL: "http://svc:5001", Token: "a b"})
	if got := c.ProjectEventsURL(3); got != "http://svc:5001/task/events/stream?projectId=3&token=a+b" {
		t.Fatalf("ProjectEventsURL=%q", got)
	}
	if got := c.TaskLogsURL(4, 0); got != "http://svc:5001/task/4/logs/stream?token=a+b" {
		t.Fatalf("TaskLogsURL task mode=%q", got)
	}
	if got := c.TaskLogsURL(4, 9); got != "http://svc:5001/task/4/logs/stream?subtaskId=9&token=a+b" {
		t.Fatalf("TaskLogsURL subtask mode=%q", got)
	}

	anon := NewClient(config.ServerConfig{BaseURL: "http://svc:5001"})
	if got := anon.TaskLogsURL(4, 0); got != "http://svc:5001/task/4/logs/stream" {
		t.Fatalf("anonymous TaskLogsURL=%q", got)
	}
}
