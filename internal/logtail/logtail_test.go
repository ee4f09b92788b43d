package logtail

import (
	"errors"
	"fmt"
	"testing"

	"thatmon/internal/api"
	"thatmon/internal/stream"
)

var testMessages = Messages{
	Placeholder: "pick something",
	Unavailable: "unavailable",
	Ended:       "ended",
	Restricted:  "only %s",
	Disabled:    "disabled",
}

func newTestController(t *testing.T, policy Policy) (*Controller, *stream.FakeDialer) {
	t.Helper()
	d := &stream.FakeDialer{}
	endpoint := func(tg Target) string {
		return fmt.Sprintf("logs/%s/%d/%d", tg.Mode, tg.TaskID, tg.Subtask.ID)
	}
	return New(d, endpoint, Options{Messages: testMessages, Policy: policy}), d
}

func taskTarget(id int64) *Target {
	return &Target{Mode: ModeTask, TaskID: id}
}

func subtaskTarget(taskID, id int64, status string) *Target {
	return &Target{Mode: ModeSubtask, TaskID: taskID, Subtask: api.Subtask{ID: id, TaskID: taskID, Status: status}}
}

func TestFrameSequence(t *testing.T) {
	c, d := newTestController(t, Policy{})
	if c.Buffer() != "pick something" {
		t.Fatalf("initial buffer = %q", c.Buffer())
	}
	c.Bind(taskTarget(1), true, nil)
	conn := d.Last()

	steps := []struct {
		data string
		want string
	}{
		{`{"chunk":"ab"}`, "ab"},
		{`{"chunk":"cd"}`, "abcd"},
		{`{"reset":true}`, ""},
		{`{"chunk":"x"}`, "x"},
		{`{"logs":"full"}`, "full"},
		{`{"reset":true,"chunk":"fresh"}`, "fresh"},
		{`{"chunk":""}`, "fresh"},
		{`{"logs":""}`, ""},
		{`{"chunk":"p"}`, "p"},
		{`{"success":false,"error":"boom"}`, "boom"},
		{`{"success":false}`, "unavailable"},
		{`{"success":false,"error":""}`, ""},
		{`{"success":true,"chunk":"ok"}`, "ok"},
		{`{"success":false,"error":"bad","logs":"ignored","chunk":"ignored"}`, "bad"},
		{`{"chunk":"old"}`, "badold"},
		{`{"reset":true,"chunk":5}`, ""},
		{`{"chunk":"again"}`, "again"},
		{`{"success":false,"error":7}`, "unavailable"},
		{`{"chunk":"z","logs":3}`, "unavailablez"},
		{`{"reset":1}`, ""},
		{`{"reset":"","chunk":9}`, ""},
		{`{"success":false,"error":null}`, "unavailable"},
		{`{"success":false,"error":"bad"}`, "bad"},
		{`not json`, "bad"},
		{`{"other":1}`, "bad"},
		{`null`, "bad"},
	}
	for i, step := range steps {
		c.Handle(conn.Frame("", step.data))
		if got := c.Buffer(); got != step.want {
			t.Fatalf("step %d (%s): buffer = %q, want %q", i, step.data, got, step.want)
		}
	}
	if c.State() != stream.Connected {
		t.Fatalf("failure frame closed the stream: %s", c.State())
	}
}

func TestTargetChangeClosesAndResets(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), true, nil)
	first := d.Last()
	c.Handle(first.Frame("", `{"chunk":"task one"}`))

	if !c.Bind(subtaskTarget(1, 10, "running"), true, nil) {
		t.Fatal("target change not reported")
	}
	second := d.Last()
	if !first.Closed() {
		t.Fatal("old log stream left open")
	}
	if len(d.Open()) != 1 {
		t.Fatalf("open log streams = %d", len(d.Open()))
	}
	if c.Buffer() != "" {
		t.Fatalf("buffer not emptied on target change: %q", c.Buffer())
	}
	if second.Request.URL != "logs/subtask/1/10" || second.Request.Kind != "logs" {
		t.Fatalf("unexpected request: %#v", second.Request)
	}

	c.Handle(first.Frame("", `{"chunk":"leak"}`))
	if c.Buffer() != "" {
		t.Fatalf("old stream leaked into buffer: %q", c.Buffer())
	}
	c.Handle(second.Frame("", `{"chunk":"sub"}`))
	if c.Buffer() != "sub" {
		t.Fatalf("buffer = %q", c.Buffer())
	}
}

func TestSameTargetKeepsStream(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(subtaskTarget(1, 10, "pending"), true, nil)
	c.Handle(d.Last().Frame("", `{"chunk":"keep"}`))

	if c.Bind(subtaskTarget(1, 10, "running"), true, nil) {
		t.Fatal("status change treated as target change")
	}
	if len(d.Conns()) != 1 || c.Buffer() != "keep" {
		t.Fatalf("stream rebuilt: conns=%d buffer=%q", len(d.Conns()), c.Buffer())
	}
	if c.Target().Subtask.Status != "running" {
		t.Fatalf("target status not refreshed: %#v", c.Target())
	}
}

func TestDeselectShowsPlaceholder(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), true, nil)
	conn := d.Last()
	c.Handle(conn.Frame("", `{"chunk":"x"}`))

	if !c.Bind(nil, true, nil) {
		t.Fatal("deselect not reported")
	}
	if !conn.Closed() || c.Buffer() != "pick something" || c.Target() != nil {
		t.Fatalf("closed=%v buffer=%q target=%v", conn.Closed(), c.Buffer(), c.Target())
	}
}

func TestTransportErrorOnEmptyBuffer(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), true, nil)
	conn := d.Last()

	c.Handle(conn.Failure(errors.New("eof")))
	if c.Buffer() != "ended" {
		t.Fatalf("buffer = %q", c.Buffer())
	}
	if !conn.Closed() || c.State() != stream.Erroring {
		t.Fatalf("closed=%v state=%s", conn.Closed(), c.State())
	}
}

func TestTransportErrorKeepsPartialLogs(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), true, nil)
	conn := d.Last()
	c.Handle(conn.Frame("", `{"chunk":"partial"}`))

	c.Handle(conn.Failure(nil))
	if c.Buffer() != "partial" {
		t.Fatalf("partial logs overwritten: %q", c.Buffer())
	}
	if !conn.Closed() {
		t.Fatal("stream not closed")
	}
	c.Handle(conn.Frame("", `{"chunk":"late"}`))
	if c.Buffer() != "partial" {
		t.Fatalf("event after error applied: %q", c.Buffer())
	}

	if !c.Reopen(nil) {
		t.Fatal("reopen refused")
	}
	if len(d.Open()) != 1 || c.Buffer() != "" || c.State() != stream.Connected {
		t.Fatalf("reopen: open=%d buffer=%q state=%s", len(d.Open()), c.Buffer(), c.State())
	}
}

func TestUnavailableProjectOpensNothing(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), false, nil)
	if len(d.Conns()) != 0 {
		t.Fatal("stream opened for unavailable project")
	}
	if c.Buffer() != "disabled" {
		t.Fatalf("buffer = %q", c.Buffer())
	}
	if c.Reopen(nil) {
		t.Fatal("reopen opened a stream for unavailable project")
	}
}

func TestTailPolicy(t *testing.T) {
	c, d := newTestController(t, Policy{Statuses: []string{"running", "pending"}})

	c.Bind(subtaskTarget(1, 10, "complete"), true, nil)
	if len(d.Conns()) != 0 {
		t.Fatal("restricted subtask was tailed")
	}
	if c.Buffer() != "only running/pending" {
		t.Fatalf("buffer = %q", c.Buffer())
	}

	// Becoming eligible rebinds the same subtask.
	if !c.Bind(subtaskTarget(1, 10, "running"), true, nil) {
		t.Fatal("eligibility change not rebound")
	}
	if len(d.Open()) != 1 {
		t.Fatalf("open streams = %d", len(d.Open()))
	}

	// Task mode is never restricted.
	c.Bind(taskTarget(1), true, nil)
	if len(d.Open()) != 1 || d.Last().Request.URL != "logs/task/1/0" {
		t.Fatalf("task mode restricted: %#v", d.Last().Request)
	}
}

func TestCloseKeepsBufferAndStopsEvents(t *testing.T) {
	c, d := newTestController(t, Policy{})
	c.Bind(taskTarget(1), true, nil)
	conn := d.Last()
	c.Handle(conn.Frame("", `{"chunk":"kept"}`))

	c.Close()
	if !conn.Closed() || c.State() != stream.Disconnected {
		t.Fatalf("closed=%v state=%s", conn.Closed(), c.State())
	}
	c.Handle(conn.Frame("", `{"chunk":"late"}`))
	if c.Buffer() != "kept" {
		t.Fatalf("buffer = %q", c.Buffer())
	}

	c.Reset()
	if c.Buffer() != "pick something" {
		t.Fatalf("reset buffer = %q", c.Buffer())
	}
}

func TestSame(t *testing.T) {
	if !Same(nil, nil) {
		t.Fatal("nil targets differ")
	}
	if Same(taskTarget(1), nil) || Same(nil, taskTarget(1)) {
		t.Fatal("nil equals present target")
	}
	if Same(taskTarget(1), subtaskTarget(1, 0, "")) {
		t.Fatal("modes compared equal")
	}
	if !Same(subtaskTarget(1, 2, "a"), subtaskTarget(1, 2, "b")) {
		t.Fatal("status affects target identity")
	}
}
