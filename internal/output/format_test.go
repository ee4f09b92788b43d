package output

import (
	"bytes"
	"strings"
	"testing"

	"thatmon/internal/models"
	"thatmon/internal/storage"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, " yml ": FormatYAML, "yaml": FormatYAML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestPrintTableAligns(t *testing.T) {
	var buf bytes.Buffer
	tasks := Tasks{{ID: 7, Status: "running", Type: "feature"}, {ID: 1234, Status: "complete", Type: "bug"}}
	if err := Print(&buf, FormatTable, tasks); err != nil {
		t.Fatalf("Print: %v", err)
	}
	want := "" +
		"ID    STATUS    TYPE\n" +
		"7     running   feature\n" +
		"1234  complete  bug\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrintTableNormalizesCells(t *testing.T) {
	var buf bytes.Buffer
	projects := Projects{{ID: 1, ProjectName: "a\nb", Owner: "o", Repo: "r", Enabled: true}, {ID: 2, Owner: "o", Repo: "x"}}
	if err := Print(&buf, FormatTable, projects); err != nil {
		t.Fatalf("Print: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "a b") || !strings.Contains(lines[1], "o/r") || !strings.Contains(lines[1], "yes") {
		t.Fatalf("row1=%q", lines[1])
	}
	if !strings.Contains(lines[2], "(untitled)") || !strings.Contains(lines[2], "no") {
		t.Fatalf("row2=%q", lines[2])
	}
}

func TestPrintJSONEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatJSON, Subtasks(nil)); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestPrintYAMLUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatYAML, Subtasks{{ID: 5, TaskID: 2, Status: "pending"}}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- id: 5", "taskId: 2", "status: pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml missing %q:\n%s", want, out)
		}
	}
}

func TestModelsMarksCurrent(t *testing.T) {
	m := Models{List: []models.Model{{ID: "a"}, {ID: "b", OwnedBy: "me"}}, Current: "b"}
	rows := m.Rows()
	if rows[0][0] != "" || rows[1][0] != "*" || rows[1][2] != "me" {
		t.Fatalf("rows=%v", rows)
	}
}

func TestFormatEntry(t *testing.T) {
	var buf bytes.Buffer
	FormatEntry(&buf, storage.Entry{ID: "log_1", ProjectID: 3, TaskID: 4, SubtaskID: 9, Content: "line", CreatedAt: "2026-01-01T00:00:00.000000Z"})
	want := "log_1  project 3  subtask 4/9  2026-01-01T00:00:00.000000Z\n" + ListSeparator + "\nline\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
	if got := TargetLabel(storage.Entry{TaskID: 4}); got != "task 4" {
		t.Fatalf("TargetLabel=%q", got)
	}
}
