// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"thatmon/internal/api"
	"thatmon/internal/models"
	"thatmon/internal/storage"
)

// Format selects how list commands render their results.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ListSeparator separates log bodies from their headers.
const ListSeparator = "------------"

// ParseFormat accepts "table", "json" or "yaml" (case-insensitive). Empty means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Table is a list that knows how to lay itself out in columns.
type Table interface {
	Header() []string
	Rows() [][]string
	Value() any
}

// Print writes t in format f.
func Print(w io.Writer, f Format, t Table) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Value())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.Value()); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return writeTable(w, t.Header(), t.Rows())
	}
	return fmt.Errorf("unknown output format %q", f)
}

// maxCell caps a column so one long title does not push everything off screen.
const maxCell = 48

func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(header))
		for i := range header {
			if i >= len(row) {
				continue
			}
			c := runewidth.Truncate(normalizeCell(row[i]), maxCell, "…")
			cells[r][i] = c
			if cw := runewidth.StringWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	if err := writeRow(w, header, widths); err != nil {
		return err
	}
	for _, row := range cells {
		if err := writeRow(w, row, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, row []string, widths []int) error {
	var b strings.Builder
	for i, c := range row {
		if i == len(row)-1 {
			b.WriteString(c)
			break
		}
		b.WriteString(runewidth.FillRight(c, widths[i]))
		b.WriteString("  ")
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	return err
}

// normalizeCell keeps rows on one line.
func normalizeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func normalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(untitled)"
	}
	return s
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Projects renders a project list.
type Projects []api.Project

func (p Projects) Header() []string {
	return []string{"ID", "NAME", "REPO", "ENABLED", "MODEL", "BRANCH"}
}

func (p Projects) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, pr := range p {
		rows = append(rows, []string{id(pr.ID), normalizeTitle(pr.ProjectName), pr.Slug(), yesNo(pr.Enabled), pr.DefaultModel, pr.DefaultBaseBranch})
	}
	return rows
}

func (p Projects) Value() any { return nonNil([]api.Project(p)) }

// Tasks renders a task list.
type Tasks []api.Task

func (t Tasks) Header() []string { return []string{"ID", "STATUS", "TYPE"} }

func (t Tasks) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, task := range t {
		rows = append(rows, []string{id(task.ID), task.Status, task.Type})
	}
	return rows
}

func (t Tasks) Value() any { return nonNil([]api.Task(t)) }

// Subtasks renders a subtask list.
type Subtasks []api.Subtask

func (s Subtasks) Header() []string { return []string{"ID", "TASK", "STATUS"} }

func (s Subtasks) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, st := range s {
		rows = append(rows, []string{id(st.ID), id(st.TaskID), st.Status})
	}
	return rows
}

func (s Subtasks) Value() any { return nonNil([]api.Subtask(s)) }

// Models renders the model catalog. Current is marked with "*".
type Models struct {
	List    []models.Model
	Current string
}

func (m Models) Header() []string { return []string{"", "MODEL", "OWNER"} }

func (m Models) Rows() [][]string {
	rows := make([][]string, 0, len(m.List))
	for _, mod := range m.List {
		mark := ""
		if mod.ID == m.Current {
			mark = "*"
		}
		rows = append(rows, []string{mark, mod.ID, mod.OwnedBy})
	}
	return rows
}

func (m Models) Value() any { return nonNil(m.List) }

// Entries renders archived log snapshots.
type Entries []storage.Entry

func (e Entries) Header() []string {
	return []string{"ID", "PROJECT", "TARGET", "SIZE", "TOKENS", "CREATED"}
}

func (e Entries) Rows() [][]string {
	rows := make([][]string, 0, len(e))
	for _, en := range e {
		rows = append(rows, []string{en.ID, id(en.ProjectID), TargetLabel(en), strconv.Itoa(en.Size), strconv.Itoa(en.Tokens), en.CreatedAt})
	}
	return rows
}

func (e Entries) Value() any { return nonNil([]storage.Entry(e)) }

// TargetLabel formats an entry's target as "task 12" or "subtask 12/30".
func TargetLabel(e storage.Entry) string {
	if e.SubtaskID != 0 {
		return fmt.Sprintf("subtask %d/%d", e.TaskID, e.SubtaskID)
	}
	return fmt.Sprintf("task %d", e.TaskID)
}

// FormatEntry writes one archived entry with its header.
func FormatEntry(w io.Writer, e storage.Entry) {
	fmt.Fprintf(w, "%s  project %d  %s  %s\n", e.ID, e.ProjectID, TargetLabel(e), e.CreatedAt)
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprint(w, e.Content)
	if e.Content != "" && !strings.HasSuffix(e.Content, "\n") {
		fmt.Fprintln(w)
	}
}

// nonNil keeps json output as [] rather than null for empty lists.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
