package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"thatmon/internal/api"
	"thatmon/internal/i18n"
	"thatmon/internal/monitor"
	"thatmon/internal/output"
	"thatmon/internal/storage"
	"thatmon/internal/tokenizer"
	"thatmon/internal/tui"
)

type consoleCommand struct {
	usage string
	help  string
}

var consoleCommands = []consoleCommand{
	{"projects", "list projects"},
	{"use <project-id>", "select a project (0 clears)"},
	{"tasks", "list tasks of the selected project"},
	{"subtasks", "list subtasks of the selected task, or all"},
	{"task <id>", "select a task (0 clears)"},
	{"subtask <id>", "select a subtask (0 clears)"},
	{"logs", "print the log buffer"},
	{"stop", "stop the selected task"},
	{"restart", "restart the selected task"},
	{"delete", "delete the selected task"},
	{"prompt <text>", "schedule a prompt (follow-up of the selected task, if any)"},
	{"toggle", "enable or disable the selected project"},
	{"refresh", "reload the project list"},
	{"reconnect", "reopen the log stream"},
	{"archive", "save the log buffer to the archive"},
	{"help", "show commands"},
	{"quit", "exit"},
}

func printConsoleCommands(out io.Writer) {
	fmt.Fprintln(out, i18n.T("console.commands"))
	for _, c := range consoleCommands {
		fmt.Fprintf(out, "  %-18s %s\n", c.usage, c.help)
	}
}

func newConsoleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Line-mode monitor with history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), e)
		},
	}
}

func runConsole(ctx context.Context, e *env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var c *console
	ids := func(command string) []string {
		if c == nil {
			return nil
		}
		return c.complete(command)
	}
	input, inputErr := newLineInput(filepath.Join(e.cfg.Storage.BaseDir, "console.history"), ids)
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer input.Close()
	out := input.Writer()

	client := e.client()
	h := tui.NewHeadless(ctx, e.monitorOptions(client))
	m := h.Monitor()
	h.Settle(m.Refresh(false))

	c = &console{ctx: ctx, loop: h, out: out}
	if archive, err := e.openArchive(); err != nil {
		e.logger.Warn("log archive unavailable", "error", err)
	} else {
		defer archive.Close()
		c.archive = archive
	}

	printer := newLogPrinter(out)
	printer.print(m.View())
	done := make(chan error, 1)
	go func() {
		done <- h.Run(func(m *monitor.Monitor, _ monitor.Msg) bool {
			printer.print(m.View())
			return true
		})
	}()

	fmt.Fprintln(out, i18n.T("console.welcome", client.BaseURL()))
	printConsoleCommands(out)

	for {
		line, err := input.ReadLine()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "read input failed: %v\n", err)
			}
			break
		}
		quit, err := c.exec(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}

	cancel()
	<-done
	fmt.Fprintln(out, i18n.T("console.bye"))
	return nil
}

// console 在监控循环上执行命令
// console runs commands on the monitor loop
type console struct {
	ctx     context.Context
	loop    *tui.Headless
	out     io.Writer
	archive storage.Archive
}

func (c *console) exec(line string) (quit bool, err error) {
	if line == "" {
		return false, nil
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		printConsoleCommands(c.out)
	case "projects":
		v, err := c.view()
		if err != nil {
			return false, err
		}
		return false, output.Print(c.out, output.FormatTable, output.Projects(v.Projects))
	case "tasks":
		v, err := c.view()
		if err != nil {
			return false, err
		}
		return false, output.Print(c.out, output.FormatTable, output.Tasks(v.Tasks))
	case "subtasks":
		v, err := c.view()
		if err != nil {
			return false, err
		}
		return false, output.Print(c.out, output.FormatTable, output.Subtasks(v.VisibleSubtasks()))
	case "logs":
		v, err := c.view()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, v.Logs)
	case "use", "task", "subtask":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		return false, c.call(func(m *monitor.Monitor) (monitor.Cmd, error) {
			switch name {
			case "use":
				return m.SelectProject(id)
			case "task":
				m.SelectTask(id)
				return nil, nil
			default:
				return nil, m.SelectSubtask(id)
			}
		})
	case "stop":
		return false, c.call((*monitor.Monitor).Stop)
	case "restart":
		return false, c.call((*monitor.Monitor).Restart)
	case "delete":
		return false, c.call((*monitor.Monitor).Delete)
	case "toggle":
		return false, c.call((*monitor.Monitor).ToggleEnabled)
	case "refresh":
		return false, c.call(func(m *monitor.Monitor) (monitor.Cmd, error) { return m.Refresh(true), nil })
	case "reconnect":
		return false, c.call(func(m *monitor.Monitor) (monitor.Cmd, error) {
			m.ReconnectLogs()
			return nil, nil
		})
	case "prompt":
		return false, c.call(func(m *monitor.Monitor) (monitor.Cmd, error) {
			v := m.View()
			p, _ := v.Project()
			mode := api.ModeNewTask
			if v.Selection.TaskID != 0 {
				mode = api.ModeExistingTask
			}
			return m.CreateManualSubtask(mode, 0, arg, p.DefaultModel)
		})
	case "archive":
		return false, c.saveArchive()
	default:
		fmt.Fprintln(c.out, i18n.T("console.unknown", name))
	}
	return false, nil
}

// call 在监控循环上执行 fn 并等待其同步部分完成
// call runs fn on the monitor loop and waits for its synchronous part
func (c *console) call(fn func(*monitor.Monitor) (monitor.Cmd, error)) error {
	errc := make(chan error, 1)
	c.loop.Dispatch(func(m *monitor.Monitor) monitor.Cmd {
		cmd, err := fn(m)
		errc <- err
		return cmd
	})
	select {
	case err := <-errc:
		return err
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// complete lists the ids the argument of command can take.
func (c *console) complete(command string) []string {
	v, err := c.view()
	if err != nil {
		return nil
	}
	var ids []int64
	switch command {
	case "use":
		for _, p := range v.Projects {
			ids = append(ids, p.ID)
		}
	case "task":
		for _, t := range v.Tasks {
			ids = append(ids, t.ID)
		}
	case "subtask":
		for _, st := range v.VisibleSubtasks() {
			ids = append(ids, st.ID)
		}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

func (c *console) view() (monitor.View, error) {
	var v monitor.View
	err := c.call(func(m *monitor.Monitor) (monitor.Cmd, error) {
		v = m.View()
		return nil, nil
	})
	return v, err
}

func (c *console) saveArchive() error {
	if c.archive == nil {
		return errors.New("archive unavailable")
	}
	v, err := c.view()
	if err != nil {
		return err
	}
	if v.Target == nil {
		return errors.New(i18n.T("error.no_task"))
	}
	saved, err := c.archive.Save(storage.Entry{
		ProjectID: v.Selection.ProjectID,
		TaskID:    v.Target.TaskID,
		SubtaskID: v.Target.Subtask.ID,
		Mode:      string(v.Target.Mode),
		Content:   v.Logs,
		Tokens:    tokenizer.Heuristic().CountText(v.Logs),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, i18n.T("logs.archived", saved.ID))
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
