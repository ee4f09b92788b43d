package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"thatmon/internal/monitor"
	"thatmon/internal/output"
	"thatmon/internal/stream"
	"thatmon/internal/tui"
)

func newTailCmd(e *env) *cobra.Command {
	var (
		projectID int64
		taskID    int64
		subtaskID int64
		keepOpen  bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream the logs of a task or subtask to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == 0 {
				return errors.New("--project is required")
			}
			if taskID == 0 && subtaskID == 0 {
				return errors.New("--task or --subtask is required")
			}
			h := tui.NewHeadless(cmd.Context(), e.monitorOptions(e.client()))
			return runTail(h, tailTarget{projectID, taskID, subtaskID}, keepOpen, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "Project id")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Task id (task mode follows the task's current subtask)")
	cmd.Flags().Int64Var(&subtaskID, "subtask", 0, "Subtask id")
	cmd.Flags().BoolVar(&keepOpen, "keep-open", false, "Keep running after the log stream ends")
	return cmd
}

type tailTarget struct {
	projectID, taskID, subtaskID int64
}

// runTail 选中目标后运行监控循环，直到日志流结束或 ctx 取消
// runTail selects the target, then runs the monitor loop until the log stream
// ends or the context is cancelled
func runTail(h *tui.Headless, target tailTarget, keepOpen bool, out io.Writer) error {
	if err := selectTarget(h, target); err != nil {
		h.Close()
		return err
	}

	printer := newLogPrinter(out)
	printer.print(h.Monitor().View())
	err := h.Run(func(m *monitor.Monitor, _ monitor.Msg) bool {
		v := m.View()
		printer.print(v)
		return keepOpen || v.LogState != stream.Erroring
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// selectTarget loads the roster synchronously and selects the target. It
// runs before the loop starts.
func selectTarget(h *tui.Headless, target tailTarget) error {
	m := h.Monitor()
	h.Settle(m.Refresh(false))
	if v := m.View(); v.Err != "" {
		return errors.New(v.Err)
	}
	cmd, err := m.SelectProject(target.projectID)
	if err != nil {
		return err
	}
	h.Settle(cmd)
	if v := m.View(); v.Err != "" {
		return errors.New(v.Err)
	}
	if target.taskID != 0 {
		m.SelectTask(target.taskID)
	}
	if target.subtaskID != 0 {
		if err := m.SelectSubtask(target.subtaskID); err != nil {
			return err
		}
	}
	if m.View().Target == nil {
		return fmt.Errorf("nothing to tail in project %d", target.projectID)
	}
	return nil
}

// logPrinter 把日志缓冲的增量写到输出
// logPrinter writes log buffer deltas, errors and notices to out
type logPrinter struct {
	out    io.Writer
	rev    uint64
	logs   string
	err    string
	notice string
}

func newLogPrinter(out io.Writer) *logPrinter {
	return &logPrinter{out: out}
}

func (p *logPrinter) print(v monitor.View) {
	if v.Target != nil {
		switch {
		case v.LogRevision == p.rev && strings.HasPrefix(v.Logs, p.logs):
			fmt.Fprint(p.out, v.Logs[len(p.logs):])
		case v.Logs != "":
			if p.logs != "" && !strings.HasSuffix(p.logs, "\n") {
				fmt.Fprintln(p.out)
			}
			fmt.Fprintln(p.out, output.ListSeparator)
			fmt.Fprint(p.out, v.Logs)
		}
	}
	p.rev, p.logs = v.LogRevision, v.Logs

	if v.Err != "" && v.Err != p.err {
		fmt.Fprintf(p.out, "\nerror: %s\n", v.Err)
	}
	if v.Notice != "" && v.Notice != p.notice {
		fmt.Fprintf(p.out, "\n%s\n", v.Notice)
	}
	p.err, p.notice = v.Err, v.Notice
}
