package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"thatmon/internal/monitor"
)

// Observer is called on the loop after every message. Returning false ends
// the loop.
type Observer func(m *monitor.Monitor, msg monitor.Msg) bool

// Headless 在无渲染、无输入的 tea 程序上驱动 monitor，供 console 与 tail 使用
// Headless drives a monitor on a bubbletea program with no renderer and no
// input. The console and tail commands use it.
type Headless struct {
	ctx     context.Context
	cancel  context.CancelFunc
	mon     *monitor.Monitor
	model   *headlessModel
	program *tea.Program
}

// NewHeadless builds the monitor and the program together so that stream
// events posted before Run wait for the loop instead of being lost.
func NewHeadless(ctx context.Context, mopts monitor.Options) *Headless {
	ctx, cancel := context.WithCancel(ctx)
	s := &sender{}
	mopts.Post = s.send
	mon := monitor.New(mopts)

	model := &headlessModel{ctx: ctx, mon: mon}
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	s.attach(p)
	return &Headless{ctx: ctx, cancel: cancel, mon: mon, model: model, program: p}
}

// Monitor returns the driven monitor. Touch it directly only before Run;
// afterwards go through Dispatch.
func (h *Headless) Monitor() *monitor.Monitor { return h.mon }

// Settle 在调用方 goroutine 上同步执行命令及其后续命令，仅限 Run 之前
// Settle runs cmd and its follow-ups on the calling goroutine. Only use it
// before Run.
func (h *Headless) Settle(cmd monitor.Cmd) {
	for cmd != nil {
		msg := cmd(h.ctx)
		if msg == nil {
			return
		}
		cmd = h.mon.Update(msg)
	}
}

// Dispatch runs fn on the loop. It blocks until the loop accepts it or the
// loop is gone.
func (h *Headless) Dispatch(fn func(*monitor.Monitor) monitor.Cmd) {
	h.program.Send(dispatchMsg{fn: fn})
}

// Run processes messages until observe returns false, ctx is done or Close
// is called. The monitor is torn down on return. A cancelled context is
// reported as context.Canceled.
func (h *Headless) Run(observe Observer) error {
	defer h.Close()
	h.model.observe = observe
	_, err := h.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && h.ctx.Err() != nil {
		return h.ctx.Err()
	}
	return err
}

// Close cancels the loop context and closes both streams. Run calls it on
// return; call it directly only when Run never started. A running loop is
// stopped by cancelling the parent context.
func (h *Headless) Close() {
	h.cancel()
	h.mon.Teardown()
}

// dispatchMsg runs fn on the loop that owns the monitor.
type dispatchMsg struct {
	fn func(*monitor.Monitor) monitor.Cmd
}

type headlessModel struct {
	ctx     context.Context
	mon     *monitor.Monitor
	observe Observer
}

func (h *headlessModel) Init() tea.Cmd { return nil }

func (h *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		in  monitor.Msg
		cmd monitor.Cmd
	)
	switch msg := msg.(type) {
	case MonitorMsg:
		in, cmd = msg.Msg, h.mon.Update(msg.Msg)
	case dispatchMsg:
		in, cmd = msg, msg.fn(h.mon)
	default:
		return h, nil
	}
	if h.observe != nil && !h.observe(h.mon, in) {
		return h, tea.Quit
	}
	return h, lift(h.ctx, cmd)
}

func (h *headlessModel) View() string { return "" }
