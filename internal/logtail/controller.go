// Package logtail tails the log stream of one task or subtask at a time.
//
// logtail 包同一时刻只跟踪一个任务或子任务的日志流。
package logtail

import (
	"fmt"
	"log/slog"

	"thatmon/internal/i18n"
	"thatmon/internal/stream"
)

// Messages are the texts the buffer shows when no stream content is available.
type Messages struct {
	// Placeholder 无目标时显示。
	// Placeholder is shown when nothing is selected.
	Placeholder string
	// Unavailable replaces the buffer on a failure frame without error text.
	Unavailable string
	// Ended is shown when a stream fails before producing any content.
	Ended string
	// Restricted is a format string taking the allowed statuses.
	Restricted string
	// Disabled is shown when the owning project cannot be tailed.
	Disabled string
}

// DefaultMessages returns the messages of the active locale.
func DefaultMessages() Messages {
	return Messages{
		Placeholder: i18n.T("logs.placeholder"),
		Unavailable: i18n.T("logs.unavailable"),
		Ended:       i18n.T("logs.ended"),
		Restricted:  i18n.T("logs.restricted"),
		Disabled:    i18n.T("logs.project_disabled"),
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Placeholder == "" {
		m.Placeholder = d.Placeholder
	}
	if m.Unavailable == "" {
		m.Unavailable = d.Unavailable
	}
	if m.Ended == "" {
		m.Ended = d.Ended
	}
	if m.Restricted == "" {
		m.Restricted = d.Restricted
	}
	if m.Disabled == "" {
		m.Disabled = d.Disabled
	}
	return m
}

type Options struct {
	Messages Messages
	Policy   Policy
	Logger   *slog.Logger
}

// Controller owns the log buffer and the single log stream feeding it.
// It is not safe for concurrent use.
type Controller struct {
	dialer   stream.Dialer
	endpoint func(Target) string
	messages Messages
	policy   Policy
	logger   *slog.Logger

	target   *Target
	bound    binding
	conn     stream.Conn
	state    stream.State
	buffer   string
	revision uint64
}

// binding is what a Bind call compares against to decide whether the stream
// must be rebuilt.
type binding struct {
	present   bool
	key       Key
	available bool
	allowed   bool
}

// New builds a controller. endpoint maps a target to its log stream URL.
func New(dialer stream.Dialer, endpoint func(Target) string, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	msgs := opts.Messages.withDefaults()
	return &Controller{
		dialer:   dialer,
		endpoint: endpoint,
		messages: msgs,
		policy:   opts.Policy,
		logger:   logger,
		buffer:   msgs.Placeholder,
	}
}

// Bind points the controller at target. available is false when the owning
// project is disabled or unknown. When the binding differs from the current
// one the old stream is closed, the buffer is reset and at most one new
// stream is opened. It reports whether the target changed.
func (c *Controller) Bind(target *Target, available bool, sink stream.Sink) bool {
	next := binding{}
	if target != nil {
		next = binding{
			present:   true,
			key:       target.Key(),
			available: available,
			allowed:   c.policy.Allows(*target),
		}
	}
	if next == c.bound {
		if target != nil {
			t := *target
			c.target = &t
		}
		return false
	}

	c.closeConn(stream.Disconnected)
	c.bound = next
	c.target = nil
	c.revision++

	if target == nil {
		c.buffer = c.messages.Placeholder
		return true
	}
	t := *target
	c.target = &t

	switch {
	case !next.available:
		c.buffer = c.messages.Disabled
	case !next.allowed:
		c.buffer = fmt.Sprintf(c.messages.Restricted, c.policy.Describe())
	default:
		c.open(sink)
	}
	return true
}

// Reopen rebuilds the stream for the current target, for example after it
// ended with an error. It does nothing without a tailable target.
func (c *Controller) Reopen(sink stream.Sink) bool {
	if c.target == nil || !c.bound.available || !c.bound.allowed {
		return false
	}
	c.closeConn(stream.Disconnected)
	c.revision++
	c.open(sink)
	return true
}

func (c *Controller) open(sink stream.Sink) {
	c.buffer = ""
	c.conn = c.dialer.Dial(stream.Request{Kind: "logs", URL: c.endpoint(*c.target)}, sink)
	c.state = stream.Connected
	c.logger.Debug("log stream opened",
		"mode", c.target.Mode, "task", c.target.TaskID, "subtask", c.target.Subtask.ID, "conn", c.conn.ID())
}

// Reset closes the stream and shows the placeholder.
func (c *Controller) Reset() {
	c.closeConn(stream.Disconnected)
	c.bound = binding{}
	c.target = nil
	c.buffer = c.messages.Placeholder
	c.revision++
}

// Close closes the stream and forgets the target. The buffer is kept.
func (c *Controller) Close() {
	c.closeConn(stream.Disconnected)
	c.bound = binding{}
	c.target = nil
}

func (c *Controller) closeConn(next stream.State) {
	if c.conn != nil {
		c.logger.Debug("log stream closed", "conn", c.conn.ID())
		c.conn.Close()
		c.conn = nil
	}
	c.state = next
}

// Handle applies an event from the log stream. Events from any connection
// other than the current one are ignored. It reports whether the buffer changed.
func (c *Controller) Handle(ev stream.Event) bool {
	if c.conn == nil || ev.Conn != c.conn.ID() {
		return false
	}
	if ev.Err != nil {
		c.logger.Warn("log stream failed", "conn", ev.Conn, "error", ev.Err)
		c.closeConn(stream.Erroring)
		if c.buffer == "" {
			c.buffer = c.messages.Ended
			return true
		}
		return false
	}

	f, ok := DecodeFrame(ev.Data)
	if !ok {
		c.logger.Debug("log frame dropped", "conn", ev.Conn)
		return false
	}
	next := f.Apply(c.buffer, c.messages.Unavailable)
	if next == c.buffer {
		return false
	}
	c.buffer = next
	return true
}

func (c *Controller) Buffer() string { return c.buffer }
func (c *Controller) State() stream.State { return c.state }

// Revision increases every time the buffer is reset for a new binding.
func (c *Controller) Revision() uint64 { return c.revision }

// Target returns the bound target, or nil.
func (c *Controller) Target() *Target {
	if c.target == nil {
		return nil
	}
	t := *c.target
	return &t
}

// ConnID returns the current connection id, or 0 when no stream is open.
func (c *Controller) ConnID() uint64 {
	if c.conn == nil {
		return 0
	}
	return c.conn.ID()
}
