package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
)

// ErrStreamEnded is reported when the server closes a stream.
var ErrStreamEnded = errors.New("stream ended")

// Event is what a connection delivers to its sink. Conn identifies the
// connection so consumers can drop events from connections they already
// replaced. A non-nil Err is terminal: no further events follow it.
type Event struct {
	Conn  uint64
	Event string
	Data  string
	Err   error
}

// Sink receives events. It is called from the connection's own goroutine,
// so implementations hand events over to the owning loop.
type Sink func(Event)

// Request describes a stream to open.
type Request struct {
	// Kind is a label for logs ("roster", "logs").
	Kind string
	URL  string
}

// Conn is an open (or opening) stream. Close is idempotent and is the only
// cancellation primitive.
type Conn interface {
	ID() uint64
	Close()
}

// Dialer opens streams without blocking the caller.
type Dialer interface {
	Dial(req Request, sink Sink) Conn
}

var connSeq atomic.Uint64

// NextConnID returns a process-unique connection identifier.
func NextConnID() uint64 {
	return connSeq.Add(1)
}

// HTTPDialer opens server-sent event streams over HTTP.
type HTTPDialer struct {
	Client *http.Client
	Logger *slog.Logger
}

func NewHTTPDialer(client *http.Client, logger *slog.Logger) *HTTPDialer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPDialer{Client: client, Logger: logger}
}

type httpConn struct {
	id     uint64
	cancel context.CancelFunc
	once   sync.Once
}

func (c *httpConn) ID() uint64 { return c.id }

func (c *httpConn) Close() {
	c.once.Do(c.cancel)
}

func (d *HTTPDialer) Dial(req Request, sink Sink) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &httpConn{id: NextConnID(), cancel: cancel}
	go d.run(ctx, conn.id, req, sink)
	return conn
}

func (d *HTTPDialer) run(ctx context.Context, id uint64, req Request, sink Sink) {
	log := d.Logger.With("kind", req.Kind, "conn", id)
	err := d.stream(ctx, id, req, sink, log)
	if ctx.Err() != nil {
		log.Debug("stream closed")
		return
	}
	if err == nil {
		err = ErrStreamEnded
	}
	log.Warn("stream terminated", "error", err)
	sink(Event{Conn: id, Err: err})
}

func (d *HTTPDialer) stream(ctx context.Context, id uint64, req Request, sink Sink, log *slog.Logger) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("create stream request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := d.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("open stream: status=%d", resp.StatusCode)
	}
	log.Debug("stream opened")

	for msg, err := range Messages(resp.Body) {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sink(Event{Conn: id, Event: msg.Event, Data: msg.Data})
	}
	return nil
}
