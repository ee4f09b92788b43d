package stream

import "sync"

// FakeDialer records dials for tests and lets them push events by hand.
type FakeDialer struct {
	mu    sync.Mutex
	conns []*FakeConn
}

// FakeConn is a connection opened by FakeDialer.
type FakeConn struct {
	Request Request

	id     uint64
	sink   Sink
	mu     sync.Mutex
	closed bool
}

func (d *FakeDialer) Dial(req Request, sink Sink) Conn {
	c := &FakeConn{Request: req, id: NextConnID(), sink: sink}
	d.mu.Lock()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	return c
}

// Conns returns every connection dialed so far, in order.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeConn(nil), d.conns...)
}

// Last returns the most recently dialed connection, or nil.
func (d *FakeDialer) Last() *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Open returns the connections that have not been closed.
func (d *FakeDialer) Open() []*FakeConn {
	var out []*FakeConn
	for _, c := range d.Conns() {
		if !c.Closed() {
			out = append(out, c)
		}
	}
	return out
}

func (c *FakeConn) ID() uint64 { return c.id }

func (c *FakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Frame builds an event as if it arrived on this connection.
func (c *FakeConn) Frame(event, data string) Event {
	return Event{Conn: c.id, Event: event, Data: data}
}

// Failure builds a terminal transport error event for this connection.
func (c *FakeConn) Failure(err error) Event {
	if err == nil {
		err = ErrStreamEnded
	}
	return Event{Conn: c.id, Err: err}
}

// Emit delivers an event through the sink given at dial time.
func (c *FakeConn) Emit(event, data string) {
	if c.sink != nil {
		c.sink(c.Frame(event, data))
	}
}

// Fail delivers a terminal transport error through the sink.
func (c *FakeConn) Fail(err error) {
	if c.sink != nil {
		c.sink(c.Failure(err))
	}
}
