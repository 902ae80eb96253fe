package negotiation

import "sync"

// SyncConn serializes writes to an underlying connection. A WebSocket
// connection permits a single writer at a time, but events for one
// endpoint originate on two goroutines: its own read loop (error
// events) and the counterpart's read loop (session broadcasts). Every
// write to a live connection must go through the same SyncConn.
type SyncConn struct {
	mu   sync.Mutex
	conn Conn
}

func NewSyncConn(c Conn) *SyncConn { return &SyncConn{conn: c} }

func (c *SyncConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *SyncConn) Close() error { return c.conn.Close() }
