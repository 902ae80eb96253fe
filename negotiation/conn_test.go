package negotiation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// singleWriterConn fails the way a websocket connection would if two
// writers enter WriteJSON at once.
type singleWriterConn struct {
	inWrite  atomic.Int32
	overlaps atomic.Int32
	writes   atomic.Int32
}

func (c *singleWriterConn) WriteJSON(v any) error {
	if c.inWrite.Add(1) > 1 {
		c.overlaps.Add(1)
	}
	time.Sleep(50 * time.Microsecond)
	c.writes.Add(1)
	c.inWrite.Add(-1)
	return nil
}

func (c *singleWriterConn) Close() error { return nil }

func TestSyncConnSerializesWriters(t *testing.T) {
	raw := &singleWriterConn{}
	ws := NewSyncConn(raw)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = ws.WriteJSON(newChatEvent(RoleBuyer, "1"))
			}
		}()
	}
	wg.Wait()

	if n := raw.overlaps.Load(); n != 0 {
		t.Fatalf("observed %d concurrent writes", n)
	}
	if n := raw.writes.Load(); n != 200 {
		t.Fatalf("lost writes: got %d of 200", n)
	}
}

func TestErrorEventsAndBroadcastsShareOneWriter(t *testing.T) {
	// One endpoint's read loop emits error events for unparsable frames
	// while the counterpart's proposals fan out through the session.
	// Both paths must land on the same serialized writer.
	buyerRaw := &singleWriterConn{}
	buyer := NewSyncConn(buyerRaw)
	seller := NewSyncConn(&singleWriterConn{})

	d := newTestDirectory()
	s, err := d.Join("p1", RoleBuyer, buyer)
	if err != nil {
		t.Fatalf("buyer join: %v", err)
	}
	if _, err := d.Join("p1", RoleSeller, seller); err != nil {
		t.Fatalf("seller join: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = buyer.WriteJSON(NewErrorEvent(protoErrf("unparsable frame")))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Propose(context.Background(), RoleSeller, "42")
		}
	}()
	wg.Wait()

	if n := buyerRaw.overlaps.Load(); n != 0 {
		t.Fatalf("observed %d concurrent writes to the buyer connection", n)
	}
}
