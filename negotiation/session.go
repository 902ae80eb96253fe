package negotiation

import (
	"context"
	"log"
	"sync"
	"time"

	"agrideal/models"
	"agrideal/pricing"
)

// State of one negotiation session.
//
//	Empty -> AwaitingCounterpart   first endpoint joins
//	AwaitingCounterpart -> Active  the opposite role joins
//	Active -> AwaitingCounterpart  one endpoint disconnects
//	any -> Closed                  both endpoints gone, or explicit Close
//
// Closed is terminal; a new join under the same id gets a fresh session.
type State int

const (
	StateEmpty State = iota
	StateAwaitingCounterpart
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAwaitingCounterpart:
		return "awaiting_counterpart"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Conn is the endpoint transport. *websocket.Conn satisfies it; tests
// use an in-memory fake. Connections are message sources and sinks
// only, never owners of negotiation state.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Proposal is one accepted numeric price message.
type Proposal struct {
	Role    Role
	Price   float64
	Content string // raw content as sent, echoed in chat events
	At      time.Time
}

// TranscriptStore persists accepted proposals. Failures are logged,
// never fatal to the session.
type TranscriptStore interface {
	Append(ctx context.Context, rec models.ChatRecord) error
}

// Session is the per-parcel negotiation state machine. All mutation
// goes through one mutex, so proposals from the two endpoints are
// handled in strict arrival order and broadcast without reordering.
type Session struct {
	ID string

	arbiter pricing.Arbiter
	store   TranscriptStore
	timeout time.Duration // bound on one arbitration call; 0 means no bound

	mu        sync.Mutex
	state     State
	endpoints map[Role]Conn
	proposals []Proposal
	pending   map[Role]float64 // un-arbitrated proposal per role, current round
	lastFair  *pricing.Result
}

func newSession(id string, arbiter pricing.Arbiter, store TranscriptStore, timeout time.Duration) *Session {
	return &Session{
		ID:        id,
		arbiter:   arbiter,
		store:     store,
		timeout:   timeout,
		state:     StateEmpty,
		endpoints: make(map[Role]Conn),
		pending:   make(map[Role]float64),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Proposals returns a copy of the accepted proposal log.
func (s *Session) Proposals() []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Proposal, len(s.proposals))
	copy(out, s.proposals)
	return out
}

// LastFairPrice returns the most recent arbitration result, if any
// round has completed.
func (s *Session) LastFairPrice() (pricing.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFair == nil {
		return pricing.Result{}, false
	}
	return *s.lastFair, true
}

// Join attaches a connection for the given role. Joining a role that is
// already occupied is a protocol error, not a silent replace. A late
// joiner catches up on the proposals accepted so far as chat events.
func (s *Session) Join(role Role, c Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return protoErrf("session %s is closed", s.ID)
	}
	if !role.valid() {
		return protoErrf("role must be buyer or seller")
	}
	if _, taken := s.endpoints[role]; taken {
		return protoErrf("role %s is already joined", role)
	}

	s.endpoints[role] = c
	switch len(s.endpoints) {
	case 1:
		s.state = StateAwaitingCounterpart
	case 2:
		s.state = StateActive
	}

	for _, p := range s.proposals {
		s.sendTo(c, newChatEvent(p.Role, p.Content))
	}
	return nil
}

// Leave detaches a connection. The remaining endpoint keeps sending and
// receiving; the session closes once both endpoints are gone. Reports
// whether the session reached Closed.
func (s *Session) Leave(role Role, c Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.endpoints[role]; !ok || cur != c {
		return s.state == StateClosed
	}
	delete(s.endpoints, role)
	switch len(s.endpoints) {
	case 1:
		s.state = StateAwaitingCounterpart
	case 0:
		s.state = StateClosed
	}
	return s.state == StateClosed
}

// Close tears down both endpoints and marks the session terminal. No
// events are delivered after Close.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for role, c := range s.endpoints {
		_ = c.Close()
		delete(s.endpoints, role)
	}
	s.state = StateClosed
}

// Propose handles one numeric proposal from role. Invalid content
// produces an error event to the sender only and never enters the
// proposal log. Accepted proposals are broadcast to both endpoints in
// arrival order; once both roles have an open proposal for the current
// round, the round is consumed and arbitrated. The arbiter runs
// outside the session lock so a slow model call never blocks the
// counterpart's proposals or directory join/leave.
func (s *Session) Propose(ctx context.Context, role Role, content string) error {
	s.mu.Lock()

	sender := s.endpoints[role]
	if s.state != StateActive && s.state != StateAwaitingCounterpart {
		err := protoErrf("session %s is %s", s.ID, s.state)
		s.sendTo(sender, NewErrorEvent(err))
		s.mu.Unlock()
		return err
	}
	if sender == nil {
		s.mu.Unlock()
		return protoErrf("role %s has not joined session %s", role, s.ID)
	}

	price, err := ParsePrice(content)
	if err != nil {
		s.sendTo(sender, NewErrorEvent(err))
		s.mu.Unlock()
		return err
	}

	prop := Proposal{Role: role, Price: price, Content: content, At: time.Now().UTC()}
	s.proposals = append(s.proposals, prop)
	s.pending[role] = price

	s.broadcast(newChatEvent(role, content))
	s.persist(prop)

	buyerPrice, hasBuyer := s.pending[RoleBuyer]
	sellerPrice, hasSeller := s.pending[RoleSeller]
	if !hasBuyer || !hasSeller {
		s.mu.Unlock()
		return nil
	}
	delete(s.pending, RoleBuyer)
	delete(s.pending, RoleSeller)
	s.mu.Unlock()

	s.arbitrate(ctx, buyerPrice, sellerPrice)
	return nil
}

// arbitrate runs one consumed round through the arbiter and broadcasts
// the result. Called without holding s.mu.
func (s *Session) arbitrate(ctx context.Context, buyerPrice, sellerPrice float64) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.arbiter.FairPrice(ctx, buyerPrice, sellerPrice)
	if err != nil {
		// The round is consumed; the negotiation continues without a
		// suggestion instead of stalling.
		log.Printf("session %s: arbitration failed: %v", s.ID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.lastFair = &res
	s.broadcast(AIResponseEvent{
		Type:        TypeAIResponse,
		BuyerPrice:  res.BuyerPrice,
		SellerPrice: res.SellerPrice,
		FairPrice:   res.FairPrice,
		Suggestion:  res.Suggestion,
	})
}

// broadcast writes an event to every attached endpoint. Callers hold
// s.mu, which keeps per-endpoint event order equal to arrival order.
func (s *Session) broadcast(ev any) {
	for role, c := range s.endpoints {
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("session %s: write to %s failed: %v", s.ID, role, err)
		}
	}
}

func (s *Session) sendTo(c Conn, ev any) {
	if c == nil {
		return
	}
	if err := c.WriteJSON(ev); err != nil {
		log.Printf("session %s: write failed: %v", s.ID, err)
	}
}

// persist appends the proposal to the transcript store, best-effort and
// off the session lock path.
func (s *Session) persist(p Proposal) {
	if s.store == nil {
		return
	}
	rec := models.ChatRecord{
		SessionID:  s.ID,
		SenderRole: string(p.Role),
		Content:    p.Content,
		SentAt:     p.At,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Append(ctx, rec); err != nil {
			log.Printf("session %s: transcript save failed: %v", s.ID, err)
		}
	}()
}
