// Package negotiation implements the buyer/seller session protocol:
// the role handshake, ordered proposal broadcast and fair-price
// arbitration over a pair of message connections.
package negotiation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Role identifies a negotiation participant.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) valid() bool { return r == RoleBuyer || r == RoleSeller }

// Wire message type tags. Clients send role and message; the server
// emits chat, ai_response and error. The tag set is closed: anything
// else is a protocol error, never silently ignored.
const (
	TypeRole       = "role"
	TypeMessage    = "message"
	TypeChat       = "chat"
	TypeAIResponse = "ai_response"
	TypeError      = "error"
)

// ClientMessage is the inbound envelope, discriminated by Type. Fields
// outside the type's contract are ignored.
type ClientMessage struct {
	Type    string `json:"type"`
	Role    Role   `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ProtocolError reports a client-side protocol violation. It is
// delivered as an error event to the offending sender only and never
// tears down the session or the counterpart.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return e.Reason }

func protoErrf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// DecodeClientMessage parses an inbound frame and rejects unknown tags.
func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, protoErrf("unparsable frame")
	}
	switch msg.Type {
	case TypeRole:
		if !msg.Role.valid() {
			return ClientMessage{}, protoErrf("role must be buyer or seller")
		}
	case TypeMessage:
		// content is validated against the numeric grammar when handled
	default:
		return ClientMessage{}, protoErrf("unknown message type %q", msg.Type)
	}
	return msg, nil
}

// priceRe accepts non-negative decimal numbers: digits with at most one
// decimal point. Signs, exponents and whitespace are rejected.
var priceRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParsePrice validates proposal content and returns its numeric value.
func ParsePrice(content string) (float64, error) {
	if !priceRe.MatchString(content) {
		return 0, protoErrf("price must be a non-negative number, got %q", content)
	}
	v, err := strconv.ParseFloat(content, 64)
	if err != nil {
		return 0, protoErrf("price must be a non-negative number, got %q", content)
	}
	return v, nil
}

// Server-to-client events.

type ChatEvent struct {
	Type       string `json:"type"`
	SenderRole Role   `json:"sender_role"`
	Content    string `json:"content"`
}

type AIResponseEvent struct {
	Type        string  `json:"type"`
	BuyerPrice  float64 `json:"buyer_price"`
	SellerPrice float64 `json:"seller_price"`
	FairPrice   float64 `json:"fair_price"`
	Suggestion  string  `json:"suggestion"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newChatEvent(sender Role, content string) ChatEvent {
	return ChatEvent{Type: TypeChat, SenderRole: sender, Content: content}
}

// NewErrorEvent wraps an error for delivery to a single sender.
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: TypeError, Error: err.Error()}
}
