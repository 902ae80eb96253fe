package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"agrideal/negotiation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleNegotiation upgrades the connection and runs the per-connection
// read loop. The parcel query parameter names the negotiation session;
// both participants of one negotiation connect with the same parcel id.
func (a *App) handleNegotiation(w http.ResponseWriter, r *http.Request) {
	parcelID := r.URL.Query().Get("parcel")
	if parcelID == "" {
		writeError(w, http.StatusBadRequest, codeMalformed, "parcel query parameter is required")
		return
	}
	if _, err := a.registry.Get(parcelID); err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown parcel")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("websocket upgrade failed:", err)
		return
	}
	go a.negotiationLoop(parcelID, conn)
}

// negotiationLoop reads frames from one participant until disconnect.
// The first accepted frame must declare the role; later frames carry
// price proposals. Protocol violations produce an error event on this
// connection only and never affect the counterpart.
func (a *App) negotiationLoop(sessionID string, conn *websocket.Conn) {
	defer conn.Close()

	// The connection allows one writer at a time, but both this loop
	// (error events) and the counterpart's session broadcasts write to
	// it. Every write goes through the same synchronized wrapper.
	ws := negotiation.NewSyncConn(conn)

	var (
		role    negotiation.Role
		session *negotiation.Session
	)
	defer func() {
		if session != nil {
			a.directory.Leave(sessionID, role, ws)
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := negotiation.DecodeClientMessage(raw)
		if err != nil {
			log.Printf("session %s: dropping malformed frame: %v", sessionID, err)
			_ = ws.WriteJSON(negotiation.NewErrorEvent(err))
			continue
		}

		switch msg.Type {
		case negotiation.TypeRole:
			if session != nil {
				_ = ws.WriteJSON(negotiation.NewErrorEvent(
					&negotiation.ProtocolError{Reason: "role already set for this connection"}))
				continue
			}
			s, err := a.directory.Join(sessionID, msg.Role, ws)
			if err != nil {
				_ = ws.WriteJSON(negotiation.NewErrorEvent(err))
				continue
			}
			role, session = msg.Role, s

		case negotiation.TypeMessage:
			if session == nil {
				_ = ws.WriteJSON(negotiation.NewErrorEvent(
					&negotiation.ProtocolError{Reason: "first message must declare a role"}))
				continue
			}
			// Propose delivers its own error events to this sender.
			_ = session.Propose(context.Background(), role, msg.Content)
		}
	}
}
