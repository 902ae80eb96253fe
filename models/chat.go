package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRecord — one accepted negotiation proposal, persisted for the
// session transcript. Rejected frames are never stored.
type ChatRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"sessionId"     json:"sessionId"`
	SenderRole string             `bson:"senderRole"    json:"sender_role"`
	Content    string             `bson:"content"       json:"content"`
	SentAt     time.Time          `bson:"sentAt"        json:"sent_at"`
}
