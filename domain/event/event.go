package event

import (
	"time"

	"github.com/google/uuid"
)

// MessageStored is emitted after a message has been appended to the
// log. It carries the persisted shape: ciphertext, never plaintext.
type MessageStored struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID string    `json:"organization_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
