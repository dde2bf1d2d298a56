// Package domain contains the core concepts of the messaging system.
// Messages are immutable after creation except for the single
// read transition performed by the receiver.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is the atomic unit of the system. Content always holds
// ciphertext (base64 of nonce||ciphertext||tag), never plaintext.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID string     `json:"organization_id"`
	SenderID       string     `json:"sender_id"`
	ReceiverID     string     `json:"receiver_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// Partner returns the other participant from the viewer's perspective.
func (m Message) Partner(viewerID string) string {
	if m.ReceiverID == viewerID {
		return m.SenderID
	}
	return m.ReceiverID
}

// Unread reports whether the message is still unread for the viewer.
func (m Message) Unread(viewerID string) bool {
	return m.ReceiverID == viewerID && m.ReadAt == nil
}
