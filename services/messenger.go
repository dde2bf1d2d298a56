// Package services holds the application operations on top of the
// message log, the cipher, and the directory.
package services

import (
	"fmt"
	"log/slog"
	"time"

	"secure-dm/crypto"
	"secure-dm/domain"
	"secure-dm/domain/event"
	"secure-dm/errors"
	"secure-dm/repositories"
)

// IPublisher is the realtime side effect of a successful append.
type IPublisher interface {
	Publish(evt event.MessageStored)
}

// DecryptedMessage pairs a stored message with its resolved
// plaintext (or the sentinel when decryption failed).
type DecryptedMessage struct {
	domain.Message
	Plaintext string `json:"plaintext"`
}

// Messenger implements the send, thread, and read-receipt
// operations. Stateless per call.
type Messenger struct {
	log       *slog.Logger
	cipher    *crypto.Cipher
	messages  repositories.IMessageRepository
	directory domain.Directory
	publisher IPublisher
}

func NewMessenger(log *slog.Logger, cipher *crypto.Cipher,
	messages repositories.IMessageRepository, directory domain.Directory,
	publisher IPublisher) *Messenger {
	return &Messenger{
		log:       log,
		cipher:    cipher,
		messages:  messages,
		directory: directory,
		publisher: publisher,
	}
}

// Send encrypts the plaintext and appends it to the log, then
// notifies the receiver's active sessions. Both parties must resolve
// to the same organization before any cipher or store work runs.
func (m *Messenger) Send(senderID, receiverID, plaintext string) (domain.Message, error) {
	if senderID == receiverID {
		return domain.Message{}, errors.ErrSelfMessage
	}
	if !repositories.ValidParticipantID(receiverID) {
		return domain.Message{}, fmt.Errorf("%w: %q", errors.ErrProfileNotFound, receiverID)
	}

	sender, err := m.directory.Profile(senderID)
	if err != nil {
		return domain.Message{}, err
	}
	receiver, err := m.directory.Profile(receiverID)
	if err != nil {
		return domain.Message{}, err
	}
	if sender.OrganizationID != receiver.OrganizationID {
		return domain.Message{}, errors.ErrCrossOrganization
	}

	ciphertext, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return domain.Message{}, err
	}

	message, err := m.messages.Append(sender.OrganizationID, senderID, receiverID, ciphertext)
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}

	m.publisher.Publish(event.MessageStored{
		ID:             message.ID,
		OrganizationID: message.OrganizationID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	})
	return message, nil
}

// Thread returns the conversation with the partner ascending by
// creation time, plaintext resolved through a single batch decrypt.
func (m *Messenger) Thread(viewerID, partnerID string, cursor *string) ([]DecryptedMessage, *string, error) {
	messages, next, err := m.messages.Thread(viewerID, partnerID, cursor)
	if err != nil {
		return nil, nil, err
	}
	if len(messages) == 0 {
		return nil, next, nil
	}

	ciphertexts := make([]string, len(messages))
	for i, message := range messages {
		ciphertexts[i] = message.Content
	}
	plaintexts := m.cipher.DecryptBatch(ciphertexts)

	decrypted := make([]DecryptedMessage, len(messages))
	for i, message := range messages {
		decrypted[i] = DecryptedMessage{Message: message, Plaintext: plaintexts[i]}
	}
	return decrypted, next, nil
}

// MarkRead stamps everything unread from the partner to the viewer.
// Idempotent; returns the number of messages updated.
func (m *Messenger) MarkRead(viewerID, partnerID string) (int, error) {
	return m.messages.MarkRead(viewerID, partnerID, time.Now().UTC())
}
