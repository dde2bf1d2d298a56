package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"secure-dm/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Append(organizationID, senderID, receiverID, ciphertext string) (domain.Message, error)
	Thread(userA, userB string, cursor *string) ([]domain.Message, *string, error)
	ForParticipant(userID string) ([]domain.Message, error)
	MarkRead(viewerID, partnerID string, at time.Time) (int, error)
}

// MessageRepository is the append-only message log over BadgerDB.
// It is the single source of truth; the aggregator and the realtime
// channel are pure readers.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored shape. Nanosecond timestamps keep the
// JSON value aligned with the key ordering.
type diskMessage struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
	ReadAt         *int64 `json:"read_at,omitempty"`
}

// pairKey gives both directions of a conversation the same prefix.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// messageKey is formatted as "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func messageKey(pair string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", pair, at.UnixNano(), id))
}

// feedKey indexes a message for one participant, newest-last in key
// order. The value is the primary message key.
func feedKey(userID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("feed:%s:%019d:%s", userID, at.UnixNano(), id))
}

// Append assigns a fresh id and a server-side timestamp, then writes
// the record and both participants' feed index entries in one
// transaction. Organization scoping is verified by the caller against
// the directory before this point.
func (m MessageRepository) Append(organizationID, senderID, receiverID, ciphertext string) (domain.Message, error) {
	message := domain.Message{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        ciphertext,
		CreatedAt:      time.Now().UTC(),
	}

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	primary := messageKey(pairKey(senderID, receiverID), message.CreatedAt, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, bytes); err != nil {
			return err
		}
		if err := txn.Set(feedKey(senderID, message.CreatedAt, message.ID), primary); err != nil {
			return err
		}
		return txn.Set(feedKey(receiverID, message.CreatedAt, message.ID), primary)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Thread retrieves the conversation between two users ascending by
// creation time, restartable via an opaque cursor (the key part after
// the pair prefix). It stops once the configured limitMessages is
// reached and returns the cursor of the last message read.
func (m MessageRepository) Thread(userA, userB string, cursor *string) ([]domain.Message, *string, error) {
	prefixStr := fmt.Sprintf("msg:%s:", pairKey(userA, userB))
	prefix := []byte(prefixStr)

	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		// The cursor points at the last message already delivered.
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages, err := decodeMessages(byteMessages)
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		// Nothing read: no position to resume from.
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// ForParticipant returns every message where the user is sender or
// receiver, newest first, via a reverse scan of the feed index. Used
// only by the conversation aggregator.
func (m MessageRepository) ForParticipant(userID string) ([]domain.Message, error) {
	prefixStr := fmt.Sprintf("feed:%s:", userID)
	prefix := []byte(prefixStr)

	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards.
		seekKey := append([]byte(prefixStr), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var primary []byte
			err := it.Item().Value(func(value []byte) error {
				primary = append([]byte(nil), value...)
				return nil
			})
			if err != nil {
				return err
			}

			item, err := txn.Get(primary)
			if err != nil {
				return fmt.Errorf("resolve feed entry %q: %w", it.Item().Key(), err)
			}
			err = item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return decodeMessages(byteMessages)
}

// MarkRead stamps every unread message from the partner to the viewer
// in a single transaction and returns the number updated. Calling it
// with nothing unread is a no-op.
func (m MessageRepository) MarkRead(viewerID, partnerID string, at time.Time) (int, error) {
	prefixStr := fmt.Sprintf("msg:%s:", pairKey(viewerID, partnerID))
	prefix := []byte(prefixStr)
	stamp := at.UTC().UnixNano()

	updated := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		// Collect first, write after the iterator is closed: badger
		// does not guarantee writes made under a live iterator.
		type pending struct {
			key   []byte
			value []byte
		}
		var updates []pending

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var disk diskMessage
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &disk)
			})
			if err != nil {
				it.Close()
				return err
			}

			// The pair prefix covers both directions; only messages
			// addressed to the viewer transition.
			if disk.ReceiverID != viewerID || disk.ReadAt != nil {
				continue
			}

			disk.ReadAt = &stamp
			bytes, err := json.Marshal(disk)
			if err != nil {
				it.Close()
				return err
			}
			updates = append(updates, pending{key: item.KeyCopy(nil), value: bytes})
		}
		it.Close()

		for _, p := range updates {
			if err := txn.Set(p.key, p.value); err != nil {
				return err
			}
		}
		updated = len(updates)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func decodeMessages(byteMessages [][]byte) ([]domain.Message, error) {
	var messages []domain.Message
	for _, b := range byteMessages {
		var disk diskMessage
		if err := json.Unmarshal(b, &disk); err != nil {
			return nil, err
		}
		message, err := toMessage(disk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:             message.ID.String(),
		OrganizationID: message.OrganizationID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt.UnixNano(),
		ReadAt: lo.TernaryF(message.ReadAt != nil,
			func() *int64 { return lo.ToPtr(message.ReadAt.UnixNano()) },
			func() *int64 { return nil }),
	}
}

func toMessage(disk diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	message := domain.Message{
		ID:             parsedID,
		OrganizationID: disk.OrganizationID,
		SenderID:       disk.SenderID,
		ReceiverID:     disk.ReceiverID,
		Content:        disk.Content,
		CreatedAt:      time.Unix(0, disk.CreatedAt).UTC(),
	}
	if disk.ReadAt != nil {
		message.ReadAt = lo.ToPtr(time.Unix(0, *disk.ReadAt).UTC())
	}
	return message, nil
}

// ensure user ids cannot break the key scheme
func ValidParticipantID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "|:")
}
