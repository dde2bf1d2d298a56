package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const testOrg = "org-1"

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_And_Thread_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	first, err := repository.Append(testOrg, "alice", "bob", "ciphertext-1")
	req.NoError(err)
	second, err := repository.Append(testOrg, "bob", "alice", "ciphertext-2")
	req.NoError(err)
	third, err := repository.Append(testOrg, "alice", "bob", "ciphertext-3")
	req.NoError(err)

	req.NotEqual(first.ID, second.ID)
	req.Nil(first.ReadAt)

	messages, _, err := repository.Thread("alice", "bob", nil)
	req.NoError(err)
	req.Len(messages, 3)

	// Ascending by creation time regardless of direction.
	req.Equal(first.ID, messages[0].ID)
	req.Equal(second.ID, messages[1].ID)
	req.Equal(third.ID, messages[2].ID)
	req.Equal("ciphertext-2", messages[1].Content)
}

func Test_Thread_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	_, err := repository.Append(testOrg, "alice", "bob", "ciphertext")
	req.NoError(err)

	fromAlice, _, err := repository.Thread("alice", "bob", nil)
	req.NoError(err)
	fromBob, _, err := repository.Thread("bob", "alice", nil)
	req.NoError(err)
	req.Equal(fromAlice, fromBob)
}

func Test_Thread_Cursor_Pagination(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(openTestDB(t), slog.Default(), &limit)

	var ids []string
	for _, content := range []string{"c1", "c2", "c3", "c4", "c5"} {
		message, err := repository.Append(testOrg, "alice", "bob", content)
		req.NoError(err)
		ids = append(ids, message.ID.String())
	}

	var collected []string
	var cursor *string
	for i := 0; i < 3; i++ {
		messages, next, err := repository.Thread("alice", "bob", cursor)
		req.NoError(err)
		for _, m := range messages {
			collected = append(collected, m.ID.String())
		}
		cursor = next
	}
	req.Equal(ids, collected)

	// Exhausted: restarting from the last cursor yields nothing new.
	messages, _, err := repository.Thread("alice", "bob", cursor)
	req.NoError(err)
	req.Empty(messages)
}

func Test_ForParticipant_Newest_First_Across_Partners(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	toBob, err := repository.Append(testOrg, "alice", "bob", "to bob")
	req.NoError(err)
	fromClara, err := repository.Append(testOrg, "clara", "alice", "from clara")
	req.NoError(err)
	fromBob, err := repository.Append(testOrg, "bob", "alice", "from bob")
	req.NoError(err)

	// Not alice's message: must never show up in her feed.
	_, err = repository.Append(testOrg, "bob", "clara", "unrelated")
	req.NoError(err)

	messages, err := repository.ForParticipant("alice")
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal(fromBob.ID, messages[0].ID)
	req.Equal(fromClara.ID, messages[1].ID)
	req.Equal(toBob.ID, messages[2].ID)
}

func Test_MarkRead_Only_Receiver_Side(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	_, err := repository.Append(testOrg, "bob", "alice", "unread-1")
	req.NoError(err)
	_, err = repository.Append(testOrg, "bob", "alice", "unread-2")
	req.NoError(err)
	_, err = repository.Append(testOrg, "alice", "bob", "alice's own reply")
	req.NoError(err)

	updated, err := repository.MarkRead("alice", "bob", time.Now().UTC())
	req.NoError(err)
	req.Equal(2, updated)

	messages, _, err := repository.Thread("alice", "bob", nil)
	req.NoError(err)
	for _, m := range messages {
		switch m.ReceiverID {
		case "alice":
			req.NotNil(m.ReadAt)
		case "bob":
			// Alice reading her thread must not stamp bob's copy.
			req.Nil(m.ReadAt)
		}
	}
}

func Test_MarkRead_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default(), nil)

	_, err := repository.Append(testOrg, "bob", "alice", "unread")
	req.NoError(err)

	updated, err := repository.MarkRead("alice", "bob", time.Now().UTC())
	req.NoError(err)
	req.Equal(1, updated)

	first, _, err := repository.Thread("alice", "bob", nil)
	req.NoError(err)

	// Nothing left unread: a second call is a no-op, and the original
	// stamp survives.
	updated, err = repository.MarkRead("alice", "bob", time.Now().UTC())
	req.NoError(err)
	req.Equal(0, updated)

	second, _, err := repository.Thread("alice", "bob", nil)
	req.NoError(err)
	req.Equal(first, second)
}

func Test_ValidParticipantID(t *testing.T) {
	req := require.New(t)
	req.True(ValidParticipantID("user-42"))
	req.False(ValidParticipantID(""))
	req.False(ValidParticipantID("a|b"))
	req.False(ValidParticipantID("a:b"))
}
