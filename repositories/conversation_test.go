package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hubchat/domain"
)

func textMessage(content string) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		SenderID:  uuid.NewString(),
		Content:   content,
		Type:      domain.TextMessage,
		CreatedAt: time.Now().UTC(),
	}
}

func TestConversationStore_RoomLog_KeepsAppendOrder(t *testing.T) {
	req := require.New(t)
	store := NewConversationStore()

	store.AppendRoom(domain.RoomGeneral, textMessage("first"))
	store.AppendRoom(domain.RoomGeneral, textMessage("second"))
	store.AppendRoom(domain.RoomGeneral, textMessage("third"))

	log := store.RoomLog(domain.RoomGeneral)
	req.Len(log, 3)
	req.Equal("first", log[0].Content)
	req.Equal("second", log[1].Content)
	req.Equal("third", log[2].Content)
}

func TestConversationStore_LogsAreIsolated(t *testing.T) {
	req := require.New(t)
	store := NewConversationStore()
	key := domain.NewConversationKey("a", "b")

	store.AppendRoom(domain.RoomGeneral, textMessage("room talk"))
	store.AppendConversation(key, textMessage("private talk"))

	req.Len(store.RoomLog(domain.RoomGeneral), 1)
	req.Len(store.ConversationLog(key), 1)
	req.Empty(store.RoomLog(domain.RoomName(domain.HubTraders)))
}

func TestConversationStore_ReturnsCopies(t *testing.T) {
	req := require.New(t)
	store := NewConversationStore()
	store.AppendRoom(domain.RoomGeneral, textMessage("original"))

	// Mutating the returned slice must not reach the log
	log := store.RoomLog(domain.RoomGeneral)
	log[0].Content = "tampered"

	req.Equal("original", store.RoomLog(domain.RoomGeneral)[0].Content)
}

func TestConversationKey_OrderIndependent(t *testing.T) {
	req := require.New(t)

	req.Equal(domain.NewConversationKey("a", "b"), domain.NewConversationKey("b", "a"))
	req.NotEqual(domain.NewConversationKey("a", "b"), domain.NewConversationKey("a", "c"))
}
