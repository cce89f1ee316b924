package repositories

import (
	"sync"

	"hubchat/contract"
	"hubchat/domain"
)

// ConversationStore holds the ordered message logs, one per room and
// one per DM conversation. Logs are append-only and unbounded, which is
// fine for a process-lifetime store; the interface lets a bounded or
// externalized store be substituted without touching routing.
type ConversationStore struct {
	mu            sync.RWMutex
	roomLogs      map[domain.RoomName][]domain.Message
	conversations map[domain.ConversationKey][]domain.Message
}

func NewConversationStore() *ConversationStore {
	s := &ConversationStore{
		roomLogs:      make(map[domain.RoomName][]domain.Message),
		conversations: make(map[domain.ConversationKey][]domain.Message),
	}
	for _, room := range domain.KnownRooms() {
		s.roomLogs[room] = nil
	}
	return s
}

func (s *ConversationStore) AppendRoom(room domain.RoomName, m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomLogs[room] = append(s.roomLogs[room], m)
}

func (s *ConversationStore) RoomLog(room domain.RoomName) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.roomLogs[room]
	out := make([]domain.Message, len(log))
	copy(out, log)
	return out
}

func (s *ConversationStore) AppendConversation(key domain.ConversationKey, m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[key] = append(s.conversations[key], m)
}

func (s *ConversationStore) ConversationLog(key domain.ConversationKey) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.conversations[key]
	out := make([]domain.Message, len(log))
	copy(out, log)
	return out
}

var _ contract.IConversationStore = (*ConversationStore)(nil)
