// Package broadcast manages room subscriptions and fan-out of room
// messages. It performs no hub-authorization check: the hub lock is
// enforced at the membership boundary only, so any session explicitly
// joined to a hub room receives its broadcasts.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"hubchat/contract"
	"hubchat/domain"
	"hubchat/domain/event"
	"hubchat/errors"
)

// Censor rewrites message content before it is appended and fanned out.
type Censor interface {
	Censor(string) string
}

type set map[string]struct{}

type Broadcaster struct {
	mu        sync.RWMutex
	store     contract.IConversationStore
	directory contract.ISessionDirectory
	censor    Censor
	clock     clock.Clock
	log       *slog.Logger

	subscribers map[domain.RoomName]set
}

func NewBroadcaster(store contract.IConversationStore, directory contract.ISessionDirectory,
	censor Censor, clk clock.Clock, log *slog.Logger) *Broadcaster {
	b := &Broadcaster{
		store:       store,
		directory:   directory,
		censor:      censor,
		clock:       clk,
		log:         log,
		subscribers: make(map[domain.RoomName]set),
	}
	for _, room := range domain.KnownRooms() {
		b.subscribers[room] = make(set)
	}
	return b
}

// Join adds a session to a room's subscriber set. Idempotent; only the
// fixed enumerated set of room names is valid.
func (b *Broadcaster) Join(sessionID string, room domain.RoomName) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.subscribers[room]
	if !ok {
		return errors.ErrUnknownRoom
	}
	members[sessionID] = struct{}{}
	return nil
}

// Publish appends a message to the room's log and delivers it to every
// currently subscribed session, the sender's own included: the
// broadcast copy is the sender's confirmation. Messages published to
// the same room reach all subscribers in publish order.
func (b *Broadcaster) Publish(ctx context.Context, sender domain.User, room domain.RoomName,
	content string, msgType domain.MessageType, scanned bool) (domain.Message, error) {
	b.mu.RLock()
	members, ok := b.subscribers[room]
	if !ok {
		b.mu.RUnlock()
		return domain.Message{}, errors.ErrUnknownRoom
	}
	sessions := make([]string, 0, len(members))
	for id := range members {
		sessions = append(sessions, id)
	}
	b.mu.RUnlock()

	if msgType == domain.TextMessage && b.censor != nil {
		content = b.censor.Censor(content)
	}

	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Room:       room,
		Content:    content,
		Type:       msgType,
		CreatedAt:  b.clock.Now().UTC(),
		Scanned:    scanned,
	}
	b.store.AppendRoom(room, msg)

	evt := event.FromRoomMessage(msg)
	for _, sessionID := range sessions {
		sink, live := b.directory.SinkFor(sessionID)
		if !live {
			continue
		}
		if err := sink.Consume(ctx, evt); err != nil {
			b.log.Warn("Room delivery dropped",
				"room", room, "session_id", sessionID, "error", err)
		}
	}
	return msg, nil
}

// Leave removes a session from every subscriber set. Room logs are
// never mutated by a disconnect.
func (b *Broadcaster) Leave(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, members := range b.subscribers {
		delete(members, sessionID)
	}
}

// Subscribed reports whether a session is currently in a room's set.
func (b *Broadcaster) Subscribed(sessionID string, room domain.RoomName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[room][sessionID]
	return ok
}

var _ contract.IBroadcaster = (*Broadcaster)(nil)
