// Package connect owns the pending/accepted state machine for DM pairs
// and enforces the pre-acceptance message quota.
package connect

import (
	"context"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"hubchat/contract"
	"hubchat/domain"
	"hubchat/errors"
)

type Gate struct {
	mu    sync.Mutex
	store contract.IConversationStore
	users contract.IUserRepository
	mail  contract.Mailroom
	clock clock.Clock
	log   *slog.Logger

	states map[domain.ConversationKey]*domain.ConnectionState
}

func NewGate(store contract.IConversationStore, users contract.IUserRepository,
	mail contract.Mailroom, clk clock.Clock, log *slog.Logger) *Gate {
	return &Gate{
		store:  store,
		users:  users,
		mail:   mail,
		clock:  clk,
		log:    log,
		states: make(map[domain.ConversationKey]*domain.ConnectionState),
	}
}

// RequestSend applies the connection state machine to a DM attempt.
// State is created lazily on the first attempt between a pair. While
// pending, the initiator is capped at PendingMessageLimit messages;
// the non-initiating peer is unrestricted, a pass-through that does
// not move the state toward acceptance. Once accepted there is no
// quota. A rejected send has no side effects.
func (g *Gate) RequestSend(ctx context.Context, senderID, receiverID, content string,
	msgType domain.MessageType) (domain.Message, error) {
	if _, err := g.users.Get(receiverID); err != nil {
		return domain.Message{}, err
	}

	key := domain.NewConversationKey(senderID, receiverID)

	g.mu.Lock()
	state, ok := g.states[key]
	if !ok {
		state = &domain.ConnectionState{
			Key:       key,
			Status:    domain.ConnectionPending,
			Initiator: senderID,
		}
		g.states[key] = state
	}

	if state.Status == domain.ConnectionPending && state.Initiator == senderID {
		if state.PendingCount >= domain.PendingMessageLimit {
			g.mu.Unlock()
			return domain.Message{}, errors.ErrConnectionLimitExceeded
		}
		state.PendingCount++
	}
	g.mu.Unlock()

	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
		CreatedAt:  g.clock.Now().UTC(),
	}
	g.store.AppendConversation(key, msg)

	// Both parties get the copy, whichever room they are watching.
	g.deliverDM(ctx, msg)
	return msg, nil
}

// Accept moves a pending conversation to accepted and links the two
// users as connected peers, both directions. Calling it on a missing
// or already accepted conversation is a no-op.
func (g *Gate) Accept(ctx context.Context, acceptorID, peerID string) (domain.ConnectionState, error) {
	key := domain.NewConversationKey(acceptorID, peerID)

	g.mu.Lock()
	state, ok := g.states[key]
	if !ok || state.Status == domain.ConnectionAccepted {
		var current domain.ConnectionState
		if ok {
			current = *state
		}
		g.mu.Unlock()
		return current, nil
	}
	state.Status = domain.ConnectionAccepted
	current := *state
	g.mu.Unlock()

	if err := g.users.ConnectPeers(acceptorID, peerID); err != nil {
		return current, err
	}

	g.log.Info("Connection accepted", "acceptor", acceptorID, "peer", peerID)
	g.mail.DeliverTo(ctx, acceptorID, eventUpdate(peerID))
	g.mail.DeliverTo(ctx, peerID, eventUpdate(acceptorID))
	return current, nil
}

// State returns a copy of the connection state for a pair, if any.
func (g *Gate) State(a, b string) (domain.ConnectionState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.states[domain.NewConversationKey(a, b)]
	if !ok {
		return domain.ConnectionState{}, false
	}
	return *state, true
}

func (g *Gate) deliverDM(ctx context.Context, msg domain.Message) {
	g.mail.DeliverTo(ctx, msg.ReceiverID, eventDM(msg))
	g.mail.DeliverTo(ctx, msg.SenderID, eventDM(msg))
}

var _ contract.IGate = (*Gate)(nil)
