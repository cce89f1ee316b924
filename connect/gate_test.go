package connect

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"hubchat/domain"
	"hubchat/domain/event"
	"hubchat/errors"
	"hubchat/repositories"
)

// mailbox records every personal delivery, keyed by user.
type mailbox struct {
	mu     sync.Mutex
	events map[string][]event.Outbound
}

func newMailbox() *mailbox {
	return &mailbox{events: make(map[string][]event.Outbound)}
}

func (m *mailbox) DeliverTo(_ context.Context, userID string, e event.Outbound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[userID] = append(m.events[userID], e)
}

func (m *mailbox) delivered(userID string) []event.Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[userID]
}

type fixture struct {
	gate  *Gate
	store *repositories.ConversationStore
	users *repositories.UserRepository
	mail  *mailbox
	alice domain.User
	bob   domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	users := repositories.NewUserRepository()
	alice, err := users.Create("alice@example.com", "Alice")
	require.NoError(t, err)
	bob, err := users.Create("bob@example.com", "Bob")
	require.NoError(t, err)

	store := repositories.NewConversationStore()
	mail := newMailbox()
	gate := NewGate(store, users, mail, clock.NewMock(), slog.Default())
	return fixture{gate: gate, store: store, users: users, mail: mail, alice: alice, bob: bob}
}

func TestGate_RequestSend_InitiatorQuota(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	key := domain.NewConversationKey(f.alice.ID, f.bob.ID)

	// Given three pending messages from the initiator all succeed
	for i := 0; i < domain.PendingMessageLimit; i++ {
		_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "hi", domain.TextMessage)
		req.NoError(err)
	}
	req.Len(f.store.ConversationLog(key), 3)

	// When the initiator sends a fourth message before acceptance
	_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "hi again", domain.TextMessage)

	// Then it is rejected and the log is unchanged
	req.ErrorIs(err, errors.ErrConnectionLimitExceeded)
	req.Len(f.store.ConversationLog(key), 3)

	state, ok := f.gate.State(f.alice.ID, f.bob.ID)
	req.True(ok)
	req.Equal(domain.ConnectionPending, state.Status)
	req.Equal(domain.PendingMessageLimit, state.PendingCount)
}

func TestGate_RequestSend_NonInitiatorIsUnrestricted(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Given a pending conversation initiated by Alice
	_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "hello", domain.TextMessage)
	req.NoError(err)

	// When Bob replies more times than the pending limit
	for i := 0; i < domain.PendingMessageLimit+2; i++ {
		_, err = f.gate.RequestSend(ctx, f.bob.ID, f.alice.ID, "reply", domain.TextMessage)
		req.NoError(err)
	}

	// Then the state is still pending and the count only tracks Alice
	state, ok := f.gate.State(f.alice.ID, f.bob.ID)
	req.True(ok)
	req.Equal(domain.ConnectionPending, state.Status)
	req.Equal(f.alice.ID, state.Initiator)
	req.Equal(1, state.PendingCount)
}

func TestGate_RequestSend_DeliversToBothParties(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	msg, err := f.gate.RequestSend(context.Background(), f.alice.ID, f.bob.ID, "hello", domain.TextMessage)
	req.NoError(err)

	// Both personal mailboxes received the same copy
	req.Len(f.mail.delivered(f.alice.ID), 1)
	req.Len(f.mail.delivered(f.bob.ID), 1)

	dm, ok := f.mail.delivered(f.bob.ID)[0].(event.DirectMessage)
	req.True(ok)
	req.Equal(msg.ID, dm.ID)
	req.Equal(f.alice.ID, dm.From)
}

func TestGate_Accept_FullScenario(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Given Alice exhausted her pending quota
	for i := 0; i < domain.PendingMessageLimit; i++ {
		_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "hi", domain.TextMessage)
		req.NoError(err)
	}
	_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "one more", domain.TextMessage)
	req.ErrorIs(err, errors.ErrConnectionLimitExceeded)

	// When Bob accepts the connection
	state, err := f.gate.Accept(ctx, f.bob.ID, f.alice.ID)
	req.NoError(err)
	req.Equal(domain.ConnectionAccepted, state.Status)

	// Then Alice's next message goes through with no quota check
	_, err = f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "free at last", domain.TextMessage)
	req.NoError(err)

	// And both users list each other as connected peers
	alice, err := f.users.Get(f.alice.ID)
	req.NoError(err)
	req.Contains(alice.ConnectedPeers, f.bob.ID)
	bob, err := f.users.Get(f.bob.ID)
	req.NoError(err)
	req.Contains(bob.ConnectedPeers, f.alice.ID)

	// And both mailboxes saw the status update
	req.Contains(f.mail.delivered(f.alice.ID),
		event.Outbound(event.ConnectionUpdate{TargetID: f.bob.ID, Status: domain.ConnectionAccepted}))
	req.Contains(f.mail.delivered(f.bob.ID),
		event.Outbound(event.ConnectionUpdate{TargetID: f.alice.ID, Status: domain.ConnectionAccepted}))
}

func TestGate_Accept_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gate.RequestSend(ctx, f.alice.ID, f.bob.ID, "hi", domain.TextMessage)
	req.NoError(err)

	// When accept is called twice
	first, err := f.gate.Accept(ctx, f.bob.ID, f.alice.ID)
	req.NoError(err)
	second, err := f.gate.Accept(ctx, f.bob.ID, f.alice.ID)
	req.NoError(err)

	// Then the state stays accepted with the count frozen
	req.Equal(domain.ConnectionAccepted, first.Status)
	req.Equal(domain.ConnectionAccepted, second.Status)
	req.Equal(first.PendingCount, second.PendingCount)

	// And only the first call produced connection updates
	updates := 0
	for _, e := range f.mail.delivered(f.alice.ID) {
		if _, ok := e.(event.ConnectionUpdate); ok {
			updates++
		}
	}
	req.Equal(1, updates)
}

func TestGate_Accept_MissingConversationIsNoOp(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	state, err := f.gate.Accept(context.Background(), f.bob.ID, f.alice.ID)

	req.NoError(err)
	req.Empty(state.Status)
	_, ok := f.gate.State(f.alice.ID, f.bob.ID)
	req.False(ok)
}

func TestGate_RequestSend_UnknownReceiver(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.gate.RequestSend(context.Background(), f.alice.ID, "missing", "hi", domain.TextMessage)

	req.ErrorIs(err, errors.ErrUserNotFound)
}
