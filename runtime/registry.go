// Package runtime handles session routing and event dispatch. It
// orchestrates the relay without containing domain rules.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"hubchat/contract"
	"hubchat/domain/event"
)

type set map[string]struct{}

// Registry is the session directory: it maps live transport sessions
// to sinks and authenticated identities, and exposes per-user
// mailboxes addressed by user identifier. A user with several open
// sessions receives personal events on all of them.
type Registry struct {
	mu           sync.RWMutex
	log          *slog.Logger
	sinks        map[string]contract.EventSink
	identities   map[string]string
	userSessions map[string]set
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:          log,
		sinks:        make(map[string]contract.EventSink),
		identities:   make(map[string]string),
		userSessions: make(map[string]set),
	}
}

func (r *Registry) Register(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sessionID] = sink
}

// Identify binds an authenticated user to a session, established once
// per session.
func (r *Registry) Identify(sessionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.sinks[sessionID]; !live {
		return
	}
	r.identities[sessionID] = userID
	if _, ok := r.userSessions[userID]; !ok {
		r.userSessions[userID] = make(set)
	}
	r.userSessions[userID][sessionID] = struct{}{}
}

// Unregister tears down session state on disconnect. User data is
// untouched. Empty per-user sets are removed to avoid leaking entries
// over time.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, sessionID)
	userID, ok := r.identities[sessionID]
	if !ok {
		return
	}
	delete(r.identities, sessionID)
	if sessions, ok := r.userSessions[userID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.userSessions, userID)
		}
	}
}

func (r *Registry) SinkFor(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[sessionID]
	return sink, ok
}

func (r *Registry) UserOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.identities[sessionID]
	return userID, ok
}

// Sessions returns the number of registered sessions.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// DeliverTo pushes a personal event to every session of a user.
// Fire-and-forget: a full session buffer drops the event.
func (r *Registry) DeliverTo(ctx context.Context, userID string, e event.Outbound) {
	r.mu.RLock()
	var sinks []contract.EventSink
	for sessionID := range r.userSessions[userID] {
		if sink, ok := r.sinks[sessionID]; ok {
			sinks = append(sinks, sink)
		}
	}
	r.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("Personal delivery dropped", "user_id", userID, "error", err)
		}
	}
}

var (
	_ contract.ISessionDirectory = (*Registry)(nil)
	_ contract.Mailroom          = (*Registry)(nil)
)
