// Package membership tracks each user's permanent hub assignment.
// Irrevocability is the rule: there is no operation to clear or change
// an existing assignment.
package membership

import (
	"log/slog"
	"sync"

	"hubchat/contract"
	"hubchat/domain"
	"hubchat/errors"
)

type Registry struct {
	mu    sync.Mutex
	users contract.IUserRepository
	log   *slog.Logger
}

func NewRegistry(users contract.IUserRepository, log *slog.Logger) *Registry {
	return &Registry{users: users, log: log}
}

// JoinHub assigns a hub to a user exactly once. Joining the same hub
// again succeeds idempotently; joining a different hub fails with
// ErrHubLocked and leaves state unchanged.
func (r *Registry) JoinHub(userID string, hub domain.Hub) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.users.Get(userID)
	if err != nil {
		return domain.User{}, err
	}

	switch u.Hub {
	case domain.HubUnset:
		if err := r.users.SetHub(userID, hub); err != nil {
			return domain.User{}, err
		}
		r.log.Info("Hub assigned", "user_id", userID, "hub", hub)
	case hub:
		// Already a member, nothing to do.
	default:
		return domain.User{}, errors.ErrHubLocked
	}

	return r.users.Get(userID)
}

var _ contract.IMembership = (*Registry)(nil)
