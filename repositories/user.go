package repositories

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"hubchat/contract"
	"hubchat/domain"
	"hubchat/errors"
)

type user struct {
	id        string
	email     string
	name      string
	bio       string
	avatar    string
	hub       domain.Hub
	peers     map[string]struct{}
	createdAt time.Time
}

// UserRepository is the in-memory user table. Users live for the
// process lifetime; nothing is ever deleted.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*user
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*user),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(email, name string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return domain.User{}, errors.ErrUserAlreadyExists
	}

	u := &user{
		id:        uuid.NewString(),
		email:     email,
		name:      name,
		hub:       domain.HubUnset,
		peers:     make(map[string]struct{}),
		createdAt: time.Now().UTC(),
	}
	r.byID[u.id] = u
	r.byEmail[email] = u.id
	return snapshot(u), nil
}

func (r *UserRepository) Get(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, errors.ErrUserNotFound
	}
	return snapshot(u), nil
}

func (r *UserRepository) List() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := lo.MapToSlice(r.byID, func(_ string, u *user) domain.User {
		return snapshot(u)
	})
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

// UpdateProfile applies only the fields provided by the caller,
// leaving nil fields untouched.
func (r *UserRepository) UpdateProfile(id string, bio, avatar *string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, errors.ErrUserNotFound
	}
	if bio != nil {
		u.bio = *bio
	}
	if avatar != nil {
		u.avatar = *avatar
	}
	return snapshot(u), nil
}

// SetHub writes the hub field. The set-once rule is enforced by the
// membership registry, the only component allowed to call this.
func (r *UserRepository) SetHub(id string, hub domain.Hub) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.hub = hub
	return nil
}

// ConnectPeers links two users symmetrically. Sets keep the relation
// duplicate-free when a connection is accepted more than once.
func (r *UserRepository) ConnectPeers(a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ua, ok := r.byID[a]
	if !ok {
		return errors.ErrUserNotFound
	}
	ub, ok := r.byID[b]
	if !ok {
		return errors.ErrUserNotFound
	}
	ua.peers[b] = struct{}{}
	ub.peers[a] = struct{}{}
	return nil
}

func snapshot(u *user) domain.User {
	peers := lo.Keys(u.peers)
	sort.Strings(peers)
	return domain.User{
		ID:             u.id,
		Email:          u.email,
		Name:           u.name,
		Bio:            u.bio,
		Avatar:         u.avatar,
		Hub:            u.hub,
		ConnectedPeers: peers,
		CreatedAt:      u.createdAt,
	}
}

var _ contract.IUserRepository = (*UserRepository)(nil)
