package repositories

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"hubchat/domain"
	"hubchat/errors"
)

func TestUserRepository_Create(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository()

	u, err := repo.Create("alice@example.com", "Alice")

	req.NoError(err)
	req.NotEmpty(u.ID)
	req.Equal("Alice", u.Name)
	req.Equal(domain.HubUnset, u.Hub)
	req.Empty(u.ConnectedPeers)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository()
	_, err := repo.Create("alice@example.com", "Alice")
	req.NoError(err)

	_, err = repo.Create("alice@example.com", "Other Alice")

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
	req.Len(repo.List(), 1)
}

func TestUserRepository_UpdateProfile_PartialFields(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository()
	u, err := repo.Create("alice@example.com", "Alice")
	req.NoError(err)

	// Given a bio was set earlier
	_, err = repo.UpdateProfile(u.ID, lo.ToPtr("trader by day"), nil)
	req.NoError(err)

	// When only the avatar is updated
	updated, err := repo.UpdateProfile(u.ID, nil, lo.ToPtr("/uploads/alice.png"))

	// Then the bio survives
	req.NoError(err)
	req.Equal("trader by day", updated.Bio)
	req.Equal("/uploads/alice.png", updated.Avatar)
}

func TestUserRepository_ConnectPeers_SymmetricAndDuplicateFree(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository()
	alice, err := repo.Create("alice@example.com", "Alice")
	req.NoError(err)
	bob, err := repo.Create("bob@example.com", "Bob")
	req.NoError(err)

	// When the pair is connected twice
	req.NoError(repo.ConnectPeers(alice.ID, bob.ID))
	req.NoError(repo.ConnectPeers(bob.ID, alice.ID))

	// Then each side lists the other exactly once
	a, err := repo.Get(alice.ID)
	req.NoError(err)
	req.Equal([]string{bob.ID}, a.ConnectedPeers)
	b, err := repo.Get(bob.ID)
	req.NoError(err)
	req.Equal([]string{alice.ID}, b.ConnectedPeers)
}

func TestUserRepository_Get_Unknown(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository()

	_, err := repo.Get("missing")

	req.ErrorIs(err, errors.ErrUserNotFound)
}
