package domain

import "time"

// User is created by the registration collaborator and lives for the
// process lifetime. The Hub field transitions unset to a value exactly
// once and is only written by the membership registry.
type User struct {
	ID             string
	Email          string
	Name           string
	Bio            string
	Avatar         string
	Hub            Hub
	ConnectedPeers []string
	CreatedAt      time.Time
}
