package domain

import (
	"fmt"

	"hubchat/errors"
)

// Hub is one of the fixed interest-based broadcast rooms.
// A user joins a hub at most once, permanently.
type Hub string

const (
	HubTraders    Hub = "traders"
	HubCreative   Hub = "creative"
	HubDevelopers Hub = "developers"
)

// HubUnset marks a user that never joined a hub.
const HubUnset Hub = ""

func Hubs() []Hub {
	return []Hub{HubTraders, HubCreative, HubDevelopers}
}

func ParseHub(s string) (Hub, error) {
	switch Hub(s) {
	case HubTraders, HubCreative, HubDevelopers:
		return Hub(s), nil
	default:
		return HubUnset, fmt.Errorf("%w: unknown hub %q", errors.ErrValidation, s)
	}
}
