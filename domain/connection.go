package domain

import "strings"

// ConversationKey canonically identifies a DM pair: the two user
// identifiers in sorted order, independent of who initiated.
type ConversationKey string

func NewConversationKey(a, b string) ConversationKey {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return ConversationKey(a + ":" + b)
}

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
)

// PendingMessageLimit caps the number of messages the initiator may
// send while the conversation is still pending.
const PendingMessageLimit = 3

// ConnectionState is created lazily on the first DM attempt between a
// pair and never deleted. Status only moves pending to accepted;
// PendingCount is frozen once accepted.
type ConnectionState struct {
	Key          ConversationKey
	Status       ConnectionStatus
	Initiator    string
	PendingCount int
}
