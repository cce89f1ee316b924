// Package domain contains core concepts of the relay.
// Messages are immutable once created and are appended exactly once
// to exactly one log, either a room log or a conversation log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TextMessage  MessageType = "text"
	ImageMessage MessageType = "image"
	VoiceMessage MessageType = "voice"
)

func (t MessageType) Valid() bool {
	switch t {
	case TextMessage, ImageMessage, VoiceMessage:
		return true
	default:
		return false
	}
}

// Message represents an immutable chat event. ReceiverID is set for
// direct messages only, Room for room messages only. Scanned is filled
// by the external upload scanner and defaults to false.
type Message struct {
	ID         uuid.UUID
	SenderID   string
	SenderName string
	ReceiverID string
	Room       RoomName
	Content    string
	Type       MessageType
	CreatedAt  time.Time
	Scanned    bool
}
