// Package event defines the wire-level events exchanged with transport
// sessions: inbound payloads parsed from client frames and outbound
// events delivered through session sinks.
package event

import (
	"time"

	"github.com/google/uuid"

	"hubchat/domain"
)

type Type string

// Inbound frame types.
const (
	TypeIdentify         Type = "identify"
	TypeJoinRoom         Type = "join_room"
	TypeSendMessage      Type = "send_message"
	TypeSendDM           Type = "send_dm"
	TypeAcceptConnection Type = "accept_connection"
)

// Outbound frame types.
const (
	TypeIdentified       Type = "identified"
	TypeReceiveMessage   Type = "receive_message"
	TypeDM               Type = "dm"
	TypeConnectionUpdate Type = "connection_update"
	TypeDMError          Type = "dm_error"
	TypeError            Type = "error"
)

// Inbound payloads. Sender identity always comes from the session, not
// from the payload.

type Identify struct {
	Token string `json:"token" validate:"required"`
}

type JoinRoom struct {
	Room string `json:"room" validate:"required"`
}

type SendMessage struct {
	Room    string `json:"room" validate:"required"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=text image voice"`
	Scanned bool   `json:"scanned"`
}

type SendDM struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=text image voice"`
}

type AcceptConnection struct {
	TargetID string `json:"targetId" validate:"required"`
}

// Outbound is implemented by every event a sink can deliver.
type Outbound interface {
	EventType() Type
}

type Identified struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (Identified) EventType() Type { return TypeIdentified }

type MessageReceived struct {
	ID         uuid.UUID          `json:"id"`
	Room       domain.RoomName    `json:"room"`
	SenderID   string             `json:"senderId"`
	SenderName string             `json:"senderName"`
	Content    string             `json:"content"`
	Type       domain.MessageType `json:"type"`
	CreatedAt  time.Time          `json:"timestamp"`
	Scanned    bool               `json:"scanned"`
}

func (MessageReceived) EventType() Type { return TypeReceiveMessage }

type DirectMessage struct {
	ID         uuid.UUID          `json:"id"`
	From       string             `json:"from"`
	ReceiverID string             `json:"receiverId"`
	Content    string             `json:"content"`
	Type       domain.MessageType `json:"type"`
	CreatedAt  time.Time          `json:"timestamp"`
}

func (DirectMessage) EventType() Type { return TypeDM }

type ConnectionUpdate struct {
	TargetID string                  `json:"targetId"`
	Status   domain.ConnectionStatus `json:"status"`
}

func (ConnectionUpdate) EventType() Type { return TypeConnectionUpdate }

type DMError struct {
	Message string `json:"message"`
}

func (DMError) EventType() Type { return TypeDMError }

type Error struct {
	Message string `json:"message"`
}

func (Error) EventType() Type { return TypeError }

func FromRoomMessage(m domain.Message) MessageReceived {
	return MessageReceived{
		ID:         m.ID,
		Room:       m.Room,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		Type:       m.Type,
		CreatedAt:  m.CreatedAt,
		Scanned:    m.Scanned,
	}
}

func FromDirectMessage(m domain.Message) DirectMessage {
	return DirectMessage{
		ID:         m.ID,
		From:       m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Type:       m.Type,
		CreatedAt:  m.CreatedAt,
	}
}
