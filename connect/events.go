package connect

import (
	"hubchat/domain"
	"hubchat/domain/event"
)

func eventDM(m domain.Message) event.DirectMessage {
	return event.FromDirectMessage(m)
}

func eventUpdate(targetID string) event.ConnectionUpdate {
	return event.ConnectionUpdate{
		TargetID: targetID,
		Status:   domain.ConnectionAccepted,
	}
}
