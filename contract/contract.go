package contract

import (
	"context"
	"reflect"

	"hubchat/domain"
	"hubchat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself, the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the
// Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery side of a transport session. Consume must
// not block: implementations buffer and report a drop as an error.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// ISessionDirectory resolves live sessions to sinks and identities.
type ISessionDirectory interface {
	Register(sessionID string, sink EventSink)
	Identify(sessionID, userID string)
	Unregister(sessionID string)
	SinkFor(sessionID string) (EventSink, bool)
	UserOf(sessionID string) (string, bool)
}

// Mailroom is the typed per-user mailbox handle: delivery addressed by
// user identifier rather than by interpolated channel names.
type Mailroom interface {
	DeliverTo(ctx context.Context, userID string, e event.Outbound)
}

type IBroadcaster interface {
	Join(sessionID string, room domain.RoomName) error
	Publish(ctx context.Context, sender domain.User, room domain.RoomName,
		content string, msgType domain.MessageType, scanned bool) (domain.Message, error)
	Leave(sessionID string)
}

type IGate interface {
	RequestSend(ctx context.Context, senderID, receiverID, content string,
		msgType domain.MessageType) (domain.Message, error)
	Accept(ctx context.Context, acceptorID, peerID string) (domain.ConnectionState, error)
}

type IMembership interface {
	JoinHub(userID string, hub domain.Hub) (domain.User, error)
}

type IConversationStore interface {
	AppendRoom(room domain.RoomName, m domain.Message)
	RoomLog(room domain.RoomName) []domain.Message
	AppendConversation(key domain.ConversationKey, m domain.Message)
	ConversationLog(key domain.ConversationKey) []domain.Message
}

type IUserRepository interface {
	Create(email, name string) (domain.User, error)
	Get(id string) (domain.User, error)
	List() []domain.User
	UpdateProfile(id string, bio, avatar *string) (domain.User, error)
	SetHub(id string, hub domain.Hub) error
	ConnectPeers(a, b string) error
}
