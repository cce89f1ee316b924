package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"hubchat/auth"
	"hubchat/contract"
	"hubchat/domain"
	"hubchat/domain/event"
	"hubchat/errors"
	"hubchat/observability"
)

// Envelope is one inbound frame from a transport session, queued for
// the dispatcher loop.
type Envelope struct {
	SessionID string
	Type      event.Type
	Payload   json.RawMessage
}

// Dispatcher is the single-writer actor of the relay: one goroutine
// consumes the inbound channel, so all component mutations triggered
// by events are serialized. It authenticates sessions, routes each
// event to exactly one component operation, and reports outcomes back
// to the affected sessions. A failure while handling one session's
// event never reaches another session.
type Dispatcher struct {
	log         *slog.Logger
	registry    *Registry
	users       contract.IUserRepository
	broadcaster contract.IBroadcaster
	gate        contract.IGate
	tokens      *auth.Issuer
	metrics     *observability.Metrics
	validate    *validator.Validate

	inbound   chan Envelope
	telemetry chan domain.Message
}

func NewDispatcher(log *slog.Logger, registry *Registry, users contract.IUserRepository,
	broadcaster contract.IBroadcaster, gate contract.IGate, tokens *auth.Issuer,
	metrics *observability.Metrics, bufferSize int) *Dispatcher {
	return &Dispatcher{
		log:         log,
		registry:    registry,
		users:       users,
		broadcaster: broadcaster,
		gate:        gate,
		tokens:      tokens,
		metrics:     metrics,
		validate:    validator.New(),
		inbound:     make(chan Envelope, bufferSize),
		telemetry:   make(chan domain.Message, bufferSize),
	}
}

// Telemetry exposes the lossy telemetry channel consumed by the
// telemetry worker.
func (d *Dispatcher) Telemetry() chan domain.Message {
	return d.telemetry
}

// Dispatch enqueues an inbound envelope without blocking the session's
// read loop. A full queue drops the event.
func (d *Dispatcher) Dispatch(env Envelope) {
	select {
	case d.inbound <- env:
	default:
		d.log.Warn("Inbound queue full, dropping event",
			"session_id", env.SessionID, "type", env.Type)
		d.metrics.DeliveryDrops.Inc()
	}
}

// Disconnect tears down a session: subscriber sets and directory entry
// go, logs and user data stay.
func (d *Dispatcher) Disconnect(sessionID string) {
	d.broadcaster.Leave(sessionID)
	d.registry.Unregister(sessionID)
	d.metrics.SessionsGauge.Set(float64(d.registry.Sessions()))
}

// Run consumes the inbound channel until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("Stopping dispatcher")
			return ctx.Err()
		case env, ok := <-d.inbound:
			if !ok {
				return nil
			}
			d.handle(ctx, env)
		}
	}
}

// handle processes one envelope with panic isolation: an unexpected
// failure becomes a generic error frame to the triggering session only.
func (d *Dispatcher) handle(ctx context.Context, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Event handler panicked",
				"session_id", env.SessionID, "type", env.Type, "panic", r)
			d.metrics.RejectionsTotal.WithLabelValues("panic").Inc()
			d.sendError(ctx, env.SessionID, event.Error{Message: "internal error"})
		}
	}()

	d.metrics.EventsTotal.WithLabelValues(string(env.Type)).Inc()

	if env.Type == event.TypeIdentify {
		d.handleIdentify(ctx, env)
		return
	}

	userID, identified := d.registry.UserOf(env.SessionID)
	if !identified {
		d.metrics.RejectionsTotal.WithLabelValues("not_identified").Inc()
		d.sendError(ctx, env.SessionID, event.Error{Message: errors.ErrNotIdentified.Error()})
		return
	}

	switch env.Type {
	case event.TypeJoinRoom:
		d.handleJoinRoom(ctx, env)
	case event.TypeSendMessage:
		d.handleSendMessage(ctx, env, userID)
	case event.TypeSendDM:
		d.handleSendDM(ctx, env, userID)
	case event.TypeAcceptConnection:
		d.handleAccept(ctx, env, userID)
	default:
		d.sendError(ctx, env.SessionID,
			event.Error{Message: fmt.Sprintf("unknown event type %q", env.Type)})
	}
}

func (d *Dispatcher) handleIdentify(ctx context.Context, env Envelope) {
	var payload event.Identify
	if !d.decode(ctx, env, &payload) {
		return
	}

	claims, err := d.tokens.Verify(payload.Token)
	if err != nil {
		d.metrics.RejectionsTotal.WithLabelValues("invalid_token").Inc()
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
		return
	}

	u, err := d.users.Get(claims.UserID)
	if err != nil {
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
		return
	}

	d.registry.Identify(env.SessionID, u.ID)
	d.sendTo(ctx, env.SessionID, event.Identified{UserID: u.ID, Name: u.Name})
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, env Envelope) {
	var payload event.JoinRoom
	if !d.decode(ctx, env, &payload) {
		return
	}

	if err := d.broadcaster.Join(env.SessionID, domain.RoomName(payload.Room)); err != nil {
		d.metrics.RejectionsTotal.WithLabelValues("unknown_room").Inc()
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
	}
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, env Envelope, userID string) {
	var payload event.SendMessage
	if !d.decode(ctx, env, &payload) {
		return
	}

	sender, err := d.users.Get(userID)
	if err != nil {
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
		return
	}

	msg, err := d.broadcaster.Publish(ctx, sender, domain.RoomName(payload.Room),
		payload.Content, domain.MessageType(payload.Type), payload.Scanned)
	if err != nil {
		d.metrics.RejectionsTotal.WithLabelValues("unknown_room").Inc()
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
		return
	}

	d.metrics.MessagesTotal.WithLabelValues(payload.Room).Inc()
	d.observe(msg)
}

func (d *Dispatcher) handleSendDM(ctx context.Context, env Envelope, userID string) {
	var payload event.SendDM
	if !d.decode(ctx, env, &payload) {
		return
	}

	msg, err := d.gate.RequestSend(ctx, userID, payload.ReceiverID,
		payload.Content, domain.MessageType(payload.Type))
	if err != nil {
		// Reported to the sender only, the conversation log is untouched.
		d.metrics.RejectionsTotal.WithLabelValues("dm_rejected").Inc()
		d.sendTo(ctx, env.SessionID, event.DMError{Message: err.Error()})
		return
	}

	d.metrics.MessagesTotal.WithLabelValues("dm").Inc()
	d.observe(msg)
}

func (d *Dispatcher) handleAccept(ctx context.Context, env Envelope, userID string) {
	var payload event.AcceptConnection
	if !d.decode(ctx, env, &payload) {
		return
	}

	if _, err := d.gate.Accept(ctx, userID, payload.TargetID); err != nil {
		d.sendError(ctx, env.SessionID, event.Error{Message: err.Error()})
	}
}

// decode unmarshals and validates a payload, reporting a validation
// error to the session when it is malformed.
func (d *Dispatcher) decode(ctx context.Context, env Envelope, payload any) bool {
	if err := json.Unmarshal(env.Payload, payload); err == nil {
		if err = d.validate.Struct(payload); err == nil {
			return true
		}
	}
	d.metrics.RejectionsTotal.WithLabelValues("validation").Inc()
	d.sendError(ctx, env.SessionID,
		event.Error{Message: fmt.Sprintf("%s: %s", errors.ErrValidation, env.Type)})
	return false
}

func (d *Dispatcher) sendError(ctx context.Context, sessionID string, e event.Outbound) {
	d.sendTo(ctx, sessionID, e)
}

func (d *Dispatcher) sendTo(ctx context.Context, sessionID string, e event.Outbound) {
	sink, ok := d.registry.SinkFor(sessionID)
	if !ok {
		return
	}
	if err := sink.Consume(ctx, e); err != nil {
		d.metrics.DeliveryDrops.Inc()
		d.log.Warn("Session delivery dropped", "session_id", sessionID, "error", err)
	}
}

// observe feeds the telemetry channel, lossy on purpose.
func (d *Dispatcher) observe(msg domain.Message) {
	select {
	case d.telemetry <- msg:
	default:
		d.log.Debug("Telemetry event lost")
	}
}

var _ contract.Worker = (*Dispatcher)(nil)
