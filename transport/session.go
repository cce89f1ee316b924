package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hubchat/contract"
	"hubchat/domain/event"
	"hubchat/runtime"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Session wraps one websocket connection. It is the relay's EventSink
// for that connection: Consume queues an outbound event without
// blocking, the write pump serializes it onto the wire.
type Session struct {
	id         string
	conn       *websocket.Conn
	dispatcher *runtime.Dispatcher
	log        *slog.Logger
	send       chan event.Outbound
}

func NewSession(conn *websocket.Conn, dispatcher *runtime.Dispatcher,
	log *slog.Logger, bufferSize int) *Session {
	return &Session{
		id:         uuid.NewString(),
		conn:       conn,
		dispatcher: dispatcher,
		log:        log,
		send:       make(chan event.Outbound, bufferSize),
	}
}

func (s *Session) ID() string { return s.id }

// Consume queues an event for delivery. Never blocks: a full buffer
// drops the event and reports it, the relay does not guarantee durable
// delivery to slow or disconnected recipients.
func (s *Session) Consume(_ context.Context, e event.Outbound) error {
	select {
	case s.send <- e:
		return nil
	default:
		return fmt.Errorf("session %s buffer full, dropping %s", s.id, e.EventType())
	}
}

// Run starts both pumps and blocks until the connection dies, then
// tears the session down.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

func (s *Session) readPump() {
	defer func() {
		s.dispatcher.Disconnect(s.id)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Unexpected websocket close", "session_id", s.id, "error", err)
			} else {
				s.log.Debug("Session disconnected", "session_id", s.id)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.log.Warn("Malformed frame", "session_id", s.id, "error", err)
			_ = s.Consume(context.Background(), event.Error{Message: "malformed frame"})
			continue
		}

		s.dispatcher.Dispatch(runtime.Envelope{
			SessionID: s.id,
			Type:      frame.Type,
			Payload:   frame.Payload,
		})
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case e, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := encodeFrame(e)
			if err != nil {
				s.log.Error("Failed to encode frame", "session_id", s.id, "error", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("Write failed, closing session", "session_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ contract.EventSink = (*Session)(nil)
