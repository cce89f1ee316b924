package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"hubchat/domain/event"
)

func dialWS(t *testing.T, f *serverFixture) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, typ event.Type, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(Frame{Type: typ, Payload: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// readFrame blocks until a frame of the wanted type arrives, skipping
// any others delivered in between.
func readFrame(t *testing.T, conn *websocket.Conn, want event.Type) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame Frame
		require.NoError(t, json.Unmarshal(raw, &frame))
		if frame.Type == want {
			return frame.Payload
		}
	}
}

func TestSession_IdentifyJoinAndChat(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	// Given two registered collaborators connected over websocket
	aliceID, aliceToken := f.register(t, "alice@example.com", "alice")
	_, bobToken := f.register(t, "bob@example.com", "bob")

	alice := dialWS(t, f)
	bob := dialWS(t, f)

	sendFrame(t, alice, event.TypeIdentify, event.Identify{Token: aliceToken})
	var identified event.Identified
	req.NoError(json.Unmarshal(readFrame(t, alice, event.TypeIdentified), &identified))
	req.Equal(aliceID, identified.UserID)
	req.Equal("alice", identified.Name)

	sendFrame(t, bob, event.TypeIdentify, event.Identify{Token: bobToken})
	readFrame(t, bob, event.TypeIdentified)

	// When both join the open room and alice posts a message
	sendFrame(t, alice, event.TypeJoinRoom, event.JoinRoom{Room: "general"})
	sendFrame(t, bob, event.TypeJoinRoom, event.JoinRoom{Room: "general"})

	// Joins race with the send: wait until bob's membership is visible
	// through a message of his own before alice posts.
	sendFrame(t, bob, event.TypeSendMessage, event.SendMessage{
		Room: "general", Content: "hi", Type: "text",
	})
	readFrame(t, bob, event.TypeReceiveMessage)

	sendFrame(t, alice, event.TypeSendMessage, event.SendMessage{
		Room: "general", Content: "hello room", Type: "text",
	})

	// Then both sessions receive the broadcast
	var got event.MessageReceived
	payload := readFrame(t, bob, event.TypeReceiveMessage)
	req.NoError(json.Unmarshal(payload, &got))
	for got.Content != "hello room" {
		req.NoError(json.Unmarshal(readFrame(t, bob, event.TypeReceiveMessage), &got))
	}
	req.Equal(aliceID, got.SenderID)
	req.Equal("alice", got.SenderName)
}

func TestSession_UnidentifiedIsRejected(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)

	conn := dialWS(t, f)
	sendFrame(t, conn, event.TypeJoinRoom, event.JoinRoom{Room: "general"})

	var errEvent event.Error
	req.NoError(json.Unmarshal(readFrame(t, conn, event.TypeError), &errEvent))
	req.NotEmpty(errEvent.Message)
}

func TestSession_MalformedFrameKeepsConnectionAlive(t *testing.T) {
	req := require.New(t)
	f := newServerFixture(t)
	_, token := f.register(t, "alice@example.com", "alice")

	conn := dialWS(t, f)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var errEvent event.Error
	req.NoError(json.Unmarshal(readFrame(t, conn, event.TypeError), &errEvent))
	req.Equal("malformed frame", errEvent.Message)

	// The session still works afterwards
	sendFrame(t, conn, event.TypeIdentify, event.Identify{Token: token})
	readFrame(t, conn, event.TypeIdentified)
}
