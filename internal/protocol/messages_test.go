package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConnectEvent(t *testing.T) {
	req := require.New(t)

	evType, event, err := ParseClientEvent([]byte(`{"type":"connect","name":"alice"}`))
	req.NoError(err)
	req.Equal(TypeConnect, evType)

	connect, ok := event.(ConnectEvent)
	req.True(ok)
	req.Equal("alice", connect.Name)
}

func TestParseMessageEventTwoStageDecode(t *testing.T) {
	req := require.New(t)

	// The message field is itself a JSON-encoded string.
	frame := `{"type":"message","message":"{\"target\":\"bob\",\"content\":\"hi\"}"}`
	evType, event, err := ParseClientEvent([]byte(frame))
	req.NoError(err)
	req.Equal(TypeMessage, evType)

	msg, ok := event.(MessageEvent)
	req.True(ok)

	payload, err := msg.DecodePayload()
	req.NoError(err)
	req.Equal("bob", payload.Target)
	req.Equal("hi", payload.Content)
}

func TestParseCloseEvent(t *testing.T) {
	req := require.New(t)

	evType, event, err := ParseClientEvent([]byte(`{"type":"close"}`))
	req.NoError(err)
	req.Equal(TypeClose, evType)
	_, ok := event.(CloseEvent)
	req.True(ok)
}

func TestParseClientEventRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{name: "not JSON", frame: `hello`},
		{name: "empty object", frame: `{}`},
		{name: "missing type", frame: `{"name":"alice"}`},
		{name: "connect without name", frame: `{"type":"connect"}`},
		{name: "message without payload", frame: `{"type":"message"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseClientEvent([]byte(tt.frame))
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrUnknownType)
		})
	}
}

func TestParseClientEventUnknownType(t *testing.T) {
	req := require.New(t)

	evType, event, err := ParseClientEvent([]byte(`{"type":"typing"}`))
	req.ErrorIs(err, ErrUnknownType)
	req.Equal("typing", evType)
	req.Nil(event)
}

func TestDecodePayloadRejectsBadInnerJSON(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{name: "not JSON", message: `not json`},
		{name: "missing target", message: `{"content":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := MessageEvent{Type: TypeMessage, Message: tt.message}
			_, err := ev.DecodePayload()
			require.Error(t, err)
		})
	}
}

func TestNewMessageEventShape(t *testing.T) {
	req := require.New(t)

	data, err := NewMessageEvent(Message{From: "alice", Target: "bob", Content: "hi"})
	req.NoError(err)
	req.JSONEq(`{"type":"message","message":{"from":"alice","target":"bob","content":"hi"}}`, string(data))
}

func TestNewUpdateUsersShape(t *testing.T) {
	req := require.New(t)

	msg := &Message{From: "alice", Target: "bob", Content: "hi"}
	data, err := NewUpdateUsers([]ChatPreview{
		{Username: "alice", Message: msg},
		{Username: "carol"},
	})
	req.NoError(err)
	req.JSONEq(`{
		"type": "update_users",
		"chats": [
			{"username":"alice","message":{"from":"alice","target":"bob","content":"hi"}},
			{"username":"carol","message":null}
		]
	}`, string(data))
}

func TestNewUpdateUsersEmptyListIsNotNull(t *testing.T) {
	req := require.New(t)

	data, err := NewUpdateUsers(nil)
	req.NoError(err)

	var decoded map[string]json.RawMessage
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal("[]", string(decoded["chats"]))
}
