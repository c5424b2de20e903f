// Package protocol defines the JSON frame types exchanged between relay
// clients and the server. Every frame is a JSON object with a "type"
// discriminator; the envelope is decoded first and the payload is parsed in a
// second pass into the concrete event struct.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> Server event types.
const (
	TypeConnect = "connect"
	TypeMessage = "message"
	TypeClose   = "close"
)

// Server -> Client event types.
const (
	TypeUpdateUsers = "update_users"
)

// ErrUnknownType is returned by ParseClientEvent for a well-formed frame
// whose "type" matches no known client event. The caller is expected to
// ignore such frames rather than treat them as malformed.
var ErrUnknownType = errors.New("protocol: unknown event type")

// Message is a single direct message between two usernames. It is both the
// stored conversation entry and the wire shape inside message and
// update_users frames.
type Message struct {
	From    string `json:"from"`
	Target  string `json:"target"`
	Content string `json:"content"`
}

// ChatPreview is one entry of an update_users frame: another online user and
// the most recent message exchanged with them, or null if none exists yet.
type ChatPreview struct {
	Username string   `json:"username"`
	Message  *Message `json:"message"`
}

// Envelope holds the type discriminator and the raw frame bytes for deferred
// decoding into a concrete event struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw frame and extracts only the "type"
// field so the payload can be decoded later against the right struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: malformed envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ConnectEvent registers a username for the sending connection.
type ConnectEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// MessageEvent carries a direct message. The Message field is itself a
// JSON-encoded string holding {"target","content"}; clients double-encode it
// and the server decodes it in two stages to stay wire-compatible.
type MessageEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessagePayload is the inner document of a MessageEvent's Message string.
type MessagePayload struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

// DecodePayload parses the nested JSON string of a message event. it rejects
// payloads that omit the target, since a message cannot be keyed without one.
func (m *MessageEvent) DecodePayload() (MessagePayload, error) {
	var p MessagePayload
	if err := json.Unmarshal([]byte(m.Message), &p); err != nil {
		return MessagePayload{}, fmt.Errorf("protocol: malformed message payload: %w", err)
	}
	if p.Target == "" {
		return MessagePayload{}, fmt.Errorf("protocol: message payload missing \"target\"")
	}
	return p, nil
}

// CloseEvent asks the server to drop the sender's registration.
type CloseEvent struct {
	Type string `json:"type"`
}

// ParseClientEvent parses a raw frame into a typed client event. It returns
// the event type, the decoded struct, and an error for malformed frames. A
// recognized envelope with an unrecognized type returns ErrUnknownType so
// callers can distinguish "ignore" from "drop and log".
func ParseClientEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}

	var (
		event interface{}
		err   error
	)

	switch env.Type {
	case TypeConnect:
		var ev ConnectEvent
		err = json.Unmarshal(env.Raw, &ev)
		if err == nil && ev.Name == "" {
			err = fmt.Errorf("protocol: connect event missing \"name\"")
		}
		event = ev
	case TypeMessage:
		var ev MessageEvent
		err = json.Unmarshal(env.Raw, &ev)
		if err == nil && ev.Message == "" {
			err = fmt.Errorf("protocol: message event missing \"message\"")
		}
		event = ev
	case TypeClose:
		var ev CloseEvent
		err = json.Unmarshal(env.Raw, &ev)
		event = ev
	default:
		return env.Type, nil, ErrUnknownType
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q event: %w", env.Type, err)
	}
	return env.Type, event, nil
}

// outboundMessage is the server -> client message frame.
type outboundMessage struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// outboundUpdateUsers is the server -> client update_users frame.
type outboundUpdateUsers struct {
	Type  string        `json:"type"`
	Chats []ChatPreview `json:"chats"`
}

// NewMessageEvent builds the wire frame echoing a stored message to the two
// participants.
func NewMessageEvent(msg Message) ([]byte, error) {
	data, err := json.Marshal(outboundMessage{Type: TypeMessage, Message: msg})
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal message event: %w", err)
	}
	return data, nil
}

// NewUpdateUsers builds a personalized update_users frame. A nil chats slice
// is encoded as an empty list so viewers with no peers still receive
// "chats":[].
func NewUpdateUsers(chats []ChatPreview) ([]byte, error) {
	if chats == nil {
		chats = []ChatPreview{}
	}
	data, err := json.Marshal(outboundUpdateUsers{Type: TypeUpdateUsers, Chats: chats})
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal update_users event: %w", err)
	}
	return data, nil
}
