package hub

import (
	"encoding/json"

	"github.com/iliyamo/study-hall-reservation/internal/model"
)

// EventType enumerates the closed set of realtime events.  Dispatch is an
// exhaustive switch over these constants, so adding an event kind is a
// compile-visible change rather than a stringly-typed convention scattered
// over handlers.
type EventType string

const (
	// Server -> client.
	EventSeatsState   EventType = "seats:state"     // full seat snapshot on connect
	EventSeatsUpdate  EventType = "seats:update"    // single seat delta
	EventChatContacts EventType = "chat:contacts"   // full contact list
	EventChatOnline   EventType = "chat:online"     // reserved-and-online count
	EventChatHistory  EventType = "chat:dm:history" // also the request, client -> server
	EventChatMessage  EventType = "chat:dm:message"

	// Client -> server.
	EventChatSend EventType = "chat:dm:send"
)

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// historyRequest is the client payload asking for a conversation log.
type historyRequest struct {
	Peer string `json:"peer"`
}

// sendRequest is the client payload submitting a direct message.
type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// historyReply answers a history request for one peer.
type historyReply struct {
	Peer    string          `json:"peer"`
	History []model.Message `json:"history"`
}

// messageReply wraps a delivered direct message.
type messageReply struct {
	Message model.Message `json:"message"`
}

// encode frames an event and its payload for the wire.
func encode(event EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
