// Package hub owns the realtime side of the service: the registry mapping
// live websocket connections to principals, the per-connection read/write
// pumps, and the fanout that keeps every connected client's view of seats,
// contacts and the online count consistent with server state without
// polling.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/iliyamo/study-hall-reservation/internal/chat"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/presence"
	"github.com/iliyamo/study-hall-reservation/internal/reservation"
)

// GuestName is the principal assigned to connections whose token is absent
// or unverifiable.  Anonymous participation is allowed on the realtime
// channel; the fallback is logged, never silent.
const GuestName = "Guest"

// Hub is the connection registry and fanout coordinator.  It is
// constructed once per server instance and handed by reference to whoever
// needs to broadcast; there is no global state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	res    *reservation.Store
	relay  *chat.Relay
	dir    *presence.Directory
	secret string
}

// New constructs a Hub over the reservation store and message relay.  The
// presence directory is derived internally: the hub itself is the online
// source, the reservation store the seat source.
func New(res *reservation.Store, relay *chat.Relay, jwtSecret string) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		res:     res,
		relay:   relay,
		secret:  jwtSecret,
	}
	h.dir = presence.New(res, h)
	return h
}

// Directory exposes the derived presence view.
func (h *Hub) Directory() *presence.Directory { return h.dir }

// OnlineNames returns the principals with at least one live connection.
// Duplicate connections of the same principal report the name once.
func (h *Hub) OnlineNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{}, len(h.clients))
	names := make([]string, 0, len(h.clients))
	for c := range h.clients {
		if _, ok := seen[c.name]; ok {
			continue
		}
		seen[c.name] = struct{}{}
		names = append(names, c.name)
	}
	return names
}

// register adds an identified connection and pushes its initial view: the
// contact list, the full seat snapshot (to this connection only) and the
// refreshed online count (to everyone).
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("hub: %s connected (%d clients)", c.name, total)

	ctx := context.Background()
	if contacts, err := h.dir.Contacts(ctx, c.name); err == nil {
		h.sendTo(c, EventChatContacts, contacts)
	} else {
		log.Printf("hub: contacts for %s: %v", c.name, err)
	}
	if seats, err := h.res.List(ctx); err == nil {
		h.sendTo(c, EventSeatsState, model.SeatViews(seats))
	} else {
		log.Printf("hub: seat snapshot for %s: %v", c.name, err)
	}
	h.broadcastOnline(ctx)
}

// unregister removes a closed connection and rebroadcasts the online
// count.  The contact list is unaffected: a principal remains a contact as
// long as it holds a seat, connected or not.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	c.shutdown()
	log.Printf("hub: %s disconnected (%d clients)", c.name, total)

	h.broadcastOnline(context.Background())
}

// SeatsChanged is called after every successful reservation mutation.  It
// recomputes the directory and pushes the contact list, the online count
// and one seat delta per changed seat to all connections, so every
// observer's view stays current without polling.
func (h *Hub) SeatsChanged(ctx context.Context, seats ...model.Seat) {
	h.broadcastContacts(ctx)
	h.broadcastOnline(ctx)
	for _, seat := range seats {
		if frame, err := encode(EventSeatsUpdate, seat.View()); err == nil {
			h.broadcast(frame)
		}
	}
}

// broadcastContacts pushes each connection its own contact list (the
// holder set minus the connection's principal).
func (h *Hub) broadcastContacts(ctx context.Context) {
	holders, err := h.dir.AllContacts(ctx)
	if err != nil {
		log.Printf("hub: contacts broadcast: %v", err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		contacts := make([]string, 0, len(holders))
		for _, name := range holders {
			if name != c.name {
				contacts = append(contacts, name)
			}
		}
		h.sendTo(c, EventChatContacts, contacts)
	}
}

// broadcastOnline pushes the reserved-and-online count to all connections.
func (h *Hub) broadcastOnline(ctx context.Context) {
	count, err := h.dir.ReservedOnlineCount(ctx)
	if err != nil {
		log.Printf("hub: online count: %v", err)
		return
	}
	if frame, err := encode(EventChatOnline, count); err == nil {
		h.broadcast(frame)
	}
}

// broadcast delivers a frame to every live connection.  Clients whose send
// buffer is full are dropped rather than allowed to stall the fanout.
func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		if !c.trySend(frame) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		log.Printf("hub: dropping slow client %s", c.name)
		h.unregister(c)
	}
}

// sendTo delivers one event to a single connection, dropping it when the
// buffer is full.
func (h *Hub) sendTo(c *Client, event EventType, data any) {
	frame, err := encode(event, data)
	if err != nil {
		log.Printf("hub: encode %s: %v", event, err)
		return
	}
	if !c.trySend(frame) {
		log.Printf("hub: dropping slow client %s", c.name)
		h.unregister(c)
	}
}

// sendToName delivers a frame to every connection of the named principal,
// covering multiple tabs or devices of the same account.
func (h *Hub) sendToName(name string, frame []byte) {
	h.mu.RLock()
	var targets []*Client
	for c := range h.clients {
		if c.name == name {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		if !c.trySend(frame) {
			log.Printf("hub: dropping slow client %s", c.name)
			h.unregister(c)
		}
	}
}

// handleEvent dispatches one inbound client event.  The event set is
// closed: anything outside it is logged and ignored so a misbehaving
// client cannot grow the protocol.
func (h *Hub) handleEvent(c *Client, env Envelope) {
	ctx := context.Background()
	switch env.Event {
	case EventChatHistory:
		var req historyRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		peer := strings.TrimSpace(req.Peer)
		if peer == "" {
			return
		}
		history, err := h.relay.History(ctx, c.name, peer)
		if err != nil {
			log.Printf("hub: history %s/%s: %v", c.name, peer, err)
			return
		}
		h.sendTo(c, EventChatHistory, historyReply{Peer: peer, History: history})

	case EventChatSend:
		var req sendRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		msg, ok, err := h.relay.Send(ctx, c.name, req.To, req.Text)
		if err != nil {
			log.Printf("hub: send %s->%s: %v", c.name, req.To, err)
			return
		}
		if !ok {
			return // empty text or receiver: deliberate no-op
		}
		frame, err := encode(EventChatMessage, messageReply{Message: msg})
		if err != nil {
			return
		}
		h.sendToName(msg.Receiver, frame)
		if msg.Sender != msg.Receiver {
			h.sendToName(msg.Sender, frame)
		}

	case EventSeatsState, EventSeatsUpdate, EventChatContacts, EventChatOnline, EventChatMessage:
		// Server-to-client kinds have no inbound meaning.
		log.Printf("hub: ignoring inbound %q from %s", env.Event, c.name)

	default:
		log.Printf("hub: unknown event %q from %s", env.Event, c.name)
	}
}
