package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iliyamo/study-hall-reservation/internal/chat"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/reservation"
	"github.com/iliyamo/study-hall-reservation/internal/store"
)

func newTestHub(t *testing.T) (*Hub, *reservation.Store) {
	t.Helper()
	seats := store.NewMemorySeatStore()
	rows := make([]model.Seat, 60)
	for i := range rows {
		rows[i] = model.Seat{Number: i + 1}
	}
	if err := seats.InsertMany(context.Background(), rows); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res := reservation.New(seats)
	relay := chat.New(store.NewMemoryMessageStore())
	return New(res, relay, "test_secret"), res
}

// attach registers a connectionless client so tests can observe the frames
// the hub would push to a real websocket.
func attach(h *Hub, name string) *Client {
	c := &Client{
		hub:  h,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		name: name,
	}
	h.register(c)
	return c
}

// nextFrame decodes one queued frame, failing when none is pending.
func nextFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		return env
	default:
		t.Fatalf("no frame queued for %s", c.name)
		return Envelope{}
	}
}

// drain discards everything queued so far.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestRegisterPushesInitialView(t *testing.T) {
	h, res := newTestHub(t)
	if _, err := res.Book(context.Background(), 1, "Alice", 30); err != nil {
		t.Fatalf("book: %v", err)
	}

	c := attach(h, "Bob")

	contacts := nextFrame(t, c)
	if contacts.Event != EventChatContacts {
		t.Fatalf("first frame %q, want %q", contacts.Event, EventChatContacts)
	}
	var names []string
	json.Unmarshal(contacts.Data, &names)
	if len(names) != 1 || names[0] != "Alice" {
		t.Fatalf("contacts = %v, want [Alice]", names)
	}

	state := nextFrame(t, c)
	if state.Event != EventSeatsState {
		t.Fatalf("second frame %q, want %q", state.Event, EventSeatsState)
	}
	var views []model.SeatView
	json.Unmarshal(state.Data, &views)
	if len(views) != 60 {
		t.Fatalf("snapshot has %d seats, want 60", len(views))
	}
	if views[0].BookedBy == nil || *views[0].BookedBy != "Alice" {
		t.Fatalf("seat 1 in snapshot = %+v, want held by Alice", views[0])
	}

	online := nextFrame(t, c)
	if online.Event != EventChatOnline {
		t.Fatalf("third frame %q, want %q", online.Event, EventChatOnline)
	}
}

func TestContactsExcludeOwnName(t *testing.T) {
	h, res := newTestHub(t)
	res.Book(context.Background(), 1, "Alice", 30)
	res.Book(context.Background(), 2, "Bob", 30)

	alice := attach(h, "Alice")
	bob := attach(h, "Bob")
	drain(alice)
	drain(bob)

	h.SeatsChanged(context.Background())

	var aliceContacts, bobContacts []string
	env := nextFrame(t, alice)
	json.Unmarshal(env.Data, &aliceContacts)
	env = nextFrame(t, bob)
	json.Unmarshal(env.Data, &bobContacts)

	if len(aliceContacts) != 1 || aliceContacts[0] != "Bob" {
		t.Fatalf("alice contacts = %v, want [Bob]", aliceContacts)
	}
	if len(bobContacts) != 1 || bobContacts[0] != "Alice" {
		t.Fatalf("bob contacts = %v, want [Alice]", bobContacts)
	}
}

func TestSeatsChangedFanout(t *testing.T) {
	h, res := newTestHub(t)
	alice := attach(h, "Alice")
	guest := attach(h, GuestName)
	drain(alice)
	drain(guest)

	seat, err := res.Book(context.Background(), 7, "Alice", 30)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	h.SeatsChanged(context.Background(), *seat)

	// Every connection gets contacts, online count and the seat delta,
	// not just the requester.
	for _, c := range []*Client{alice, guest} {
		if env := nextFrame(t, c); env.Event != EventChatContacts {
			t.Fatalf("%s frame 1 = %q", c.name, env.Event)
		}
		online := nextFrame(t, c)
		if online.Event != EventChatOnline {
			t.Fatalf("%s frame 2 = %q", c.name, online.Event)
		}
		var count int
		json.Unmarshal(online.Data, &count)
		if count != 1 { // Alice holds a seat and is connected
			t.Fatalf("online count = %d, want 1", count)
		}
		update := nextFrame(t, c)
		if update.Event != EventSeatsUpdate {
			t.Fatalf("%s frame 3 = %q", c.name, update.Event)
		}
		var view model.SeatView
		json.Unmarshal(update.Data, &view)
		if view.Number != 7 || view.BookedBy == nil || *view.BookedBy != "Alice" {
			t.Fatalf("seat delta = %+v", view)
		}
	}
}

func TestOnlineNamesDeduplicated(t *testing.T) {
	h, _ := newTestHub(t)
	attach(h, "Alice")
	attach(h, "Alice") // second tab
	attach(h, "Bob")

	names := h.OnlineNames()
	if len(names) != 2 {
		t.Fatalf("online names = %v, want 2 distinct", names)
	}
}

func TestDirectMessageDelivery(t *testing.T) {
	h, _ := newTestHub(t)
	alice := attach(h, "Alice")
	bob1 := attach(h, "Bob")
	bob2 := attach(h, "Bob") // Bob's second device
	carol := attach(h, "Carol")
	for _, c := range []*Client{alice, bob1, bob2, carol} {
		drain(c)
	}

	payload, _ := json.Marshal(sendRequest{To: "Bob", Text: "hi bob"})
	h.handleEvent(alice, Envelope{Event: EventChatSend, Data: payload})

	// Sender and every connection of the receiver get the message.
	for _, c := range []*Client{alice, bob1, bob2} {
		env := nextFrame(t, c)
		if env.Event != EventChatMessage {
			t.Fatalf("%s got %q, want %q", c.name, env.Event, EventChatMessage)
		}
		var reply messageReply
		json.Unmarshal(env.Data, &reply)
		if reply.Message.Text != "hi bob" || reply.Message.Sender != "Alice" {
			t.Fatalf("delivered message = %+v", reply.Message)
		}
	}
	// Third parties hear nothing.
	select {
	case raw := <-carol.send:
		t.Fatalf("carol received unexpected frame %s", raw)
	default:
	}
}

func TestDirectMessageEmptyIsNoOp(t *testing.T) {
	h, _ := newTestHub(t)
	alice := attach(h, "Alice")
	drain(alice)

	payload, _ := json.Marshal(sendRequest{To: "Bob", Text: "   "})
	h.handleEvent(alice, Envelope{Event: EventChatSend, Data: payload})

	select {
	case raw := <-alice.send:
		t.Fatalf("empty send produced frame %s", raw)
	default:
	}
}

func TestHistoryRequestRepliesToRequesterOnly(t *testing.T) {
	h, _ := newTestHub(t)
	alice := attach(h, "Alice")
	bob := attach(h, "Bob")
	drain(alice)
	drain(bob)

	payload, _ := json.Marshal(sendRequest{To: "Bob", Text: "one"})
	h.handleEvent(alice, Envelope{Event: EventChatSend, Data: payload})
	drain(alice)
	drain(bob)

	histReq, _ := json.Marshal(historyRequest{Peer: "Bob"})
	h.handleEvent(alice, Envelope{Event: EventChatHistory, Data: histReq})

	env := nextFrame(t, alice)
	if env.Event != EventChatHistory {
		t.Fatalf("got %q, want %q", env.Event, EventChatHistory)
	}
	var reply historyReply
	json.Unmarshal(env.Data, &reply)
	if reply.Peer != "Bob" || len(reply.History) != 1 {
		t.Fatalf("history reply = %+v", reply)
	}
	select {
	case raw := <-bob.send:
		t.Fatalf("bob received another user's history: %s", raw)
	default:
	}
}

func TestHistoryRequestBlankPeerIgnored(t *testing.T) {
	h, _ := newTestHub(t)
	alice := attach(h, "Alice")
	drain(alice)

	for _, peer := range []string{"", "   "} {
		payload, _ := json.Marshal(historyRequest{Peer: peer})
		h.handleEvent(alice, Envelope{Event: EventChatHistory, Data: payload})
		select {
		case raw := <-alice.send:
			t.Fatalf("peer %q produced frame %s", peer, raw)
		default:
		}
	}
}

func TestDisconnectKeepsContactsUpdatesOnline(t *testing.T) {
	h, res := newTestHub(t)
	res.Book(context.Background(), 1, "Alice", 30)

	alice := attach(h, "Alice")
	bob := attach(h, "Bob")
	drain(alice)
	drain(bob)

	h.unregister(alice)

	// Remaining clients get a fresh online count (Alice holds a seat
	// but is gone), and the contact list is untouched by a mere
	// disconnect.
	env := nextFrame(t, bob)
	if env.Event != EventChatOnline {
		t.Fatalf("got %q, want %q", env.Event, EventChatOnline)
	}
	var count int
	json.Unmarshal(env.Data, &count)
	if count != 0 {
		t.Fatalf("online count = %d, want 0", count)
	}
	contacts, err := h.Directory().Contacts(context.Background(), "Bob")
	if err != nil || len(contacts) != 1 || contacts[0] != "Alice" {
		t.Fatalf("contacts = %v (%v), want [Alice]", contacts, err)
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	h, _ := newTestHub(t)
	alice := attach(h, "Alice")
	drain(alice)

	h.handleEvent(alice, Envelope{Event: "chat:exploit", Data: []byte(`{}`)})

	select {
	case raw := <-alice.send:
		t.Fatalf("unknown event produced frame %s", raw)
	default:
	}
}
