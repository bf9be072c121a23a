// Package chat implements the direct-message relay: bounded per-conversation
// history and message creation.  Delivery is the hub's job; the relay only
// validates, stores and returns messages.  Anyone can be messaged by name;
// holding a seat affects who is suggested as a contact, not who is
// reachable.
package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/store"
)

// HistoryLimit is the rolling window per conversation: only the most
// recent entries are kept and returned.
const HistoryLimit = 200

// Relay stores and retrieves direct messages.
type Relay struct {
	messages store.MessageStore
	now      func() time.Time
}

// New constructs a Relay over the given message rows.
func New(messages store.MessageStore) *Relay {
	return &Relay{messages: messages, now: time.Now}
}

// SetClock replaces the relay's time source; tests use it for
// deterministic timestamps.
func (r *Relay) SetClock(now func() time.Time) { r.now = now }

// History returns up to HistoryLimit most-recent messages between the two
// participants, ascending by timestamp.
func (r *Relay) History(ctx context.Context, a, b string) ([]model.Message, error) {
	msgs, err := r.messages.Conversation(ctx, a, b, HistoryLimit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// Send validates and stores a message, returning it for delivery.  An
// empty receiver or text that trims to nothing is a deliberate silent
// no-op, reported by ok=false with no error.  Text beyond the cap is
// truncated rather than rejected.
func (r *Relay) Send(ctx context.Context, sender, receiver, text string) (model.Message, bool, error) {
	receiver = strings.TrimSpace(receiver)
	text = strings.TrimSpace(text)
	if receiver == "" || text == "" {
		return model.Message{}, false, nil
	}
	if utf8.RuneCountInString(text) > model.MaxMessageLen {
		// Cut on a rune boundary; a byte slice could split a multi-byte
		// character and store invalid UTF-8.
		text = string([]rune(text)[:model.MaxMessageLen])
	}
	msg := model.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		Timestamp: r.now().UnixMilli(),
	}
	if err := r.messages.Append(ctx, msg); err != nil {
		return model.Message{}, false, err
	}
	return msg, true, nil
}
