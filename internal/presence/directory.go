// Package presence derives the chat-eligibility view from current seat and
// connection state.  Nothing here is cached: every call recomputes from the
// authoritative sources, so the directory can never drift from the
// reservation store the way an incrementally maintained counter could.
package presence

import "context"

// SeatSource exposes the set of principals currently holding a seat.  The
// reservation store implements it.
type SeatSource interface {
	ActiveHolders(ctx context.Context) ([]string, error)
}

// OnlineSource exposes the set of principals with at least one live
// realtime connection.  The hub implements it.
type OnlineSource interface {
	OnlineNames() []string
}

// Directory is the derived contact/online view over the two sources.
type Directory struct {
	seats  SeatSource
	online OnlineSource
}

// New constructs a Directory over the given sources.
func New(seats SeatSource, online OnlineSource) *Directory {
	return &Directory{seats: seats, online: online}
}

// Contacts returns the current seat holders excluding the principal
// itself: a participant never appears in their own contact list, even
// while holding a seat.
func (d *Directory) Contacts(ctx context.Context, principal string) ([]string, error) {
	holders, err := d.seats.ActiveHolders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(holders))
	for _, name := range holders {
		if name != principal {
			out = append(out, name)
		}
	}
	return out, nil
}

// AllContacts returns every current seat holder.  The hub filters this
// per connection when broadcasting contact lists.
func (d *Directory) AllContacts(ctx context.Context) ([]string, error) {
	return d.seats.ActiveHolders(ctx)
}

// ReservedOnlineCount returns how many principals both hold a seat and
// have at least one live connection.
func (d *Directory) ReservedOnlineCount(ctx context.Context) (int, error) {
	holders, err := d.seats.ActiveHolders(ctx)
	if err != nil {
		return 0, err
	}
	online := make(map[string]struct{})
	for _, name := range d.online.OnlineNames() {
		online[name] = struct{}{}
	}
	count := 0
	for _, name := range holders {
		if _, ok := online[name]; ok {
			count++
		}
	}
	return count, nil
}
