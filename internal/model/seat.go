package model

import "time"

// Seat describes one bookable position in the hall.  Seats are created at
// startup, identified by a stable 1-based number, and never deleted; only
// their reservation fields change.
//
// Fields:
//  Number      - immutable 1-based identity.
//  BookedBy    - display name of the current holder, empty when free.
//  EndTime     - absolute expiry of the reservation, nil when free.
//  FriendLabel - free-text label for a companion seat in a pair booking.
//
// Invariant: BookedBy is empty exactly when EndTime is nil.  A seat whose
// EndTime has passed is logically free even before a sweep clears it.
type Seat struct {
	Number      int        // seats.number
	BookedBy    string     // seats.booked_by (empty = free)
	EndTime     *time.Time // seats.end_time (nullable)
	FriendLabel string     // seats.friend_label
}

// Free reports whether the seat is available at the given instant, counting
// expired-but-not-yet-swept reservations as free.
func (s Seat) Free(now time.Time) bool {
	return s.BookedBy == "" || (s.EndTime != nil && !s.EndTime.After(now))
}

// SeatView is the wire representation of a seat shared by the HTTP handlers
// and the realtime channel.  EndTime is epoch milliseconds so that clients
// can compare it directly against their own clocks.
type SeatView struct {
	ID          int     `json:"id"`
	Number      int     `json:"number"`
	BookedBy    *string `json:"bookedBy"`
	EndTime     *int64  `json:"endTime"`
	FriendLabel *string `json:"friendLabel"`
}

// View converts a seat into its wire representation, mapping absent fields
// to JSON null.
func (s Seat) View() SeatView {
	v := SeatView{ID: s.Number, Number: s.Number}
	if s.BookedBy != "" {
		v.BookedBy = &s.BookedBy
	}
	if s.EndTime != nil {
		ms := s.EndTime.UnixMilli()
		v.EndTime = &ms
	}
	if s.FriendLabel != "" {
		v.FriendLabel = &s.FriendLabel
	}
	return v
}

// SeatViews converts a slice of seats preserving order.
func SeatViews(seats []Seat) []SeatView {
	out := make([]SeatView, len(seats))
	for i, s := range seats {
		out[i] = s.View()
	}
	return out
}
