// Package queue defines message payloads exchanged over the message broker.
package queue

// SeatEventQueue is the broker queue carrying reservation audit events.
const SeatEventQueue = "seat.events"

// Reservation audit actions.
const (
	ActionBooked     = "booked"
	ActionReleased   = "released"
	ActionPairBooked = "pair_booked"
)

// SeatEvent is published after every successful reservation mutation.  It
// carries enough information for downstream consumers to log or trigger
// notifications without querying the primary store.
type SeatEvent struct {
	Action      string `json:"action"` // booked | released | pair_booked
	SeatNumbers []int  `json:"seat_numbers"`
	Principal   string `json:"principal"`
	FriendLabel string `json:"friend_label,omitempty"`
	EndTimeMs   int64  `json:"end_time_ms,omitempty"`
	OccurredAt  string `json:"occurred_at"` // RFC3339
}
