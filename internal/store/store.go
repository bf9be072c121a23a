// Package store defines the durable record contracts consumed by the
// reservation and chat layers, together with the two backends that satisfy
// them: a memory-resident store used when no database is configured, and a
// MySQL store.  Callers never care which backend is active.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/study-hall-reservation/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no row.
var ErrSeatNotFound = errors.New("seat not found")

// ErrUserNotFound is returned when a user lookup yields no row.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when signup collides with an existing email.
// Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already registered")

// SeatStore provides access to seat rows keyed by unique seat number.
type SeatStore interface {
	// All returns every seat ordered by number.
	All(ctx context.Context) ([]model.Seat, error)
	// Get returns the seat with the given number or ErrSeatNotFound.
	Get(ctx context.Context, number int) (*model.Seat, error)
	// Save writes the seat's reservation fields back to the store.
	Save(ctx context.Context, seat *model.Seat) error
	// SavePair writes both seats atomically: either both rows are
	// updated or neither is, even if the backend fails partway.
	SavePair(ctx context.Context, a, b *model.Seat) error
	// SweepExpired clears holder, expiry and label on every seat whose
	// end time is at or before now.
	SweepExpired(ctx context.Context, now time.Time) error
	// Count returns the number of seat rows.
	Count(ctx context.Context) (int, error)
	// InsertMany inserts the given seats; used once to seed the hall.
	InsertMany(ctx context.Context, seats []model.Seat) error
}

// MessageStore provides access to the per-conversation message rows.  A
// conversation is the unordered pair of the two participant names.
type MessageStore interface {
	// Conversation returns up to limit most-recent messages exchanged
	// between a and b, ascending by timestamp.
	Conversation(ctx context.Context, a, b string, limit int) ([]model.Message, error)
	// Append stores a new message.  Backends may drop the oldest entries
	// of the conversation beyond the relay's rolling window.
	Append(ctx context.Context, msg model.Message) error
}

// UserStore provides access to account rows keyed by unique email.
type UserStore interface {
	// Create inserts a new user and returns it with ID populated, or
	// ErrEmailExists when the email is already registered.
	Create(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	// GetByEmail returns the user with the given email or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByID returns the user with the given id or ErrUserNotFound.
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}
