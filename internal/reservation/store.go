package reservation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/study-hall-reservation/internal/layout"
	"github.com/iliyamo/study-hall-reservation/internal/model"
	"github.com/iliyamo/study-hall-reservation/internal/store"
)

// MaxMinutes is the longest reservation a single booking can obtain.
// Requests above the cap, and missing or non-positive durations, are all
// clamped to this value.
const MaxMinutes = 150

// ClampMinutes normalizes a requested duration: non-positive or absent
// input defaults to MaxMinutes, anything above the cap is reduced to it.
func ClampMinutes(minutes int) int {
	if minutes <= 0 || minutes > MaxMinutes {
		return MaxMinutes
	}
	return minutes
}

// Store applies reservation transitions to seat rows.  All mutations and
// occupancy-dependent reads are serialized by a single mutex: the pool is
// small and fixed, so global serialization keeps check-then-set atomic
// without per-seat bookkeeping.  Every entry point sweeps expired holds
// first, so no caller ever observes a stale-but-expired seat as held.
type Store struct {
	mu    sync.Mutex
	seats store.SeatStore
	now   func() time.Time
}

// New constructs a Store over the given seat rows.
func New(seats store.SeatStore) *Store {
	return &Store{seats: seats, now: time.Now}
}

// SetClock replaces the store's time source.  Tests use this to advance
// time past reservation expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// List returns all seats ordered by number, after sweeping expired holds.
func (s *Store) List(ctx context.Context) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seats.SweepExpired(ctx, s.now()); err != nil {
		return nil, err
	}
	return s.seats.All(ctx)
}

// Book reserves a free seat for the principal.  The duration is clamped to
// MaxMinutes.  A booking always clears any previous companion label.
func (s *Store) Book(ctx context.Context, number int, principal string, minutes int) (*model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if err := s.seats.SweepExpired(ctx, now); err != nil {
		return nil, err
	}
	seat, err := s.seats.Get(ctx, number)
	if err != nil {
		if err == store.ErrSeatNotFound {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if seat.BookedBy != "" {
		return nil, ErrSeatTaken
	}
	end := now.Add(time.Duration(ClampMinutes(minutes)) * time.Minute)
	seat.BookedBy = principal
	seat.EndTime = &end
	seat.FriendLabel = ""
	if err := s.seats.Save(ctx, seat); err != nil {
		return nil, err
	}
	return seat, nil
}

// Release frees a seat currently held by the principal.
func (s *Store) Release(ctx context.Context, number int, principal string) (*model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seats.SweepExpired(ctx, s.now()); err != nil {
		return nil, err
	}
	seat, err := s.seats.Get(ctx, number)
	if err != nil {
		if err == store.ErrSeatNotFound {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if seat.BookedBy == "" {
		return nil, ErrSeatFree
	}
	if seat.BookedBy != principal {
		return nil, ErrNotHolder
	}
	seat.BookedBy = ""
	seat.EndTime = nil
	seat.FriendLabel = ""
	if err := s.seats.Save(ctx, seat); err != nil {
		return nil, err
	}
	return seat, nil
}

// PairBook reserves two adjacent seats for the principal in one atomic
// transition: seat A plain, seat B carrying the companion's label, both
// sharing the same expiry.  If any check fails, or the write fails,
// neither seat changes.
func (s *Store) PairBook(ctx context.Context, seatA, seatB int, principal, friendName string, minutes int) ([]model.Seat, error) {
	friendName = strings.TrimSpace(friendName)
	if seatA == 0 || seatB == 0 || seatA == seatB || friendName == "" {
		return nil, ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if err := s.seats.SweepExpired(ctx, now); err != nil {
		return nil, err
	}
	a, err := s.seats.Get(ctx, seatA)
	if err != nil {
		if err == store.ErrSeatNotFound {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	b, err := s.seats.Get(ctx, seatB)
	if err != nil {
		if err == store.ErrSeatNotFound {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if a.BookedBy != "" || b.BookedBy != "" {
		return nil, ErrSeatTaken
	}
	total, err := s.seats.Count(ctx)
	if err != nil {
		return nil, err
	}
	if !layout.Adjacent(seatA, seatB, total) {
		return nil, ErrNotAdjacent
	}
	end := now.Add(time.Duration(ClampMinutes(minutes)) * time.Minute)
	a.BookedBy = principal
	a.EndTime = &end
	a.FriendLabel = ""
	b.BookedBy = principal
	b.EndTime = &end
	b.FriendLabel = friendName
	// One atomic write for both rows: the backend guarantees no observer
	// ever sees half a pair.
	if err := s.seats.SavePair(ctx, a, b); err != nil {
		return nil, err
	}
	return []model.Seat{*a, *b}, nil
}

// ActiveHolders returns the deduplicated, sorted set of principals holding
// at least one seat, post-sweep.  It is the source the presence directory
// derives contact lists from.
func (s *Store) ActiveHolders(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.seats.SweepExpired(ctx, s.now()); err != nil {
		return nil, err
	}
	seats, err := s.seats.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var names []string
	for _, seat := range seats {
		if seat.BookedBy == "" {
			continue
		}
		if _, ok := seen[seat.BookedBy]; ok {
			continue
		}
		seen[seat.BookedBy] = struct{}{}
		names = append(names, seat.BookedBy)
	}
	sort.Strings(names)
	return names, nil
}
