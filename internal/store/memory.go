package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/study-hall-reservation/internal/model"
)

// conversationWindow bounds how many messages each conversation retains in
// memory.  It matches the relay's history limit so the memory backend never
// grows past what clients can see.
const conversationWindow = 200

// MemorySeatStore keeps seat rows in process memory.  It is the default
// backend when no database is configured.
type MemorySeatStore struct {
	mu    sync.RWMutex
	seats map[int]*model.Seat
}

// NewMemorySeatStore returns an empty in-memory seat store.
func NewMemorySeatStore() *MemorySeatStore {
	return &MemorySeatStore{seats: make(map[int]*model.Seat)}
}

func (s *MemorySeatStore) All(ctx context.Context) ([]model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Seat, 0, len(s.seats))
	for _, seat := range s.seats {
		out = append(out, *seat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemorySeatStore) Get(ctx context.Context, number int) (*model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.seats[number]
	if !ok {
		return nil, ErrSeatNotFound
	}
	cp := *seat
	return &cp, nil
}

func (s *MemorySeatStore) Save(ctx context.Context, seat *model.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seats[seat.Number]; !ok {
		return ErrSeatNotFound
	}
	cp := *seat
	s.seats[seat.Number] = &cp
	return nil
}

func (s *MemorySeatStore) SavePair(ctx context.Context, a, b *model.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Verify both rows before touching either.
	if _, ok := s.seats[a.Number]; !ok {
		return ErrSeatNotFound
	}
	if _, ok := s.seats[b.Number]; !ok {
		return ErrSeatNotFound
	}
	cpA, cpB := *a, *b
	s.seats[a.Number] = &cpA
	s.seats[b.Number] = &cpB
	return nil
}

func (s *MemorySeatStore) SweepExpired(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seat := range s.seats {
		if seat.EndTime != nil && !seat.EndTime.After(now) {
			seat.BookedBy = ""
			seat.EndTime = nil
			seat.FriendLabel = ""
		}
	}
	return nil
}

func (s *MemorySeatStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seats), nil
}

func (s *MemorySeatStore) InsertMany(ctx context.Context, seats []model.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seat := range seats {
		cp := seat
		s.seats[seat.Number] = &cp
	}
	return nil
}

// MemoryMessageStore keeps conversation logs in process memory, bounded to
// the most recent conversationWindow entries each.
type MemoryMessageStore struct {
	mu   sync.RWMutex
	logs map[string][]model.Message // conversation key -> ascending log
}

// NewMemoryMessageStore returns an empty in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{logs: make(map[string][]model.Message)}
}

// ConversationKey returns the canonical, order-independent identifier for
// the two-party log: the names sorted and joined.  (A,B) and (B,A) always
// resolve to the same key.
func ConversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (s *MemoryMessageStore) Conversation(ctx context.Context, a, b string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[ConversationKey(a, b)]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]model.Message, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryMessageStore) Append(ctx context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ConversationKey(msg.Sender, msg.Receiver)
	log := append(s.logs[key], msg)
	if len(log) > conversationWindow {
		log = log[len(log)-conversationWindow:]
	}
	s.logs[key] = log
	return nil
}

// MemoryUserStore keeps account rows in process memory.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]*model.User
	byMail map[string]*model.User
}

// NewMemoryUserStore returns an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:   make(map[uint64]*model.User),
		byMail: make(map[string]*model.User),
	}
}

func (s *MemoryUserStore) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	email = strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byMail[email]; ok {
		return nil, ErrEmailExists
	}
	s.nextID++
	u := &model.User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byID[u.ID] = u
	s.byMail[email] = u
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byMail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
